package shader

import (
	"fmt"
	"strings"
	"sync"
)

// includePrefix marks an include line. The rest of the line names a registered source.
//
// Syntax: //@oxy:include <name>
const includePrefix = "//@oxy:include"

var (
	includeMu       sync.RWMutex
	includeRegistry = map[string]string{
		"common": CommonSource,
	}
)

// RegisterInclude makes WGSL source available to //@oxy:include under name.
// Registering a name twice replaces the earlier source.
//
// Parameters:
//   - name: the include name
//   - source: the WGSL source injected at the include site
func RegisterInclude(name, source string) {
	includeMu.Lock()
	defer includeMu.Unlock()
	includeRegistry[name] = source
}

// PreProcess replaces every include line with its registered source. Each name is
// injected at most once per shader, and included sources may include others.
//
// Parameters:
//   - source: the raw WGSL source
//
// Returns:
//   - string: the expanded WGSL source
//   - error: an error naming the line of an unknown or malformed include
func PreProcess(source string) (string, error) {
	includeMu.RLock()
	defer includeMu.RUnlock()
	return expand(source, map[string]bool{}, 0)
}

func expand(source string, seen map[string]bool, depth int) (string, error) {
	if depth > 8 {
		return "", fmt.Errorf("include depth exceeded")
	}

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), includePrefix)
		if !ok {
			out = append(out, line)
			continue
		}

		args := strings.Fields(rest)
		if len(args) != 1 {
			return "", fmt.Errorf("line %d: include takes exactly one name, got %d", i+1, len(args))
		}
		name := args[0]
		if seen[name] {
			continue
		}
		inc, ok := includeRegistry[name]
		if !ok {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		seen[name] = true

		expanded, err := expand(inc, seen, depth+1)
		if err != nil {
			return "", fmt.Errorf("include %q: %w", name, err)
		}
		out = append(out, expanded)
	}
	return strings.Join(out, "\n"), nil
}
