package shader

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// Validate compiles the shader's WGSL source to SPIR-V with naga and checks the
// output header. Validation fails on any WGSL naga rejects, including features it
// does not implement yet.
//
// Parameters:
//   - s: the shader to validate
//
// Returns:
//   - error: the naga compile error wrapped with the shader key, or nil
func Validate(s Shader) error {
	spv, err := naga.Compile(s.Source())
	if err != nil {
		return fmt.Errorf("shader %s: %w", s.Key(), err)
	}
	if len(spv) < 20 {
		return fmt.Errorf("shader %s: SPIR-V output too small: %d bytes", s.Key(), len(spv))
	}
	if magic := binary.LittleEndian.Uint32(spv[:4]); magic != spirvMagic {
		return fmt.Errorf("shader %s: invalid SPIR-V magic 0x%08X", s.Key(), magic)
	}
	return nil
}
