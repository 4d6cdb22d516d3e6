package gbuffer

// ManagerBuilderOption is a functional option applied to a Manager during construction via NewManager.
type ManagerBuilderOption func(*Manager)

// WithLabel sets the label prefix of every target texture. Defaults to "gbuffer".
//
// Parameters:
//   - label: the label prefix
//
// Returns:
//   - ManagerBuilderOption: a function that applies the label option to a manager
func WithLabel(label string) ManagerBuilderOption {
	return func(m *Manager) {
		m.label = label
	}
}
