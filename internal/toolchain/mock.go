package toolchain

import "context"

// MockResolver provides a fixed version for testing
type MockResolver struct {
	Err     error
	Version string
	Calls   int
}

// NewMockResolver creates a mock returning version
func NewMockResolver(version string) *MockResolver {
	return &MockResolver{Version: version}
}

// ResolveVersion implements VersionResolver
func (m *MockResolver) ResolveVersion(_ context.Context) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Version, nil
}
