package sysproxy

import (
	"github.com/stretchr/testify/mock"
)

// mockRunner is a Runner whose output is scripted with testify/mock.
type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Output(name string, args ...string) ([]byte, error) {
	ret := m.Called(name, args)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// expect scripts one invocation of name with args.
func (m *mockRunner) expect(out string, name string, args ...string) *mock.Call {
	return m.On("Output", name, args).Return([]byte(out), nil).Once()
}

// invocations returns every recorded command line, the tool name first.
func (m *mockRunner) invocations() [][]string {
	var out [][]string
	for _, c := range m.Calls {
		line := []string{c.Arguments.String(0)}
		line = append(line, c.Arguments.Get(1).([]string)...)
		out = append(out, line)
	}
	return out
}
