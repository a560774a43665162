package conformance

import (
	"gopkg.in/yaml.v3"
)

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Requires    Requirements `yaml:"requires,omitempty"`
	// Options overlay vm.DefaultOptions for every test of the suite
	Options yaml.Node   `yaml:"options,omitempty"`
	Setup   *SetupBlock `yaml:"setup,omitempty"`
	Tests   []TestCase  `yaml:"tests"`
}

// Requirements lists the addons a suite needs
type Requirements struct {
	Addons []string `yaml:"addons,omitempty"` // crypto|timers
}

// SetupBlock contains code run before each test of the suite
type SetupBlock struct {
	Code    string            `yaml:"code,omitempty"`
	Modules map[string]string `yaml:"modules,omitempty"` // name -> module source
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	// Options overlay the suite options for this test only
	Options yaml.Node         `yaml:"options,omitempty"`
	Modules map[string]string `yaml:"modules,omitempty"`
	Code    string            `yaml:"code"`
	// Run drains the scheduler after the script finished
	Run bool `yaml:"run,omitempty"`
	// Result names the global read after the run; empty means the
	// completion value of the script
	Result string      `yaml:"result,omitempty"`
	Expect Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Value    interface{} `yaml:"value,omitempty"`    // exact match of the string form
	Error    string      `yaml:"error,omitempty"`    // exception name: TypeError, SyntaxError, MemoryError...
	Type     string      `yaml:"type,omitempty"`     // typeof the result
	Match    string      `yaml:"match,omitempty"`    // regex over the result or the exception string
	Contains string      `yaml:"contains,omitempty"` // substring of the result or the exception string
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}

	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}

// empty reports whether the expectation checks nothing
func (e Expectation) empty() bool {
	return e.Value == nil && e.Error == "" && e.Type == "" && e.Match == "" && e.Contains == ""
}
