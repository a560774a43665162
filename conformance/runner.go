package conformance

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ember/addons/crypto"
	"ember/addons/timers"
	"ember/types"
	"ember/vm"
)

// runTimeout bounds the event loop of a test that waits on timers
const runTimeout = 5 * time.Second

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests, each in a fresh VM instance
type Runner struct {
	timers *timers.Driver
}

// NewRunner creates a new test runner
func NewRunner() *Runner {
	return &Runner{timers: timers.New()}
}

// options builds the VM options of a test: defaults, then the suite
// overlay, then the test overlay
func (r *Runner) options(test LoadedTest) (vm.Options, error) {
	opts := vm.DefaultOptions()
	for _, node := range []*yaml.Node{&test.Suite.Options, &test.Test.Options} {
		if node.Kind == 0 {
			continue
		}
		if err := node.Decode(&opts); err != nil {
			return opts, fmt.Errorf("bad options: %w", err)
		}
	}

	for _, name := range test.Suite.Requires.Addons {
		switch name {
		case "crypto":
			opts.Addons = append(opts.Addons, crypto.Addon())
		case "timers":
			opts.Addons = append(opts.Addons, r.timers.Addon())
		default:
			return opts, fmt.Errorf("unknown addon %q", name)
		}
	}
	return opts, nil
}

// outcome is what a test produced: a value or an exception
type outcome struct {
	value     types.Value
	exception string
	err       error
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}
	if test.Test.Code == "" {
		return TestResult{Test: test, Skipped: true, SkipReason: "no code"}
	}

	opts, err := r.options(test)
	if err != nil {
		return TestResult{Test: test, Error: err}
	}
	v, err := vm.Create(opts)
	if err != nil {
		return TestResult{Test: test, Error: fmt.Errorf("create failed: %w", err)}
	}
	defer func() {
		v.Destroy()
		r.timers.Forget(v)
	}()

	if err := r.setup(v, test); err != nil {
		return TestResult{Test: test, Error: err}
	}

	out := r.execute(v, test.Test)
	passed, err := checkExpectation(test.Test.Expect, out)
	return TestResult{Test: test, Passed: passed, Error: err}
}

// setup registers the suite and test modules and runs the suite setup code
func (r *Runner) setup(v *vm.VM, test LoadedTest) error {
	modules := map[string]string{}
	if s := test.Suite.Setup; s != nil {
		for name, src := range s.Modules {
			modules[name] = src
		}
	}
	for name, src := range test.Test.Modules {
		modules[name] = src
	}
	for name, src := range modules {
		if _, err := v.CompileModule(name, []byte(src)); err != nil {
			return fmt.Errorf("module %s: %w", name, err)
		}
	}

	if s := test.Suite.Setup; s != nil && s.Code != "" {
		if _, err := v.Compile([]byte(s.Code)); err != nil {
			return fmt.Errorf("setup compile failed: %w", err)
		}
		if _, err := v.Start(); err != nil {
			return fmt.Errorf("setup failed: %s", v.ExceptionString())
		}
	}
	return nil
}

// execute compiles and starts the test code, optionally drains the
// scheduler, and collects the result
func (r *Runner) execute(v *vm.VM, tc TestCase) outcome {
	if _, err := v.Compile([]byte(tc.Code)); err != nil {
		return outcome{exception: v.ExceptionString(), err: err}
	}
	value, err := v.Start()
	if err != nil {
		return outcome{exception: v.ExceptionString(), err: err}
	}

	if tc.Run {
		if r.timers.Pending(v) > 0 || v.Waiting() {
			ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
			err = r.timers.Loop(ctx, v)
			cancel()
		} else {
			_, err = v.Run()
		}
		if err != nil {
			return outcome{exception: v.ExceptionString(), err: err}
		}
	}

	if tc.Result != "" {
		var ok bool
		if value, ok = v.Value(tc.Result); !ok {
			return outcome{err: fmt.Errorf("result %q is not bound", tc.Result)}
		}
	}
	return outcome{value: value}
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("Total: %d, Passed: %d, Failed: %d, Skipped: %d",
		stats.Total, stats.Passed, stats.Failed, stats.Skipped)
}

// checkExpectation checks if the outcome matches the expected result
func checkExpectation(expect Expectation, out outcome) (bool, error) {
	if expect.Error != "" {
		if out.err == nil {
			return false, fmt.Errorf("expected %s, got value %s", expect.Error, describe(out.value))
		}
		if !strings.HasPrefix(out.exception, expect.Error) {
			return false, fmt.Errorf("expected %s, got %q", expect.Error, out.exception)
		}
		return matchText(expect, out.exception)
	}

	if out.err != nil {
		if out.exception != "" {
			return false, fmt.Errorf("unexpected exception: %s", out.exception)
		}
		return false, out.err
	}

	if expect.Value != nil {
		want, err := yamlString(expect.Value)
		if err != nil {
			return false, err
		}
		if got := describe(out.value); got != want {
			return false, fmt.Errorf("expected %q, got %q", want, got)
		}
	}
	if expect.Type != "" {
		if got := types.Typeof(out.value); got != expect.Type {
			return false, fmt.Errorf("expected type %s, got %s", expect.Type, got)
		}
	}
	return matchText(expect, describe(out.value))
}

// matchText applies the match and contains checks to s
func matchText(expect Expectation, s string) (bool, error) {
	if expect.Match != "" {
		re, err := regexp.Compile(expect.Match)
		if err != nil {
			return false, fmt.Errorf("bad match pattern: %w", err)
		}
		if !re.MatchString(s) {
			return false, fmt.Errorf("%q does not match %s", s, expect.Match)
		}
	}
	if expect.Contains != "" && !strings.Contains(s, expect.Contains) {
		return false, fmt.Errorf("%q does not contain %q", s, expect.Contains)
	}
	return true, nil
}

// yamlString renders an expected scalar the way the VM renders values
func yamlString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case float64:
		return types.FormatNumber(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	}
	return "", fmt.Errorf("unsupported expected value %T", v)
}

func describe(v types.Value) string {
	if v == nil {
		return "undefined"
	}
	return v.String()
}
