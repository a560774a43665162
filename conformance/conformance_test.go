package conformance

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"ember/types"
)

func TestConformance(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("No tests loaded")
	}

	runner := NewRunner()
	results := runner.RunAll(tests)
	stats := ComputeStats(results)

	// Group results by file for organized output
	fileGroups := make(map[string][]TestResult)
	var files []string
	for _, result := range results {
		if _, ok := fileGroups[result.Test.File]; !ok {
			files = append(files, result.Test.File)
		}
		fileGroups[result.Test.File] = append(fileGroups[result.Test.File], result)
	}
	sort.Strings(files)

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			for _, result := range fileGroups[file] {
				t.Run(result.Test.Test.Name, func(t *testing.T) {
					if result.Skipped {
						t.Skipf("Skipped: %s", result.SkipReason)
					} else if !result.Passed {
						if result.Error != nil {
							t.Errorf("Test failed: %v", result.Error)
						} else {
							t.Error("Test failed")
						}
					}
				})
			}
		})
	}

	t.Logf("\n=== Summary ===\n%s", FormatStats(stats))
}

func TestLoadAllTests(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	t.Logf("Loaded %d test cases from conformance suite", len(tests))

	suites := map[string]bool{}
	for _, test := range tests {
		suites[test.Suite.Name] = true
		if test.Test.Name == "" {
			t.Errorf("%s: test without a name", test.File)
		}
		if test.Test.Code == "" {
			t.Errorf("%s/%s: no code", test.File, test.Test.Name)
		}
		if test.Test.Expect.empty() {
			t.Errorf("%s/%s: expectation checks nothing", test.File, test.Test.Name)
		}
	}
	for _, name := range []string{"basics", "exceptions", "promises", "modules", "crypto", "timers", "limits", "globals"} {
		if !suites[name] {
			t.Errorf("suite %s was not loaded", name)
		}
	}
}

func TestLoadDirDefaultsSuiteName(t *testing.T) {
	dir := t.TempDir()
	src := "tests:\n  - name: one\n    code: \"1\"\n    expect:\n      value: 1\n"
	if err := os.WriteFile(filepath.Join(dir, "unnamed.yaml"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(tests) != 1 {
		t.Fatalf("loaded %d tests, want 1", len(tests))
	}
	if tests[0].Suite.Name != "unnamed.yaml" || tests[0].File != "unnamed.yaml" {
		t.Errorf("suite %q from %q", tests[0].Suite.Name, tests[0].File)
	}
}

func TestLoadDirRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("tests: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDir(dir); err == nil {
		t.Error("LoadDir accepted malformed YAML")
	}
	if _, err := LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("LoadDir accepted a missing directory")
	}
}

func TestIsSkipped(t *testing.T) {
	tests := []struct {
		name   string
		skip   interface{}
		want   bool
		reason string
	}{
		{"unset", nil, false, ""},
		{"true", true, true, "skipped"},
		{"false", false, false, ""},
		{"reason", "not yet", true, "not yet"},
		{"other", 3, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := TestCase{Skip: tt.skip}
			got, reason := tc.IsSkipped()
			if got != tt.want || reason != tt.reason {
				t.Errorf("IsSkipped() = %v, %q; want %v, %q", got, reason, tt.want, tt.reason)
			}
		})
	}
}

func TestCheckExpectation(t *testing.T) {
	tests := []struct {
		name   string
		expect Expectation
		out    outcome
		want   bool
	}{
		{"int value", Expectation{Value: 5}, outcome{value: types.NewInt(5)}, true},
		{"float value", Expectation{Value: 0.5}, outcome{value: types.NewNum(0.5)}, true},
		{"bool value", Expectation{Value: true}, outcome{value: types.True}, true},
		{"string mismatch", Expectation{Value: "a"}, outcome{value: types.NewStr("b")}, false},
		{"type", Expectation{Type: "string"}, outcome{value: types.NewStr("b")}, true},
		{"contains", Expectation{Contains: "ell"}, outcome{value: types.NewStr("hello")}, true},
		{"match", Expectation{Match: "^h.*o$"}, outcome{value: types.NewStr("hello")}, true},
		{"error prefix", Expectation{Error: "TypeError"}, outcome{exception: "TypeError: x", err: errFake}, true},
		{"wrong error", Expectation{Error: "RangeError"}, outcome{exception: "TypeError: x", err: errFake}, false},
		{"error expected", Expectation{Error: "TypeError"}, outcome{value: types.Undefined}, false},
		{"unexpected error", Expectation{Value: 1}, outcome{exception: "Error: boom", err: errFake}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkExpectation(tt.expect, tt.out)
			if got != tt.want {
				t.Errorf("checkExpectation() = %v (%v), want %v", got, err, tt.want)
			}
		})
	}
}

var errFake = os.ErrInvalid
