package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"ember/addons/timers"
	"ember/parser"
	"ember/vm"
)

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.yaml")
	cfg := "max_stack_size: 4096\nmemory_limit: 1048576\nunhandled_rejection: ignore\nmetas:\n  - key: region\n    value: eu\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := loadOptions(path)
	if err != nil {
		t.Fatalf("loadOptions failed: %v", err)
	}
	if opts.MaxStackSize != 4096 || opts.MemoryLimit != 1048576 {
		t.Errorf("limits = %d/%d", opts.MaxStackSize, opts.MemoryLimit)
	}
	if opts.UnhandledRejection != vm.RejectionIgnore {
		t.Errorf("policy = %q", opts.UnhandledRejection)
	}
	if len(opts.Metas) != 1 || opts.Metas[0].Key != "region" {
		t.Errorf("metas = %+v", opts.Metas)
	}
	if opts.File != "<input>" {
		t.Errorf("file default lost: %q", opts.File)
	}
}

func TestLoadOptionsErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("unhandled_rejection: sometimes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.yaml")},
		{"bad policy", bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadOptions(tt.path); err == nil {
				t.Error("loadOptions accepted a bad config")
			}
		})
	}

	if opts, err := loadOptions(""); err != nil || opts.MaxStackSize != vm.DefaultMaxStackSize {
		t.Errorf("loadOptions(\"\") = %+v, %v", opts, err)
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"function f() {", true},
		{"/* open", true},
		{"var x = [1,", true},
		{"var = 1;", false},
		{"1 +* 2", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := parser.Parse(tt.src, "shell", parser.ModeScript)
			if err == nil {
				t.Fatal("Parse accepted incomplete input")
			}
			if got := incomplete(err); got != tt.want {
				t.Errorf("incomplete(%v) = %v, want %v", err, got, tt.want)
			}
		})
	}
}

func TestShellEntriesShareBindings(t *testing.T) {
	var out bytes.Buffer
	driver := timers.New()
	opts := vm.DefaultOptions()
	opts.Interactive = true
	opts.Addons = []*vm.Addon{driver.Addon(), consoleAddon(&out)}
	v, err := vm.Create(opts)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer func() {
		v.Destroy()
		driver.Forget(v)
	}()

	ctx := context.Background()
	steps := []struct {
		code string
		want string
	}{
		{"var n = 20;", "undefined"},
		{"n + 22", "42"},
		{"var late; setTimeout(function() { late = n; }, 1); 'armed'", "armed"},
		{"late", "20"},
		{"console.log('hi', n)", "undefined"},
		{"missing", "ReferenceError: \"missing\" is not defined"},
	}
	for _, step := range steps {
		got := evalEntry(ctx, driver, v, step.code)
		if len(got) < len(step.want) || got[:len(step.want)] != step.want {
			t.Errorf("%s => %q, want %q", step.code, got, step.want)
		}
	}
	if out.String() != "hi 20\n" {
		t.Errorf("console output = %q", out.String())
	}
}
