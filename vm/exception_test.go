package vm

import (
	"strings"
	"testing"

	"ember/types"
)

// fail compiles and starts src, expecting it to throw
func fail(t *testing.T, vm *VM, src string) error {
	t.Helper()
	if _, err := vm.Compile([]byte(src)); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	_, err := vm.Start()
	if err == nil {
		t.Fatalf("Start(%q) succeeded, want an exception", src)
	}
	return err
}

func TestExceptionBacktrace(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	fail(t, vm, `function inner() { throw new Error('deep'); }
function outer() { inner(); }
outer();`)

	s := vm.ExceptionString()
	for _, want := range []string{
		"Error: deep",
		"at inner (<input>:1)",
		"at outer (<input>:2)",
		"at main (<input>:3)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("exception string missing %q:\n%s", want, s)
		}
	}
	if _, ok := vm.PeekException(); ok {
		t.Error("ExceptionString left the slot set")
	}
	if s := vm.ExceptionString(); s != "" {
		t.Errorf("empty slot renders %q", s)
	}
}

func TestExceptionValues(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"string", "throw 'plain';", "plain"},
		{"number", "throw 42;", "42"},
		{"object with toString", "throw { toString: function() { return 'custom'; } };", "custom"},
		{"throwing toString", "throw { toString: function() { throw 'inner'; } };", "inner"},
		{"error without message", "throw new RangeError();", "RangeError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, DefaultOptions())
			fail(t, vm, tt.src)
			if got := vm.ExceptionString(); !strings.HasPrefix(got, tt.want) {
				t.Errorf("ExceptionString = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestExceptionSlot(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	if _, ok := vm.Exception(); ok {
		t.Fatal("fresh VM has a pending exception")
	}

	fail(t, vm, "throw 'x';")
	v, ok := vm.PeekException()
	if !ok || v.String() != "x" {
		t.Fatalf("PeekException = %v, %v", v, ok)
	}
	if v, ok = vm.Exception(); !ok || v.String() != "x" {
		t.Fatalf("Exception = %v, %v", v, ok)
	}
	if _, ok := vm.Exception(); ok {
		t.Error("Exception did not clear the slot")
	}
}

func TestCaughtExceptionClearsSlot(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "try { null.x; } catch (e) {}")
	if v, ok := vm.PeekException(); ok {
		t.Errorf("caught exception left in slot: %v", v)
	}
}

func TestNativeThrowReachesScript(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	native(t, vm, "explode", func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		return rt.ThrowError(types.ObjTypeURIError, "bad %s", "uri")
	})

	v := eval(t, vm, "var got;\ntry { explode(); } catch (e) { got = e.name + ': ' + e.message; }\ngot;")
	if v.String() != "URIError: bad uri" {
		t.Errorf("got = %s", v)
	}

	fail(t, vm, "explode();")
	if s := vm.ExceptionString(); !strings.Contains(s, "at explode (native)") {
		t.Errorf("backtrace missing native frame:\n%s", s)
	}
}

func TestMemoryErrorString(t *testing.T) {
	opts := DefaultOptions()
	opts.MemoryLimit = 64 * 1024
	vm := newTestVM(t, opts)

	err := fail(t, vm, "var s = 'x';\nwhile (true) { s = s + s; }")
	if !IsMemory(err) {
		t.Fatalf("Start = %v, want memory error", err)
	}
	if s := vm.ExceptionString(); s != "MemoryError" {
		t.Errorf("ExceptionString = %q, want MemoryError", s)
	}
}

func TestExceptionOverwrite(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, vm *VM)
	}{
		{"native raises twice", func(t *testing.T, vm *VM) {
			native(t, vm, "raise", func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
				rt.Throw(types.NewStr("E1"))
				return rt.Throw(types.NewStr("E2"))
			})
			fail(t, vm, "raise();")
		}},
		{"second script throws before the first is read", func(t *testing.T, vm *VM) {
			fail(t, vm, "throw 'E1';")
			fail(t, vm, "throw 'E2';")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, DefaultOptions())
			tt.run(t, vm)
			exc, ok := vm.Exception()
			if !ok || exc.String() != "E2" {
				t.Errorf("exception = %v, %v; want E2", exc, ok)
			}
			if _, ok := vm.Exception(); ok {
				t.Error("exception slot not cleared after read")
			}
		})
	}
}

func TestMemoryErrorSentinelIsFrozen(t *testing.T) {
	proto := types.MemoryError.Proto
	vm := newTestVM(t, DefaultOptions())
	if err := vm.Bind("oom", MemoryErrorValue); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	eval(t, vm, `Object.assign(oom, {message: 'changed', extra: 1});
Object.setPrototypeOf(oom, {});
oom.name = 'Renamed';`)

	if got := types.MemoryError.Get("message").String(); got != "" {
		t.Errorf("sentinel message = %q, want empty", got)
	}
	if got := types.MemoryError.Get("name").String(); got != "MemoryError" {
		t.Errorf("sentinel name = %q", got)
	}
	if _, ok := types.MemoryError.Lookup("extra"); ok {
		t.Error("sentinel gained a property")
	}
	if types.MemoryError.Proto != proto {
		t.Error("sentinel prototype changed")
	}

	opts := DefaultOptions()
	opts.MemoryLimit = 64 * 1024
	other := newTestVM(t, opts)
	fail(t, other, "var s = 'x';\nwhile (true) { s = s + s; }")
	if got := other.ExceptionString(); got != "MemoryError" {
		t.Errorf("ExceptionString = %q, want MemoryError", got)
	}
}
