package timers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ember/vm"
)

func newVM(t *testing.T, d *Driver) *vm.VM {
	t.Helper()
	opts := vm.DefaultOptions()
	opts.Addons = []*vm.Addon{d.Addon()}
	v, err := vm.Create(opts)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() {
		v.Destroy()
		d.Forget(v)
	})
	return v
}

func start(t *testing.T, v *vm.VM, src string) {
	t.Helper()
	if _, err := v.Compile([]byte(src)); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if _, err := v.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func loop(t *testing.T, d *Driver, v *vm.VM) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.Loop(ctx, v)
}

func result(t *testing.T, v *vm.VM, name string) string {
	t.Helper()
	val, ok := v.Value(name)
	if !ok {
		t.Fatalf("%s is not bound", name)
	}
	return val.String()
}

func TestTimersFireInDelayOrder(t *testing.T) {
	d := New()
	v := newVM(t, d)
	start(t, v, `var out = '';
setTimeout(function() { out += 'slow'; }, 40);
setTimeout(function(a, b) { out += a + b; }, 1, 'fa', 'st');
setImmediate(function() { out += 'now,'; });`)

	if err := loop(t, d, v); err != nil {
		t.Fatalf("Loop failed: %v", err)
	}
	if got := result(t, v, "out"); got != "now,fastslow" {
		t.Errorf("out = %q, want now,fastslow", got)
	}
	if n := d.Pending(v); n != 0 {
		t.Errorf("%d timers still armed", n)
	}
}

func TestClearTimeout(t *testing.T) {
	d := New()
	v := newVM(t, d)
	start(t, v, `var fired = false;
var id = setTimeout(function() { fired = true; }, 5);
clearTimeout(id);
clearTimeout(12345);`)

	if n := d.Pending(v); n != 0 {
		t.Fatalf("%d timers armed after clearTimeout", n)
	}
	if err := loop(t, d, v); err != nil {
		t.Fatalf("Loop failed: %v", err)
	}
	if got := result(t, v, "fired"); got != "false" {
		t.Errorf("cleared timer fired")
	}
}

func TestNestedTimersAndPromises(t *testing.T) {
	d := New()
	v := newVM(t, d)
	start(t, v, `var steps = [];
setTimeout(function() {
	steps.push('outer');
	Promise.resolve().then(function() { steps.push('job'); });
	setTimeout(function() { steps.push('inner'); }, 1);
}, 1);`)

	if err := loop(t, d, v); err != nil {
		t.Fatalf("Loop failed: %v", err)
	}
	if got := result(t, v, "steps"); got != "outer,job,inner" {
		t.Errorf("steps = %s", got)
	}
}

func TestLoopStopsOnException(t *testing.T) {
	d := New()
	v := newVM(t, d)
	start(t, v, "setTimeout(function() { throw new Error('late failure'); }, 1);")

	err := loop(t, d, v)
	if err == nil || !strings.Contains(err.Error(), "late failure") {
		t.Errorf("Loop = %v, want the callback exception", err)
	}
}

func TestLoopHonorsContext(t *testing.T) {
	d := New()
	v := newVM(t, d)
	start(t, v, "setTimeout(function() {}, 60000);")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Loop(ctx, v); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Loop = %v, want deadline exceeded", err)
	}
	if n := d.Pending(v); n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
}

func TestCallbackType(t *testing.T) {
	d := New()
	v := newVM(t, d)
	if _, err := v.Compile([]byte("setTimeout('nope', 1);")); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if _, err := v.Start(); err == nil || !strings.Contains(err.Error(), "callback is not a function") {
		t.Errorf("Start = %v, want TypeError", err)
	}
}

func TestClonesHaveOwnTimers(t *testing.T) {
	d := New()
	parent := newVM(t, d)
	start(t, parent, "var hits = 0;")

	clone, err := parent.Clone(nil)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer func() {
		clone.Destroy()
		d.Forget(clone)
	}()

	start(t, clone, "hits = 0;\nfunction hit() { hits++; }\nsetTimeout(hit, 1);")
	if d.Pending(parent) != 0 || d.Pending(clone) != 1 {
		t.Fatalf("pending parent=%d clone=%d", d.Pending(parent), d.Pending(clone))
	}
	if err := loop(t, d, clone); err != nil {
		t.Fatalf("Loop failed: %v", err)
	}
	if got := result(t, clone, "hits"); got != "1" {
		t.Errorf("clone hits = %s, want 1", got)
	}
}

func TestLoopUnknownInstance(t *testing.T) {
	v, err := vm.Create(vm.DefaultOptions())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer v.Destroy()
	if err := New().Loop(context.Background(), v); err == nil {
		t.Error("Loop accepted an instance without timers")
	}
}
