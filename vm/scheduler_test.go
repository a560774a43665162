package vm

import (
	"errors"
	"strings"
	"testing"

	"ember/types"
)

// value looks up path and fails the test when it is missing
func value(t *testing.T, vm *VM, path string) string {
	t.Helper()
	v, ok := vm.Value(path)
	if !ok {
		t.Fatalf("%s is not bound", path)
	}
	return v.String()
}

// function returns the script function bound to name
func function(t *testing.T, vm *VM, name string) types.Value {
	t.Helper()
	fn, ok := vm.Binding(name)
	if !ok {
		t.Fatalf("%s is not bound", name)
	}
	return fn
}

func TestRunDrainsPromiseJobs(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, `var out = [];
Promise.resolve(1)
	.then(function(v) { out.push(v); return v + 1; })
	.then(function(v) { out.push(v); });
out.push(0);`)

	if got := value(t, vm, "out.length"); got != "1" {
		t.Fatalf("jobs ran before Run: out.length = %s", got)
	}
	status, err := vm.Run()
	if err != nil || status != StatusOK {
		t.Fatalf("Run = %v, %v; want ok", status, err)
	}
	if got := value(t, vm, "out"); got != "0,1,2" {
		t.Errorf("out = %s, want 0,1,2", got)
	}
	if vm.Posted() {
		t.Error("jobs left after Run")
	}
}

func TestUnhandledRejection(t *testing.T) {
	tests := []struct {
		name   string
		policy RejectionPolicy
		status Status
	}{
		{"throw", RejectionThrow, StatusError},
		{"ignore", RejectionIgnore, StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.UnhandledRejection = tt.policy
			vm := newTestVM(t, opts)
			eval(t, vm, "Promise.reject('bad');")

			status, err := vm.Run()
			if status != tt.status {
				t.Fatalf("status = %s, want %s", status, tt.status)
			}
			if tt.status == StatusOK {
				if err != nil {
					t.Errorf("Run error = %v", err)
				}
				return
			}
			var verr *Error
			if !errors.As(err, &verr) || verr.Kind != KindUnhandledRejection {
				t.Fatalf("Run error = %v, want unhandled rejection", err)
			}
			if !strings.Contains(verr.Message, "unhandled promise rejection: bad") {
				t.Errorf("message = %q", verr.Message)
			}
			if _, ok := vm.PeekException(); !ok {
				t.Error("exception slot is empty")
			}
		})
	}
}

func TestHandledRejection(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "var why;\nPromise.reject('late').catch(function(e) { why = e; });")

	status, err := vm.Run()
	if err != nil || status != StatusOK {
		t.Fatalf("Run = %v, %v; want ok", status, err)
	}
	if got := value(t, vm, "why"); got != "late" {
		t.Errorf("why = %s, want late", got)
	}
}

func TestRecurringEvent(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "var seen = [];\nfunction onTick(n) { seen.push(n); }")

	released := 0
	h, err := vm.AddEvent(function(t, vm, "onTick"), false, "tick", func(host any) {
		if host != "tick" {
			t.Errorf("destructor host = %v", host)
		}
		released++
	})
	if err != nil {
		t.Fatalf("AddEvent failed: %v", err)
	}

	// a second post before dispatch keeps the first arguments
	if err := vm.PostEvent(h, []types.Value{types.NewInt(1)}); err != nil {
		t.Fatalf("PostEvent failed: %v", err)
	}
	if err := vm.PostEvent(h, []types.Value{types.NewInt(2)}); err != nil {
		t.Fatalf("second PostEvent failed: %v", err)
	}

	status, err := vm.Run()
	if err != nil || status != StatusAgain {
		t.Fatalf("Run = %v, %v; want again", status, err)
	}
	if got := value(t, vm, "seen"); got != "1" {
		t.Errorf("seen = %s, want 1", got)
	}

	if err := vm.PostEvent(h, []types.Value{types.NewInt(3)}); err != nil {
		t.Fatalf("repost failed: %v", err)
	}
	if _, err := vm.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := value(t, vm, "seen"); got != "1,3" {
		t.Errorf("seen = %s, want 1,3", got)
	}

	vm.DelEvent(h)
	if released != 1 {
		t.Errorf("destructor ran %d times, want 1", released)
	}
	status, err = vm.Run()
	if err != nil || status != StatusOK {
		t.Errorf("Run after DelEvent = %v, %v; want ok", status, err)
	}

	if err := vm.PostEvent(h, nil); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("PostEvent on deleted handle = %v, want ErrUnknownEvent", err)
	}
}

func TestOnceEvent(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "var fired = 0;\nfunction once() { fired++; }")

	released := 0
	h, err := vm.AddEvent(function(t, vm, "once"), true, nil, func(any) { released++ })
	if err != nil {
		t.Fatalf("AddEvent failed: %v", err)
	}
	if !vm.Waiting() {
		t.Error("registered event is not waiting")
	}

	status, err := vm.Run()
	if err != nil || status != StatusAgain {
		t.Fatalf("Run before post = %v, %v; want again", status, err)
	}

	if err := vm.PostEvent(h, nil); err != nil {
		t.Fatalf("PostEvent failed: %v", err)
	}
	status, err = vm.Run()
	if err != nil || status != StatusOK {
		t.Fatalf("Run = %v, %v; want ok", status, err)
	}
	if got := value(t, vm, "fired"); got != "1" {
		t.Errorf("fired = %s, want 1", got)
	}
	if released != 1 {
		t.Errorf("destructor ran %d times, want 1", released)
	}
	if vm.Waiting() {
		t.Error("once event still registered")
	}
}

func TestEventPostedDuringDispatchRunsNextRound(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "var n = 0;\nfunction again() { n++; repost(); }")

	var h EventHandle
	native(t, vm, "repost", func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		if err := vm.PostEvent(h, nil); err != nil {
			return rt.ThrowError(types.ObjTypeInternalError, "%s", err)
		}
		return types.Ok(types.Undefined)
	})

	var err error
	if h, err = vm.AddEvent(function(t, vm, "again"), false, nil, nil); err != nil {
		t.Fatalf("AddEvent failed: %v", err)
	}
	if err := vm.PostEvent(h, nil); err != nil {
		t.Fatalf("PostEvent failed: %v", err)
	}

	for round := 1; round <= 3; round++ {
		if _, err := vm.Run(); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if got := value(t, vm, "n"); got != types.NewInt(int64(round)).String() {
			t.Fatalf("after round %d n = %s", round, got)
		}
	}
	vm.DelEvent(h)
}

func TestEventCallbackThrows(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "function fail() { throw new TypeError('from event'); }")

	h, err := vm.AddEvent(function(t, vm, "fail"), true, nil, nil)
	if err != nil {
		t.Fatalf("AddEvent failed: %v", err)
	}
	if err := vm.PostEvent(h, nil); err != nil {
		t.Fatalf("PostEvent failed: %v", err)
	}

	status, err := vm.Run()
	if status != StatusError || err == nil {
		t.Fatalf("Run = %v, %v; want error", status, err)
	}
	if s := vm.ExceptionString(); !strings.Contains(s, "TypeError: from event") {
		t.Errorf("exception = %q", s)
	}
}

func TestJobsQueuedByEventsAreDrained(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, `var order = [];
function onData(x) {
	order.push('event');
	Promise.resolve(x).then(function(v) { order.push('job' + v); });
}`)

	h, err := vm.AddEvent(function(t, vm, "onData"), true, nil, nil)
	if err != nil {
		t.Fatalf("AddEvent failed: %v", err)
	}
	if err := vm.PostEvent(h, []types.Value{types.NewInt(7)}); err != nil {
		t.Fatalf("PostEvent failed: %v", err)
	}

	status, err := vm.Run()
	if err != nil || status != StatusOK {
		t.Fatalf("Run = %v, %v; want ok", status, err)
	}
	if got := value(t, vm, "order"); got != "event,job7" {
		t.Errorf("order = %s, want event,job7", got)
	}
}

func TestAddEventRejectsNonFunction(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	if _, err := vm.AddEvent(types.NewInt(1), true, nil, nil); err == nil {
		t.Error("AddEvent accepted a number")
	}
}

func TestDestroyReleasesEvents(t *testing.T) {
	vm, err := Create(DefaultOptions())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	eval(t, vm, "function cb() {}")

	released := 0
	for range 3 {
		if _, err := vm.AddEvent(function(t, vm, "cb"), false, nil, func(any) { released++ }); err != nil {
			t.Fatalf("AddEvent failed: %v", err)
		}
	}
	if err := vm.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if released != 3 {
		t.Errorf("destructors ran %d times, want 3", released)
	}
	if _, err := vm.AddEvent(types.Undefined, true, nil, nil); !errors.Is(err, ErrDestroyed) {
		t.Errorf("AddEvent after Destroy = %v, want ErrDestroyed", err)
	}
}

func TestAbsorbedThrowsLeaveNoException(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"executor throws", "new Promise(function() { throw 'boom'; }).catch(function() { caught++; });"},
		{"reaction throws", "Promise.resolve(1).then(function() { throw 'inner'; }).catch(function() { caught++; });"},
		{"thenable throws", "Promise.resolve({then: function() { throw 'thenable'; }}).catch(function() { caught++; });"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, DefaultOptions())
			eval(t, vm, "var caught = 0;\n"+tt.src)
			status, err := vm.Run()
			if err != nil || status != StatusOK {
				t.Fatalf("Run = %v, %v; want ok", status, err)
			}
			if got := value(t, vm, "caught"); got != "1" {
				t.Errorf("caught = %s, want 1", got)
			}
			if exc, ok := vm.PeekException(); ok {
				t.Errorf("exception slot holds %v after a handled run", exc)
			}
		})
	}
}

func TestOnceEventArguments(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "var seen = '';\nvar calls = 0;\nfunction once(a, b) { calls++; seen = a + ',' + b; }")

	h, err := vm.AddEvent(function(t, vm, "once"), true, nil, nil)
	if err != nil {
		t.Fatalf("AddEvent failed: %v", err)
	}
	args := []types.Value{types.NewInt(1), types.NewInt(2)}
	if err := vm.PostEvent(h, args); err != nil {
		t.Fatalf("PostEvent failed: %v", err)
	}
	args[0] = types.NewInt(9)

	rounds := []struct {
		seen  string
		calls string
	}{
		{"1,2", "1"},
		{"1,2", "1"},
	}
	for i, round := range rounds {
		status, err := vm.Run()
		if err != nil || status != StatusOK {
			t.Fatalf("round %d: Run = %v, %v; want ok", i, status, err)
		}
		if got := value(t, vm, "seen"); got != round.seen {
			t.Errorf("round %d: seen = %s, want %s", i, got, round.seen)
		}
		if got := value(t, vm, "calls"); got != round.calls {
			t.Errorf("round %d: calls = %s, want %s", i, got, round.calls)
		}
	}
	if err := vm.PostEvent(h, nil); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("PostEvent after once = %v, want ErrUnknownEvent", err)
	}
}
