// Package timers provides setTimeout, clearTimeout and setImmediate on top
// of VM host events, and a Driver that runs the event loop for them.
package timers

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"time"

	"ember/types"
	"ember/vm"
)

// Driver owns the timers of every VM created with its addon. Fired timers
// are handed back to the VM's goroutine by Loop.
type Driver struct {
	mu     sync.Mutex
	states map[*vm.VM]*state
}

// state is the timer table of one VM instance
type state struct {
	vm     *vm.VM
	timers map[int64]*timer
	nextID int64

	mu    sync.Mutex
	ready []*timer
	wake  chan struct{}
}

// timer is the host side of a setTimeout event
type timer struct {
	id     int64
	handle vm.EventHandle
	args   []types.Value
	t      *time.Timer
}

// New creates a driver with no instances
func New() *Driver {
	return &Driver{states: make(map[*vm.VM]*state)}
}

// Addon returns the addon binding the timer globals. Every instance it
// initializes, clones included, gets its own timer table.
func (d *Driver) Addon() *vm.Addon {
	return &vm.Addon{Name: "timers", Init: d.init}
}

func (d *Driver) init(v *vm.VM) error {
	st := &state{
		vm:     v,
		timers: make(map[int64]*timer),
		wake:   make(chan struct{}, 1),
	}
	d.mu.Lock()
	d.states[v] = st
	d.mu.Unlock()

	rt := v.Runtime()
	for _, fn := range []struct {
		name   string
		length int
		native types.NativeFunc
	}{
		{"setTimeout", 2, st.setTimeout},
		{"clearTimeout", 1, st.clearTimeout},
		{"setImmediate", 1, st.setImmediate},
	} {
		if err := v.Bind(fn.name, rt.NewFunction(fn.name, fn.length, fn.native)); err != nil {
			return err
		}
	}
	return nil
}

// Forget drops the timer table of a destroyed instance
func (d *Driver) Forget(v *vm.VM) {
	d.mu.Lock()
	delete(d.states, v)
	d.mu.Unlock()
}

func (d *Driver) state(v *vm.VM) (*state, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.states[v]
	return st, ok
}

// Pending returns the number of armed timers of v
func (d *Driver) Pending(v *vm.VM) int {
	st, ok := d.state(v)
	if !ok {
		return 0
	}
	return len(st.timers)
}

// Loop runs v until nothing is left to do. Between rounds it blocks until
// a timer fires or ctx is done. Events registered by other hosts keep the
// loop waiting; cancel ctx to stop it.
func (d *Driver) Loop(ctx context.Context, v *vm.VM) error {
	st, ok := d.state(v)
	if !ok {
		return errors.New("timers: instance was not initialized by this driver")
	}

	for {
		status, err := v.Run()
		if err != nil {
			return err
		}
		if status == vm.StatusOK {
			return nil
		}
		if v.Posted() {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-st.wake:
		}
		if err := st.post(); err != nil {
			return err
		}
	}
}

// fire runs on the timer goroutine
func (st *state) fire(tm *timer) {
	st.mu.Lock()
	st.ready = append(st.ready, tm)
	st.mu.Unlock()

	select {
	case st.wake <- struct{}{}:
	default:
	}
}

// post posts every fired timer. Timers cleared after firing are skipped.
func (st *state) post() error {
	st.mu.Lock()
	ready := st.ready
	st.ready = nil
	st.mu.Unlock()

	for _, tm := range ready {
		err := st.vm.PostEvent(tm.handle, tm.args)
		if err != nil && !errors.Is(err, vm.ErrUnknownEvent) {
			return err
		}
	}
	return nil
}

// schedule registers fn as a once-event bound to a new timer id
func (st *state) schedule(rt types.Runtime, fn types.Value, args []types.Value) (*timer, types.Result) {
	if o, ok := fn.(*types.Object); !ok || !o.IsCallable() {
		return nil, rt.ThrowError(types.ObjTypeTypeError, "callback is not a function")
	}

	st.nextID++
	tm := &timer{id: st.nextID, args: slices.Clone(args)}
	h, err := st.vm.AddEvent(fn, true, tm, st.release)
	if err != nil {
		if vm.IsMemory(err) {
			return nil, rt.Throw(types.MemoryError)
		}
		return nil, rt.ThrowError(types.ObjTypeInternalError, "%s", err)
	}
	tm.handle = h
	st.timers[tm.id] = tm
	return tm, types.Ok(nil)
}

// release is the event destructor: it stops the timer and forgets the id
func (st *state) release(host any) {
	tm := host.(*timer)
	if tm.t != nil {
		tm.t.Stop()
	}
	delete(st.timers, tm.id)
}

// setTimeout implements setTimeout(fn[, delay[, ...args]])
func (st *state) setTimeout(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	var rest []types.Value
	if len(args) > 2 {
		rest = args[2:]
	}
	tm, r := st.schedule(rt, types.Arg(args, 0), rest)
	if r.IsError() {
		return r
	}

	ms := min(max(types.ToInteger(types.Arg(args, 1)), 0), math.MaxInt32)
	delay := time.Duration(ms) * time.Millisecond
	tm.t = time.AfterFunc(delay, func() { st.fire(tm) })
	st.vm.Logger().Debug("timer armed", "id", tm.id, "delay", delay)
	return types.Ok(types.NewInt(tm.id))
}

// setImmediate implements setImmediate(fn[, ...args]). The callback runs
// in the next dispatch pass.
func (st *state) setImmediate(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	var rest []types.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	tm, r := st.schedule(rt, types.Arg(args, 0), rest)
	if r.IsError() {
		return r
	}
	if err := st.vm.PostEvent(tm.handle, tm.args); err != nil {
		return rt.ThrowError(types.ObjTypeInternalError, "%s", err)
	}
	return types.Ok(types.NewInt(tm.id))
}

// clearTimeout implements clearTimeout(id). Unknown ids are ignored.
func (st *state) clearTimeout(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	id := int64(types.ToInteger(types.Arg(args, 0)))
	if tm, ok := st.timers[id]; ok {
		st.vm.DelEvent(tm.handle)
	}
	return types.Ok(types.Undefined)
}
