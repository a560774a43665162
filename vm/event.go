package vm

import (
	"fmt"
	"slices"

	"ember/arena"
	"ember/types"
)

// eventSize is the nominal arena charge of one event record
const eventSize = 64

// EventHandle references a registered event. Handles of deleted events
// never resolve again.
type EventHandle = arena.Handle

// Event is a host-registered callback the scheduler invokes when posted.
// Host and Destructor let the host tie its own resource (a timer, a socket)
// to the event; the destructor runs once when the event is released.
type Event struct {
	Function   types.Value
	Args       []types.Value
	Once       bool
	Posted     bool
	Host       any
	Destructor func(host any)
}

// release runs the host destructor at most once
func (ev *Event) release() {
	if d := ev.Destructor; d != nil {
		ev.Destructor = nil
		d(ev.Host)
	}
}

// AddEvent registers fn as an event. A once-event is deleted when it is
// dispatched; a recurring one stays registered until DelEvent.
func (vm *VM) AddEvent(fn types.Value, once bool, host any, destructor func(any)) (EventHandle, error) {
	if vm.destroyed {
		return arena.Nil, ErrDestroyed
	}
	if o, ok := fn.(*types.Object); !ok || !o.IsCallable() {
		return arena.Nil, fmt.Errorf("event target %s is not a function", describe(fn))
	}
	if err := vm.arena.Alloc(eventSize); err != nil {
		return arena.Nil, &Error{Kind: KindMemory, Message: "MemoryError", Value: types.MemoryError}
	}

	h := vm.events.Put(&Event{
		Function:   fn,
		Once:       once,
		Host:       host,
		Destructor: destructor,
	})
	return h, nil
}

// PostEvent queues a registered event for dispatch by the next Run. The
// arguments are copied. Posting an event that is already queued keeps the
// first arguments.
func (vm *VM) PostEvent(h EventHandle, args []types.Value) error {
	if vm.destroyed {
		return ErrDestroyed
	}
	ev, ok := vm.events.Get(h)
	if !ok {
		return ErrUnknownEvent
	}
	if ev.Posted {
		return nil
	}
	if len(args) > 0 {
		ev.Args = slices.Clone(args)
	}
	ev.Posted = true
	vm.posted.Push(h)
	return nil
}

// DelEvent releases and deletes an event. A queued copy is skipped by Run.
func (vm *VM) DelEvent(h EventHandle) {
	ev, ok := vm.events.Get(h)
	if !ok {
		return
	}
	ev.release()
	vm.events.Delete(h)
	vm.arena.Release(eventSize)
}

// Waiting reports whether any event is registered
func (vm *VM) Waiting() bool {
	return vm.events.Len() > 0
}

// Posted reports whether events or promise jobs are queued
func (vm *VM) Posted() bool {
	return vm.posted.Len() > 0 || vm.promises.Len() > 0
}

// pending reports whether Run has more to do later
func (vm *VM) pending() bool {
	return vm.Waiting() || vm.Posted()
}

// enqueueJob appends a promise job. Jobs are once-events living in their
// own table so they never count as host-registered events.
func (vm *VM) enqueueJob(fn types.Value, args []types.Value) types.Result {
	if err := vm.arena.Alloc(eventSize); err != nil {
		return vm.throwMemory()
	}
	h := vm.jobs.Put(&Event{Function: fn, Args: args, Once: true, Posted: true})
	vm.promises.Push(h)
	return types.Ok(types.Undefined)
}

// trackRejection records a promise rejected without a handler
func (vm *VM) trackRejection(p *types.Object) {
	if !slices.Contains(vm.rejections, p) {
		vm.rejections = append(vm.rejections, p)
	}
}

// untrackRejection forgets a rejected promise once a handler is attached
func (vm *VM) untrackRejection(p *types.Object) {
	if i := slices.Index(vm.rejections, p); i >= 0 {
		vm.rejections = slices.Delete(vm.rejections, i, i+1)
	}
}
