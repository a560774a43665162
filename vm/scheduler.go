package vm

import (
	"ember/builtins"
	"ember/types"
)

// Status is the outcome of one Run round
type Status int

const (
	// StatusOK means nothing is left to do
	StatusOK Status = iota
	// StatusAgain means events are still registered; call Run again once
	// the host posts them
	StatusAgain
	// StatusError means a callback threw; the exception is in the slot
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAgain:
		return "again"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Run drains the promise job queue, checks for unhandled rejections and
// dispatches posted events, repeating while dispatch queued new promise
// jobs. Events posted during a dispatch pass run in the next round.
func (vm *VM) Run() (Status, error) {
	if err := vm.enter(); err != nil {
		return StatusError, err
	}
	defer vm.leave()

	for {
		if err := vm.runJobs(); err != nil {
			return StatusError, err
		}
		if err := vm.checkRejections(); err != nil {
			return StatusError, err
		}
		if err := vm.runPosted(); err != nil {
			return StatusError, err
		}
		if vm.promises.Len() == 0 {
			break
		}
	}

	if vm.pending() {
		return StatusAgain, nil
	}
	return StatusOK, nil
}

// runJobs invokes queued promise jobs until the queue is empty, including
// jobs queued by the jobs themselves
func (vm *VM) runJobs() error {
	for {
		h, ok := vm.promises.Pop()
		if !ok {
			return nil
		}
		ev, ok := vm.jobs.Get(h)
		if !ok {
			continue
		}
		vm.jobs.Delete(h)
		vm.arena.Release(eventSize)

		vm.tracer.Event(vm.idString, "job", functionName(ev.Function))
		if r := vm.call(ev.Function, types.Undefined, ev.Args, false); r.IsError() {
			return vm.hostError(r.Val)
		}
	}
}

// checkRejections raises the first unhandled rejection when the policy is
// throw. Every tracked rejection is dropped.
func (vm *VM) checkRejections() error {
	if vm.opts.UnhandledRejection != RejectionThrow || len(vm.rejections) == 0 {
		return nil
	}
	p := vm.rejections[0]
	vm.rejections = nil

	_, reason := builtins.State(p)
	s, r := vm.toString(reason)
	if r.IsError() {
		return vm.hostError(r.Val)
	}
	r = vm.throwError(types.ObjTypeError, "unhandled promise rejection: %s", s)
	vm.logger.Debug("unhandled promise rejection", "reason", s)
	return &Error{
		Kind:    KindUnhandledRejection,
		Message: "unhandled promise rejection: " + s,
		Value:   r.Val,
	}
}

// runPosted dispatches the events posted before the pass started. Once
// events are released and deleted before their callback runs; recurring
// events are unmarked so the callback may post them again.
func (vm *VM) runPosted() error {
	for n := vm.posted.Len(); n > 0; n-- {
		h, _ := vm.posted.Pop()
		ev, ok := vm.events.Get(h)
		if !ok {
			continue
		}
		if ev.Once {
			vm.DelEvent(h)
		} else {
			ev.Posted = false
		}

		vm.tracer.Event(vm.idString, "posted", functionName(ev.Function))
		if r := vm.call(ev.Function, types.Undefined, ev.Args, false); r.IsError() {
			return vm.hostError(r.Val)
		}
	}
	return nil
}

func functionName(v types.Value) string {
	if o, ok := v.(*types.Object); ok && o.Func != nil && o.Func.Name != "" {
		return o.Func.Name
	}
	return "anonymous"
}
