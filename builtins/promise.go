package builtins

import (
	"ember/types"
)

// PromiseState is the settlement state of a promise
type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// reaction is a handler registered with then, settling derived on completion
type reaction struct {
	rejected bool
	handler  *types.Object
	derived  *types.Object
}

// promiseData is the Internal payload of promise objects
type promiseData struct {
	state     PromiseState
	value     types.Value
	reactions []reaction
	handled   bool
}

func promiseSpec() TypeSpec {
	return TypeSpec{
		Name:      "Promise",
		Parent:    types.ObjTypeObject,
		ProtoKind: types.ObjTypeObject,
		Ctor:      builtinPromise,
		Length:    1,
		Static: []Method{
			{"resolve", 1, builtinPromiseResolve},
			{"reject", 1, builtinPromiseReject},
		},
		Methods: []Method{
			{"then", 2, builtinPromiseThen},
			{"catch", 1, builtinPromiseCatch},
			{"finally", 1, builtinPromiseFinally},
		},
	}
}

// NewPromise creates a pending promise
func NewPromise(rt types.Runtime) *types.Object {
	p := rt.NewObject()
	p.Kind = types.ObjTypePromise
	p.Proto = rt.Proto(types.ObjTypePromise)
	p.Internal = &promiseData{value: types.Undefined}
	return p
}

func promiseOf(v types.Value) *promiseData {
	if o, ok := v.(*types.Object); ok && o.Kind == types.ObjTypePromise {
		if pd, ok := o.Internal.(*promiseData); ok {
			return pd
		}
	}
	return nil
}

// State reports a promise's state and settled value
func State(p *types.Object) (PromiseState, types.Value) {
	pd := promiseOf(p)
	if pd == nil {
		return PromisePending, types.Undefined
	}
	return pd.state, pd.value
}

// builtinPromise implements new Promise(executor)
func builtinPromise(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	if !rt.IsConstructor() {
		return rt.ThrowError(types.ObjTypeTypeError, "Promise constructor cannot be invoked without 'new'")
	}
	executor := callable(types.Arg(args, 0))
	if executor == nil {
		return rt.ThrowError(types.ObjTypeTypeError, "Promise resolver %s is not a function", types.Arg(args, 0).String())
	}

	p := NewPromise(rt)
	resolve, reject := resolvingFunctions(rt, p)
	r := rt.Call(executor, types.Undefined, []types.Value{resolve, reject})
	if r.IsError() {
		rt.ClearException()
		if rr := rt.Call(reject, types.Undefined, []types.Value{r.Val}); rr.IsError() {
			return rr
		}
	}
	return types.Ok(p)
}

// resolvingFunctions creates the resolve/reject pair handed to executors.
// Only the first call of either has any effect.
func resolvingFunctions(rt types.Runtime, p *types.Object) (resolve, reject *types.Object) {
	done := false
	resolve = rt.NewFunction("", 1, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		if done {
			return types.Ok(types.Undefined)
		}
		done = true
		return ResolvePromise(rt, p, types.Arg(args, 0))
	})
	reject = rt.NewFunction("", 1, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		if done {
			return types.Ok(types.Undefined)
		}
		done = true
		RejectPromise(rt, p, types.Arg(args, 0))
		return types.Ok(types.Undefined)
	})
	return resolve, reject
}

// ResolvePromise resolves p with v, adopting the state of thenables
func ResolvePromise(rt types.Runtime, p *types.Object, v types.Value) types.Result {
	if v == types.Value(p) {
		e := NewError(rt, types.ObjTypeTypeError, "Chaining cycle detected for promise")
		RejectPromise(rt, p, e)
		return types.Ok(types.Undefined)
	}

	o, ok := v.(*types.Object)
	if !ok {
		fulfill(rt, p, v)
		return types.Ok(types.Undefined)
	}
	then := callable(o.Get("then"))
	if then == nil {
		fulfill(rt, p, v)
		return types.Ok(types.Undefined)
	}

	job := rt.NewFunction("", 0, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		resolve, reject := resolvingFunctions(rt, p)
		r := rt.Call(then, o, []types.Value{resolve, reject})
		if r.IsError() {
			rt.ClearException()
			return rt.Call(reject, types.Undefined, []types.Value{r.Val})
		}
		return types.Ok(types.Undefined)
	})
	return rt.EnqueueJob(job, nil)
}

func fulfill(rt types.Runtime, p *types.Object, v types.Value) {
	pd := promiseOf(p)
	if pd == nil || pd.state != PromisePending {
		return
	}
	pd.state, pd.value = PromiseFulfilled, v
	trigger(rt, pd)
}

// RejectPromise rejects p. A rejection nobody handles is reported to the
// runtime for unhandled-rejection tracking.
func RejectPromise(rt types.Runtime, p *types.Object, reason types.Value) {
	pd := promiseOf(p)
	if pd == nil || pd.state != PromisePending {
		return
	}
	pd.state, pd.value = PromiseRejected, reason
	if !pd.handled {
		rt.TrackRejection(p)
	}
	trigger(rt, pd)
}

func trigger(rt types.Runtime, pd *promiseData) {
	reactions := pd.reactions
	pd.reactions = nil
	for _, re := range reactions {
		if re.rejected == (pd.state == PromiseRejected) {
			enqueueReaction(rt, re, pd.value)
		}
	}
}

// enqueueReaction schedules a handler as a promise job
func enqueueReaction(rt types.Runtime, re reaction, value types.Value) {
	job := rt.NewFunction("", 1, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		arg := types.Arg(args, 0)
		if re.handler == nil {
			if re.rejected {
				RejectPromise(rt, re.derived, arg)
				return types.Ok(types.Undefined)
			}
			return ResolvePromise(rt, re.derived, arg)
		}
		r := rt.Call(re.handler, types.Undefined, []types.Value{arg})
		if r.IsError() {
			rt.ClearException()
			RejectPromise(rt, re.derived, r.Val)
			return types.Ok(types.Undefined)
		}
		return ResolvePromise(rt, re.derived, r.Val)
	})
	rt.EnqueueJob(job, []types.Value{value})
}

// Then registers reactions on p and returns the derived promise
func Then(rt types.Runtime, p *types.Object, onFulfilled, onRejected *types.Object) *types.Object {
	pd := promiseOf(p)
	derived := NewPromise(rt)

	fulfilled := reaction{handler: onFulfilled, derived: derived}
	rejected := reaction{rejected: true, handler: onRejected, derived: derived}

	switch pd.state {
	case PromisePending:
		pd.reactions = append(pd.reactions, fulfilled, rejected)
	case PromiseFulfilled:
		enqueueReaction(rt, fulfilled, pd.value)
	case PromiseRejected:
		if !pd.handled {
			rt.UntrackRejection(p)
		}
		enqueueReaction(rt, rejected, pd.value)
	}
	pd.handled = true
	return derived
}

func thisPromise(rt types.Runtime, this types.Value, method string) (*types.Object, types.Result) {
	if promiseOf(this) == nil {
		return nil, rt.ThrowError(types.ObjTypeTypeError, "Promise.prototype.%s called on incompatible receiver", method)
	}
	return this.(*types.Object), types.Ok(nil)
}

// builtinPromiseThen implements p.then(onFulfilled, onRejected)
func builtinPromiseThen(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	p, r := thisPromise(rt, this, "then")
	if r.IsError() {
		return r
	}
	return types.Ok(Then(rt, p, callable(types.Arg(args, 0)), callable(types.Arg(args, 1))))
}

// builtinPromiseCatch implements p.catch(onRejected)
func builtinPromiseCatch(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	p, r := thisPromise(rt, this, "catch")
	if r.IsError() {
		return r
	}
	return types.Ok(Then(rt, p, nil, callable(types.Arg(args, 0))))
}

// builtinPromiseFinally implements p.finally(onFinally)
func builtinPromiseFinally(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	p, r := thisPromise(rt, this, "finally")
	if r.IsError() {
		return r
	}
	onFinally := callable(types.Arg(args, 0))
	if onFinally == nil {
		return types.Ok(Then(rt, p, nil, nil))
	}

	passValue := rt.NewFunction("", 1, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		if r := rt.Call(onFinally, types.Undefined, nil); r.IsError() {
			return r
		}
		return types.Ok(types.Arg(args, 0))
	})
	passReason := rt.NewFunction("", 1, func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		if r := rt.Call(onFinally, types.Undefined, nil); r.IsError() {
			return r
		}
		return rt.Throw(types.Arg(args, 0))
	})
	return types.Ok(Then(rt, p, passValue, passReason))
}

// builtinPromiseResolve implements Promise.resolve(v)
func builtinPromiseResolve(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	v := types.Arg(args, 0)
	if promiseOf(v) != nil {
		return types.Ok(v)
	}
	p := NewPromise(rt)
	if r := ResolvePromise(rt, p, v); r.IsError() {
		return r
	}
	return types.Ok(p)
}

// builtinPromiseReject implements Promise.reject(reason)
func builtinPromiseReject(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	p := NewPromise(rt)
	RejectPromise(rt, p, types.Arg(args, 0))
	return types.Ok(p)
}
