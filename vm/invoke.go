package vm

import (
	"ember/types"
)

// Call invokes fn with this and args and discards the result
func (vm *VM) Call(fn types.Value, this types.Value, args []types.Value) error {
	_, err := vm.Invoke(fn, this, args)
	return err
}

// Invoke invokes fn with this and args and returns the result. A nil this
// binds undefined. An exception that escapes fn is left in the exception
// slot and returned as an *Error.
func (vm *VM) Invoke(fn types.Value, this types.Value, args []types.Value) (types.Value, error) {
	if err := vm.enter(); err != nil {
		return nil, err
	}
	defer vm.leave()

	if this == nil {
		this = types.Undefined
	}
	r := vm.call(fn, this, args, false)
	if r.IsError() {
		return nil, vm.hostError(r.Val)
	}
	return r.Value(), nil
}

// call invokes fn in a new frame bound to this
func (vm *VM) call(fn types.Value, this types.Value, args []types.Value, ctor bool) types.Result {
	o, ok := fn.(*types.Object)
	if !ok || !o.IsCallable() {
		return vm.throwError(types.ObjTypeTypeError, "%s is not a function", describe(fn))
	}
	if o.Func.Native != nil {
		return vm.callNative(o, this, args, ctor)
	}
	lam, ok := o.Func.Lambda.(*Lambda)
	if !ok {
		return vm.throwError(types.ObjTypeInternalError, "function %s has no code", o.Func.Name)
	}
	return vm.callLambda(o, lam, this, args, ctor)
}

// callNative runs a Go function in a native frame
func (vm *VM) callNative(o *types.Object, this types.Value, args []types.Value, ctor bool) types.Result {
	f := &Frame{
		Native:   true,
		Ctor:     ctor,
		Function: o,
		Name:     o.Func.Name,
		This:     this,
		Size:     frameSize(len(args), 0),
	}
	if r := vm.pushFrame(f); r.IsError() {
		return r
	}
	defer vm.popFrame(f)

	vm.traceCall(f, args)
	r := o.Func.Native(vm.rt, this, args)
	if vm.outOfMemory {
		vm.outOfMemory = false
		if !r.IsError() {
			r = vm.throwMemory()
		}
	}
	vm.traceResult(f, r)
	return r
}

// callLambda runs a script function in an interpreted frame
func (vm *VM) callLambda(o *types.Object, lam *Lambda, this types.Value, args []types.Value, ctor bool) types.Result {
	parent, _ := o.Func.Env.(*Env)
	env := newEnv(lam.NumLocals, parent)
	copy(env.vars, args[:min(len(args), lam.NumParams)])
	if lam.Arrow {
		this = o.Func.This
	}

	f := &Frame{
		Ctor:     ctor,
		Function: o,
		Lambda:   lam,
		Name:     lam.Name,
		This:     this,
		Env:      env,
		Size:     frameSize(len(args), lam.NumLocals),
	}
	if r := vm.pushFrame(f); r.IsError() {
		return r
	}
	defer vm.popFrame(f)

	vm.traceCall(f, args)
	r := vm.execute(f)
	vm.traceResult(f, r)
	return r
}

// construct implements new fn(args). Natives build their own result;
// script functions receive a fresh object inheriting fn.prototype and may
// replace it by returning an object.
func (vm *VM) construct(fn types.Value, args []types.Value) types.Result {
	o, ok := fn.(*types.Object)
	if !ok || !o.IsCallable() || !o.Func.Ctor {
		return vm.throwError(types.ObjTypeTypeError, "%s is not a constructor", describe(fn))
	}
	if o.Func.Native != nil {
		return vm.callNative(o, types.Undefined, args, true)
	}
	lam, ok := o.Func.Lambda.(*Lambda)
	if !ok || lam.Arrow {
		return vm.throwError(types.ObjTypeTypeError, "%s is not a constructor", describe(fn))
	}

	proto, ok := vm.objectGet(o, "prototype").(*types.Object)
	if !ok {
		proto = vm.Proto(types.ObjTypeObject)
	}
	if err := vm.arena.Alloc(types.ObjectSize); err != nil {
		return vm.throwMemory()
	}
	this := types.NewObject(proto)

	r := vm.callLambda(o, lam, this, args, true)
	if r.IsError() {
		return r
	}
	if obj, ok := r.Value().(*types.Object); ok {
		return types.Ok(obj)
	}
	return types.Ok(this)
}

// traceCall reports a call to the tracer
func (vm *VM) traceCall(f *Frame, args []types.Value) {
	if vm.tracer.IsEnabled() {
		vm.tracer.Call(vm.idString, f.Name, f.This, args, vm.depth)
	}
}

// traceResult reports a return or an escaping exception to the tracer
func (vm *VM) traceResult(f *Frame, r types.Result) {
	if !vm.tracer.IsEnabled() {
		return
	}
	if r.IsError() {
		vm.tracer.Exception(vm.idString, f.Name, r.Val, vm.depth)
		return
	}
	vm.tracer.Return(vm.idString, f.Name, r.Value(), vm.depth)
}
