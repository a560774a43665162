package vm

import (
	"fmt"

	"ember/types"
)

// Runtime is the view of a VM handed to native functions and builtin
// module Init hooks. It calls into the VM without the host entry guard,
// since natives always run inside a guarded entry point.
type Runtime struct {
	vm *VM
}

// VM returns the instance behind the runtime
func (rt *Runtime) VM() *VM { return rt.vm }

func (rt *Runtime) Proto(t types.ObjType) *types.Object { return rt.vm.Proto(t) }
func (rt *Runtime) Ctor(t types.ObjType) *types.Object  { return rt.vm.Ctor(t) }
func (rt *Runtime) Global() *types.Object               { return rt.vm.global }

func (rt *Runtime) Call(fn types.Value, this types.Value, args []types.Value) types.Result {
	return rt.vm.call(fn, this, args, false)
}

func (rt *Runtime) Construct(fn types.Value, args []types.Value) types.Result {
	return rt.vm.construct(fn, args)
}

// IsConstructor reports whether the innermost frame was entered through new
func (rt *Runtime) IsConstructor() bool {
	return rt.vm.top != nil && rt.vm.top.Ctor
}

func (rt *Runtime) Throw(v types.Value) types.Result {
	return rt.vm.throw(v)
}

func (rt *Runtime) ThrowError(kind types.ObjType, format string, args ...any) types.Result {
	return rt.vm.throwError(kind, format, args...)
}

func (rt *Runtime) ClearException() {
	rt.vm.exception = nil
}

func (rt *Runtime) ToString(v types.Value) (string, types.Result) {
	return rt.vm.toString(v)
}

func (rt *Runtime) SetProperty(o types.Value, key string, v types.Value) types.Result {
	return rt.vm.setProp(o, key, v)
}

func (rt *Runtime) NewObject() *types.Object { return rt.vm.newObject() }

func (rt *Runtime) NewArray(items []types.Value) *types.Object {
	return rt.vm.newArray(items)
}

func (rt *Runtime) NewFunction(name string, length int, fn types.NativeFunc) *types.Object {
	return rt.vm.newFunction(name, length, fn)
}

// EnqueueJob appends a promise job to the instance's job queue
func (rt *Runtime) EnqueueJob(fn types.Value, args []types.Value) types.Result {
	return rt.vm.enqueueJob(fn, args)
}

func (rt *Runtime) TrackRejection(p *types.Object)   { rt.vm.trackRejection(p) }
func (rt *Runtime) UntrackRejection(p *types.Object) { rt.vm.untrackRejection(p) }

func (rt *Runtime) Alloc(n int64) error { return rt.vm.arena.Alloc(n) }
func (rt *Runtime) Backtrace() string   { return rt.vm.backtrace() }

func (rt *Runtime) SetExitHook(fn types.Value) { rt.vm.SetExitHook(fn) }
func (rt *Runtime) External() any              { return rt.vm.opts.External }

// Bind defines a global binding visible to every script of the instance
func (rt *Runtime) Bind(name string, v types.Value) error {
	return rt.vm.Bind(name, v)
}

// newObject allocates a plain object. The native interface cannot fail
// here, so an exhausted budget is recorded and raised as MemoryError when
// the running native returns.
func (vm *VM) newObject() *types.Object {
	vm.charge(types.ObjectSize)
	return types.NewObject(vm.Proto(types.ObjTypeObject))
}

func (vm *VM) newArray(items []types.Value) *types.Object {
	vm.charge(types.ObjectSize + int64(len(items))*frameSlotSize)
	return types.NewArray(vm.Proto(types.ObjTypeArray), items)
}

func (vm *VM) newFunction(name string, length int, fn types.NativeFunc) *types.Object {
	vm.charge(types.ObjectSize)
	return types.NewFunctionObject(vm.Proto(types.ObjTypeFunction), &types.Function{
		Name:   name,
		Length: length,
		Native: fn,
	})
}

// charge allocates n bytes, marking the instance out of memory on failure
func (vm *VM) charge(n int64) {
	if err := vm.arena.Alloc(n); err != nil {
		vm.outOfMemory = true
	}
}

// valueString renders v for logs and host messages. Conversion errors fall
// back to the plain rendering.
func (vm *VM) valueString(v types.Value) string {
	if v == nil {
		return "undefined"
	}
	if o, ok := v.(*types.Object); ok && o.Kind.IsError() {
		if s, ok := o.Get("stack").(types.StrValue); ok {
			return s.Value()
		}
	}
	s, r := vm.toString(v)
	if r.IsError() {
		vm.exception = nil
		return fmt.Sprint(v)
	}
	return s
}
