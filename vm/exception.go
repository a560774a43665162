package vm

import (
	"fmt"

	"ember/builtins"
	"ember/types"
)

// MemoryErrorValue is the preallocated value thrown when an allocation
// exceeds the arena budget. Hosts compare against it by identity.
var MemoryErrorValue types.Value = types.MemoryError

// throw records v as the pending exception and starts unwinding
func (vm *VM) throw(v types.Value) types.Result {
	if v == nil {
		v = types.Undefined
	}
	vm.exception = v
	return types.Thrown(v)
}

// throwError allocates an error of the given kind and throws it. If the
// error itself cannot be allocated MemoryError is thrown instead.
func (vm *VM) throwError(kind types.ObjType, format string, args ...any) types.Result {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return vm.throw(builtins.NewError(vm.rt, kind, msg))
}

// throwMemory throws the preallocated MemoryError without allocating
func (vm *VM) throwMemory() types.Result {
	return vm.throw(types.MemoryError)
}

// hostError converts an exception that reached a host entry point. The
// value stays in the exception slot for Exception and ExceptionString.
func (vm *VM) hostError(v types.Value) error {
	if types.IsMemoryError(v) {
		vm.exception = v
		return &Error{Kind: KindMemory, Message: "MemoryError", Value: v}
	}
	msg := vm.valueString(v)
	vm.exception = v
	return &Error{Kind: KindRuntime, Message: msg, Value: v}
}

// Exception returns the pending exception and clears the slot
func (vm *VM) Exception() (types.Value, bool) {
	v := vm.exception
	vm.exception = nil
	return v, v != nil
}

// PeekException returns the pending exception without clearing it
func (vm *VM) PeekException() (types.Value, bool) {
	return vm.exception, vm.exception != nil
}

// ExceptionString renders the pending exception, including the backtrace
// captured when it was created, and clears the slot. Conversion may run
// script code; if that throws, the new exception is rendered once more and
// an empty string is returned when that fails too.
func (vm *VM) ExceptionString() string {
	v, ok := vm.Exception()
	if !ok {
		return ""
	}
	if types.IsMemoryError(v) {
		return "MemoryError"
	}
	for attempt := 0; attempt < 2; attempt++ {
		if o, ok := v.(*types.Object); ok && o.Kind.IsError() {
			if s, ok := o.Get("stack").(types.StrValue); ok {
				return s.Value()
			}
		}
		s, r := vm.toString(v)
		if !r.IsError() {
			return s
		}
		v = r.Val
		vm.exception = nil
	}
	return ""
}
