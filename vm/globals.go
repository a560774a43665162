package vm

import (
	"strings"

	"ember/types"
)

// initGlobals derives this instance's constructor and prototype tables
// from the shared state and builds the global object over them
func (vm *VM) initGlobals() {
	vm.realm = vm.shared.NewRealm()
	for t := 0; t < vm.realm.Len(); t++ {
		ctor, proto := vm.realm.Ctor(types.ObjType(t)), vm.realm.Proto(types.ObjType(t))
		ctor.Define("prototype", proto, false)
		proto.Define("constructor", ctor, false)
	}

	vm.global = vm.realm.Adopt(vm.shared.Global())
	for t := types.ObjType(0); t < types.ObjTypeMax; t++ {
		vm.global.Define(t.String(), vm.realm.Ctor(t), false)
	}
	vm.global.Define("globalThis", vm.global, false)
	vm.base.This = vm.global
}

// growGlobals extends the global scope array to n slots. Existing values
// are copied into the new array and globalThis is published again in slot
// 0, so code holding the old array never observes a partial state.
func (vm *VM) growGlobals(n int) error {
	if n <= len(vm.globals) {
		return nil
	}
	if err := vm.arena.Alloc(int64(n-len(vm.globals)) * frameSlotSize); err != nil {
		return &Error{Kind: KindMemory, Message: "MemoryError", Value: types.MemoryError}
	}

	grown := make([]types.Value, n)
	copy(grown, vm.globals)
	for i := len(vm.globals); i < n; i++ {
		grown[i] = types.Undefined
	}
	grown[slotGlobalThis] = vm.global
	grown[slotUndefined] = types.Undefined
	vm.globals = grown
	return nil
}

// Global returns the global object of the instance
func (vm *VM) Global() *types.Object {
	return vm.global
}

// Bind defines a global binding. A top-level script binding of the same
// name is updated as well, so compiled code and later scripts agree.
func (vm *VM) Bind(name string, v types.Value) error {
	if vm.destroyed {
		return ErrDestroyed
	}
	if v == nil {
		v = types.Undefined
	}
	if slot, ok := vm.scope.Lookup(name); ok && slot >= reservedSlots && slot < len(vm.globals) {
		vm.globals[slot] = v
	}
	vm.global.Define(name, v, false)
	return nil
}

// Binding returns the value of a global name: a top-level script binding
// first, then a property of the global object
func (vm *VM) Binding(name string) (types.Value, bool) {
	if slot, ok := vm.scope.Lookup(name); ok && slot < len(vm.globals) {
		return vm.globals[slot], true
	}
	return vm.global.Lookup(name)
}

// Value resolves a dotted path such as "config.limits.max" starting at the
// global scope. Only plain properties are followed; no getters or
// conversions run.
func (vm *VM) Value(path string) (types.Value, bool) {
	parts := strings.Split(path, ".")
	v, ok := vm.Binding(parts[0])
	if !ok {
		return nil, false
	}
	for _, key := range parts[1:] {
		o, isObj := v.(*types.Object)
		if !isObj {
			return nil, false
		}
		if o.Kind == types.ObjTypeArray {
			v = vm.objectGet(o, key)
			continue
		}
		if v, ok = o.Lookup(key); !ok {
			return nil, false
		}
	}
	return v, true
}
