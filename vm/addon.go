package vm

import (
	"ember/builtins"
	"ember/types"
)

// Addon extends every VM created with it. Preinit runs before the shared
// state is sealed and may push new types; it runs again, harmlessly, when
// the shared state is reused. Init runs once per instance, clones
// included, and binds globals or registers modules.
type Addon struct {
	Name    string
	Preinit func(vm *VM) error
	Init    func(vm *VM) error
}

// PushType adds a constructor/prototype pair to the shared state and
// returns its index. Pushing a known name returns the existing index.
func (vm *VM) PushType(spec builtins.TypeSpec) (types.ObjType, error) {
	return vm.shared.Push(spec)
}

// LookupType returns the index of a pushed type by name
func (vm *VM) LookupType(name string) (types.ObjType, bool) {
	return vm.shared.Lookup(name)
}
