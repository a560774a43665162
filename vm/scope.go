package vm

import (
	"maps"

	"ember/types"
)

// Reserved global scope slots
const (
	slotGlobalThis = 0
	slotUndefined  = 1
	reservedSlots  = 2
)

// Scope is the compile-time table of top-level script bindings. Every
// script compiled into a VM extends it and slot numbers index the global
// scope value array, so the table only ever grows.
type Scope struct {
	names  map[string]int
	consts map[string]bool
}

// newScope creates a scope holding only the reserved slots
func newScope() *Scope {
	return &Scope{
		names: map[string]int{
			"globalThis": slotGlobalThis,
			"undefined":  slotUndefined,
		},
		consts: map[string]bool{},
	}
}

// clone copies the scope so a failed compilation leaves the original intact
func (s *Scope) clone() *Scope {
	return &Scope{
		names:  maps.Clone(s.names),
		consts: maps.Clone(s.consts),
	}
}

// Len returns the number of global slots
func (s *Scope) Len() int {
	return len(s.names)
}

// Lookup returns the slot of a top-level binding
func (s *Scope) Lookup(name string) (int, bool) {
	slot, ok := s.names[name]
	return slot, ok
}

// declare returns the slot of name, adding it when new
func (s *Scope) declare(name string, constant bool) int {
	slot, ok := s.names[name]
	if !ok {
		slot = len(s.names)
		s.names[name] = slot
	}
	if constant {
		s.consts[name] = true
	}
	return slot
}

// isConst reports whether name was declared const
func (s *Scope) isConst(name string) bool {
	return s.consts[name]
}

// Env is one level of the runtime scope chain: the locals of a single
// function activation, linked to the scope the function was created in
type Env struct {
	vars   []types.Value
	parent *Env
}

// newEnv allocates an environment of n undefined slots
func newEnv(n int, parent *Env) *Env {
	e := &Env{vars: make([]types.Value, n), parent: parent}
	for i := range e.vars {
		e.vars[i] = types.Undefined
	}
	return e
}

// up walks depth levels up the chain
func (e *Env) up(depth int) *Env {
	for ; depth > 0; depth-- {
		e = e.parent
	}
	return e
}
