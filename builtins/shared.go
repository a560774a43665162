package builtins

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"ember/types"
)

// ErrSealed is returned when a new type is pushed into shared state that is
// already referenced by running instances
var ErrSealed = errors.New("shared runtime state is sealed")

// Method describes one native function property
type Method struct {
	Name   string
	Length int
	Fn     types.NativeFunc
}

// Prop describes one non-function property
type Prop struct {
	Name  string
	Value types.Value
}

// TypeSpec describes a constructor/prototype pair
type TypeSpec struct {
	Name      string
	Parent    types.ObjType // prototype of the prototype, -1 for none
	ProtoKind types.ObjType // Kind of the prototype object
	Ctor      types.NativeFunc
	Length    int
	Static    []Method
	Methods   []Method
	Props     []Prop
}

// Shared is the build-once table of builtin constructors and prototypes.
// After Seal it is never written again and may be referenced by any number
// of VM instances, each of which copies it into a types.Realm.
type Shared struct {
	mu     sync.Mutex
	ctors  []*types.Object
	protos []*types.Object
	names  map[string]types.ObjType
	global *types.Object
	sealed bool
	refs   atomic.Int32
}

// NewShared builds every builtin constructor, prototype and global. The
// caller holds the first reference.
func NewShared() (*Shared, error) {
	s := &Shared{names: make(map[string]types.ObjType)}

	for i, spec := range builtinSpecs() {
		t, err := s.Push(spec)
		if err != nil {
			return nil, err
		}
		if t != types.ObjType(i) {
			return nil, fmt.Errorf("builtin %s registered at %d, want %d", spec.Name, t, i)
		}
	}

	s.global = buildGlobal()
	s.refs.Store(1)
	return s, nil
}

// Push appends a constructor/prototype pair and returns its index. Pushing a
// name that is already present returns the existing index, so preinit hooks
// may run again against reused state.
func (s *Shared) Push(spec TypeSpec) (types.ObjType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.names[spec.Name]; ok {
		return t, nil
	}
	if s.sealed {
		return -1, fmt.Errorf("%w: cannot add %s", ErrSealed, spec.Name)
	}

	ctorFn := spec.Ctor
	if ctorFn == nil {
		name := spec.Name
		ctorFn = func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
			return rt.ThrowError(types.ObjTypeTypeError, "%s is not a constructor", name)
		}
	}

	ctor := newNative(spec.Name, spec.Length, ctorFn)
	ctor.Func.Ctor = spec.Ctor != nil
	for _, m := range spec.Static {
		ctor.Define(m.Name, newNative(m.Name, m.Length, m.Fn), false)
	}

	proto := &types.Object{Kind: spec.ProtoKind, ProtoIndex: int(spec.Parent)}
	for _, p := range spec.Props {
		proto.Define(p.Name, p.Value, false)
	}
	for _, m := range spec.Methods {
		proto.Define(m.Name, newNative(m.Name, m.Length, m.Fn), false)
	}

	t := types.ObjType(len(s.ctors))
	s.ctors = append(s.ctors, ctor)
	s.protos = append(s.protos, proto)
	s.names[spec.Name] = t
	return t, nil
}

// Seal freezes the state. Every object reachable from it is marked shared.
func (s *Shared) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return
	}
	for i := range s.ctors {
		s.ctors[i].Seal()
		s.protos[i].Seal()
	}
	s.global.Seal()
	s.sealed = true
}

// Sealed reports whether Seal has been called
func (s *Shared) Sealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}

// Len returns the number of constructor/prototype pairs
func (s *Shared) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ctors)
}

// Lookup returns the index of a pushed type by name
func (s *Shared) Lookup(name string) (types.ObjType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.names[name]
	return t, ok
}

// Name returns the constructor name at index t
func (s *Shared) Name(t types.ObjType) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(t) < 0 || int(t) >= len(s.ctors) {
		return ""
	}
	return s.ctors[t].Func.Name
}

// NewRealm copies the tables into fresh per-instance state
func (s *Shared) NewRealm() *types.Realm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.NewRealm(s.ctors, s.protos)
}

// Global returns the shared template of the global object
func (s *Shared) Global() *types.Object {
	return s.global
}

// Retain adds a reference held by a VM instance
func (s *Shared) Retain() {
	s.refs.Add(1)
}

// Release drops a reference and returns the number remaining. The state
// must not be handed to new instances once this reaches zero.
func (s *Shared) Release() int {
	n := s.refs.Add(-1)
	if n < 0 {
		s.refs.Store(0)
		return 0
	}
	return int(n)
}

// Refs returns the number of live references
func (s *Shared) Refs() int {
	return int(s.refs.Load())
}
