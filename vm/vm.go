package vm

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"

	"ember/arena"
	"ember/builtins"
	"ember/trace"
	"ember/types"
)

// VM is one instance of the scripting virtual machine. Instances are cheap
// to create from a shared runtime state and cheaper still to clone; every
// instance owns an arena that Destroy releases at once.
//
// A VM is not safe for concurrent use. Host entry points are guarded so a
// re-entrant or concurrent call fails with ErrBusy instead of corrupting
// state.
type VM struct {
	id       uuid.UUID
	idString string
	opts     Options
	logger   *slog.Logger
	tracer   *trace.Tracer
	rt       *Runtime

	mu        sync.Mutex
	busy      bool
	destroyed bool

	arena  *arena.Arena
	shared *builtins.Shared
	realm  *types.Realm
	global *types.Object

	globals []types.Value // global scope, indexed by Scope slots
	scope   *Scope

	main    *Lambda
	modules map[string]*Module
	exports map[string]types.Value // per-instance module values

	base      *Frame // frame 0, permanent
	top       *Frame
	active    *Frame
	stackSize int
	depth     int

	exception   types.Value
	outOfMemory bool // set by allocations that cannot fail in place

	events     *arena.Table[*Event]
	posted     arena.Queue
	jobs       *arena.Table[*Event]
	promises   arena.Queue
	rejections []*types.Object

	exitHook types.Value
}

// Create builds a VM. Unless opts.Shared is set a fresh shared runtime
// state is built. Hooks run in a fixed order: builtin module preinits,
// addon preinits, global state wiring, builtin module inits, addon inits.
// A failing hook aborts creation.
func Create(opts Options) (*VM, error) {
	opts.normalize()

	shared := opts.Shared
	if shared == nil {
		s, err := builtins.NewShared()
		if err != nil {
			return nil, fmt.Errorf("building shared state: %w", err)
		}
		shared = s
	} else {
		shared.Retain()
	}

	vm := newVM(opts, shared)
	if err := vm.preinit(); err != nil {
		vm.release()
		return nil, err
	}
	shared.Seal()

	vm.initGlobals()
	vm.scope = newScope()
	if err := vm.growGlobals(vm.scope.Len()); err != nil {
		vm.release()
		return nil, err
	}
	if err := vm.init(); err != nil {
		vm.release()
		return nil, err
	}

	vm.logger.Debug("vm created", "types", shared.Len(), "shared_refs", shared.Refs())
	return vm, nil
}

// newVM allocates the instance record and its arena-owned tables
func newVM(opts Options, shared *builtins.Shared) *VM {
	id := uuid.New()
	vm := &VM{
		id:       id,
		idString: id.String(),
		opts:     opts,
		logger:   opts.Logger.With("vm", id.String()),
		tracer:   opts.Tracer,
		arena:    arena.New(opts.MemoryLimit),
		shared:   shared,
		modules:  make(map[string]*Module),
		exports:  make(map[string]types.Value),
	}
	vm.rt = &Runtime{vm: vm}
	vm.events = arena.NewTable[*Event](vm.arena)
	vm.jobs = arena.NewTable[*Event](vm.arena)

	vm.base = &Frame{Name: "main", This: types.Undefined}
	vm.top = vm.base
	vm.active = vm.base
	return vm
}

// Clone creates a VM that shares this one's runtime state and compiled
// code but has its own globals, prototypes, queues and exception slot.
// Builtin module and addon Init hooks run again for the clone; preinit
// hooks do not.
func (vm *VM) Clone(external any) (*VM, error) {
	if err := vm.enter(); err != nil {
		return nil, err
	}
	defer vm.leave()

	if vm.opts.Interactive {
		return nil, ErrInteractive
	}

	opts := vm.opts
	opts.Shared = vm.shared
	opts.External = external
	vm.shared.Retain()

	clone := newVM(opts, vm.shared)
	clone.initGlobals()
	clone.scope = vm.scope.clone()
	clone.main = vm.main
	clone.modules = maps.Clone(vm.modules)
	if err := clone.growGlobals(clone.scope.Len()); err != nil {
		clone.release()
		return nil, err
	}
	if err := clone.init(); err != nil {
		clone.release()
		return nil, err
	}

	clone.logger.Debug("vm cloned", "parent", vm.idString, "globals", len(clone.globals))
	return clone, nil
}

// Destroy runs the exit hook, releases every registered event through its
// destructor, drops the shared state reference and destroys the arena.
// The VM is unusable afterwards.
func (vm *VM) Destroy() error {
	if err := vm.enter(); err != nil {
		return err
	}

	if hook := vm.exitHook; hook != nil {
		vm.exitHook = nil
		if r := vm.call(hook, types.Undefined, nil, false); r.IsError() {
			vm.logger.Debug("exit hook failed", "error", vm.valueString(r.Val))
		}
	}

	vm.events.Each(func(_ arena.Handle, ev *Event) bool {
		ev.release()
		return true
	})
	peak := vm.arena.Peak()
	vm.release()

	vm.mu.Lock()
	vm.destroyed = true
	vm.busy = false
	vm.mu.Unlock()

	vm.logger.Debug("vm destroyed", "arena_peak", peak)
	return nil
}

// release drops the shared state reference and everything the arena owns
func (vm *VM) release() {
	vm.shared.Release()
	vm.posted.Reset()
	vm.promises.Reset()
	vm.rejections = nil
	vm.arena.Destroy()
}

// enter marks the VM busy for the duration of a host entry point
func (vm *VM) enter() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.destroyed {
		return ErrDestroyed
	}
	if vm.busy {
		return ErrBusy
	}
	vm.busy = true
	return nil
}

// leave clears the busy mark set by enter
func (vm *VM) leave() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.busy = false
}

// preinit runs the builtin module and addon preinit hooks
func (vm *VM) preinit() error {
	for _, m := range builtins.Modules() {
		if m.Preinit == nil {
			continue
		}
		if err := m.Preinit(vm.shared); err != nil {
			return hookError(m.Name, "preinit", err)
		}
	}
	for _, a := range vm.opts.Addons {
		if a.Preinit == nil {
			continue
		}
		if err := a.Preinit(vm); err != nil {
			return hookError(a.Name, "preinit", err)
		}
	}
	return nil
}

// init runs the builtin module and addon init hooks
func (vm *VM) init() error {
	for _, m := range builtins.Modules() {
		if m.Init == nil {
			continue
		}
		if err := m.Init(vm.rt); err != nil {
			return hookError(m.Name, "init", err)
		}
	}
	for _, a := range vm.opts.Addons {
		if a.Init == nil {
			continue
		}
		if err := a.Init(vm); err != nil {
			return hookError(a.Name, "init", err)
		}
	}
	return nil
}

func hookError(name, stage string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrAddon, name, stage, err)
}

// ID returns the instance id
func (vm *VM) ID() string {
	return vm.idString
}

// Arena returns the memory owner of this instance
func (vm *VM) Arena() *arena.Arena {
	return vm.arena
}

// Shared returns the shared runtime state this instance references
func (vm *VM) Shared() *builtins.Shared {
	return vm.shared
}

// Runtime returns the view of this instance handed to native functions
func (vm *VM) Runtime() *Runtime {
	return vm.rt
}

// Logger returns the instance logger
func (vm *VM) Logger() *slog.Logger {
	return vm.logger
}

// Interactive reports whether the VM was created for incremental use
func (vm *VM) Interactive() bool {
	return vm.opts.Interactive
}

// External returns the host context given at creation or clone time
func (vm *VM) External() any {
	return vm.opts.External
}

// Meta returns the i-th host key/value pair
func (vm *VM) Meta(i int) (Meta, bool) {
	if i < 0 || i >= len(vm.opts.Metas) {
		return Meta{}, false
	}
	return vm.opts.Metas[i], true
}

// SetExitHook registers fn to run, without arguments, when the VM is
// destroyed. A later registration replaces an earlier one.
func (vm *VM) SetExitHook(fn types.Value) {
	vm.exitHook = fn
}

// Proto returns this instance's prototype of builtin type t
func (vm *VM) Proto(t types.ObjType) *types.Object {
	return vm.realm.Proto(t)
}

// Ctor returns this instance's constructor of builtin type t
func (vm *VM) Ctor(t types.ObjType) *types.Object {
	return vm.realm.Ctor(t)
}
