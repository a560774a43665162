package vm

import (
	"errors"
	"testing"

	"ember/builtins"
	"ember/types"
)

// newTestVM creates a VM destroyed at the end of the test
func newTestVM(t *testing.T, opts Options) *VM {
	t.Helper()
	vm, err := Create(opts)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { vm.Destroy() })
	return vm
}

// eval compiles and starts src, failing the test on any error
func eval(t *testing.T, vm *VM, src string) types.Value {
	t.Helper()
	if _, err := vm.Compile([]byte(src)); err != nil {
		t.Fatalf("Compile(%q) failed: %v", src, err)
	}
	v, err := vm.Start()
	if err != nil {
		t.Fatalf("Start(%q) failed: %v", src, err)
	}
	return v
}

// native binds a Go function as a global of vm
func native(t *testing.T, vm *VM, name string, fn types.NativeFunc) {
	t.Helper()
	if err := vm.Bind(name, vm.Runtime().NewFunction(name, 0, fn)); err != nil {
		t.Fatalf("Bind(%s) failed: %v", name, err)
	}
}

func TestCreateDestroy(t *testing.T) {
	vm, err := Create(DefaultOptions())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if vm.ID() == "" {
		t.Error("VM has no id")
	}
	if err := vm.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if !vm.Arena().Destroyed() {
		t.Error("arena survived Destroy")
	}

	if err := vm.Destroy(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("second Destroy = %v, want ErrDestroyed", err)
	}
	if _, err := vm.Compile([]byte("1")); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Compile after Destroy = %v, want ErrDestroyed", err)
	}
	if _, err := vm.Start(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Start after Destroy = %v, want ErrDestroyed", err)
	}
	if _, err := vm.Clone(nil); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Clone after Destroy = %v, want ErrDestroyed", err)
	}
	if _, err := vm.Run(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Run after Destroy = %v, want ErrDestroyed", err)
	}
}

func TestStartWithoutCode(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	if _, err := vm.Start(); !errors.Is(err, ErrNoCode) {
		t.Errorf("Start = %v, want ErrNoCode", err)
	}
}

func TestCloneIsolation(t *testing.T) {
	parent := newTestVM(t, DefaultOptions())
	src := `var counter = 0;
function bump() { counter = counter + 1; return counter; }
function extend() { Array.prototype.extra = 1; }
function probe() { return typeof [].extra; }
bump();`
	if _, err := parent.Compile([]byte(src)); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	a, err := parent.Clone("a")
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer a.Destroy()
	b, err := parent.Clone("b")
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer b.Destroy()

	for _, c := range []*VM{a, b} {
		v, err := c.Start()
		if err != nil {
			t.Fatalf("clone Start failed: %v", err)
		}
		if v.String() != "1" {
			t.Errorf("clone bump() = %s, want 1", v)
		}
	}
	if a.External() != "a" || b.External() != "b" {
		t.Errorf("External = %v, %v", a.External(), b.External())
	}

	extend, _ := a.Binding("extend")
	if _, err := a.Invoke(extend, nil, nil); err != nil {
		t.Fatalf("extend failed: %v", err)
	}
	probe, _ := b.Binding("probe")
	v, err := b.Invoke(probe, nil, nil)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if v.String() != "undefined" {
		t.Errorf("prototype change leaked into sibling clone: typeof [].extra = %s", v)
	}

	if v, _ := parent.Binding("counter"); v != types.Undefined {
		t.Errorf("parent counter = %v, want undefined (never started)", v)
	}
}

func TestCloneInteractive(t *testing.T) {
	opts := DefaultOptions()
	opts.Interactive = true
	vm := newTestVM(t, opts)
	if _, err := vm.Clone(nil); !errors.Is(err, ErrInteractive) {
		t.Errorf("Clone = %v, want ErrInteractive", err)
	}
}

func TestSharedStateReferences(t *testing.T) {
	shared, err := builtins.NewShared()
	if err != nil {
		t.Fatalf("NewShared failed: %v", err)
	}

	opts := DefaultOptions()
	opts.Shared = shared
	vm, err := Create(opts)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !shared.Sealed() {
		t.Error("shared state not sealed after Create")
	}
	if got := shared.Refs(); got != 2 {
		t.Errorf("refs after Create = %d, want 2", got)
	}

	clone, err := vm.Clone(nil)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if got := shared.Refs(); got != 3 {
		t.Errorf("refs after Clone = %d, want 3", got)
	}

	clone.Destroy()
	vm.Destroy()
	if got := shared.Refs(); got != 1 {
		t.Errorf("refs after Destroy = %d, want 1", got)
	}
}

func TestAddonOrder(t *testing.T) {
	var order []string
	addon := func(name string) *Addon {
		return &Addon{
			Name: name,
			Preinit: func(vm *VM) error {
				order = append(order, name+".preinit")
				return nil
			},
			Init: func(vm *VM) error {
				if _, ok := vm.Binding("njs"); !ok {
					t.Errorf("%s init ran before builtin modules", name)
				}
				order = append(order, name+".init")
				return nil
			},
		}
	}

	opts := DefaultOptions()
	opts.Addons = []*Addon{addon("a"), addon("b")}
	vm := newTestVM(t, opts)

	want := []string{"a.preinit", "b.preinit", "a.init", "b.init"}
	if len(order) != len(want) {
		t.Fatalf("hooks = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("hooks = %v, want %v", order, want)
		}
	}

	order = nil
	clone, err := vm.Clone(nil)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	defer clone.Destroy()
	if len(order) != 2 || order[0] != "a.init" || order[1] != "b.init" {
		t.Errorf("clone hooks = %v, want [a.init b.init]", order)
	}
}

func TestAddonFailure(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		addon *Addon
	}{
		{"preinit", &Addon{Name: "bad", Preinit: func(*VM) error { return boom }}},
		{"init", &Addon{Name: "bad", Init: func(*VM) error { return boom }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Addons = []*Addon{tt.addon}
			_, err := Create(opts)
			if !errors.Is(err, ErrAddon) {
				t.Errorf("Create = %v, want ErrAddon", err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("Create = %v, want wrapped hook error", err)
			}
		})
	}
}

func TestAddonPushType(t *testing.T) {
	shared, err := builtins.NewShared()
	if err != nil {
		t.Fatalf("NewShared failed: %v", err)
	}
	defer shared.Release()

	var widget types.ObjType
	addon := &Addon{
		Name: "widget",
		Preinit: func(vm *VM) error {
			typ, err := vm.PushType(builtins.TypeSpec{
				Name:      "Widget",
				Parent:    types.ObjTypeObject,
				ProtoKind: types.ObjTypeObject,
				Methods: []builtins.Method{{Name: "size", Fn: func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
					return types.Ok(types.NewInt(3))
				}}},
			})
			widget = typ
			return err
		},
		Init: func(vm *VM) error {
			o := vm.Runtime().NewObject()
			o.Proto = vm.Proto(widget)
			return vm.Bind("widget", o)
		},
	}

	opts := DefaultOptions()
	opts.Shared = shared
	opts.Addons = []*Addon{addon}

	first := newTestVM(t, opts)
	if widget < types.ObjTypeMax {
		t.Fatalf("Widget pushed at %d, inside the builtin range", widget)
	}
	if v := eval(t, first, "widget.size()"); v.String() != "3" {
		t.Errorf("widget.size() = %s, want 3", v)
	}

	// reusing sealed shared state: the push resolves to the same index
	pushed := widget
	second := newTestVM(t, opts)
	if widget != pushed {
		t.Errorf("second preinit pushed %d, want %d", widget, pushed)
	}
	if got, ok := second.LookupType("Widget"); !ok || got != pushed {
		t.Errorf("LookupType = %d, %v", got, ok)
	}
}

func TestBusyGuard(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	var inner error
	native(t, vm, "reenter", func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		_, inner = rt.(*Runtime).VM().Start()
		return types.Ok(types.Undefined)
	})

	eval(t, vm, "reenter()")
	if !errors.Is(inner, ErrBusy) {
		t.Errorf("re-entrant Start = %v, want ErrBusy", inner)
	}
}

func TestExitHook(t *testing.T) {
	vm, err := Create(DefaultOptions())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	called := false
	native(t, vm, "mark", func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		called = true
		return types.Ok(types.Undefined)
	})
	eval(t, vm, `njs.on("exit", function() { mark(); });`)
	if called {
		t.Fatal("exit hook ran early")
	}
	if err := vm.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if !called {
		t.Error("exit hook did not run on Destroy")
	}
}

func TestMetaAndValue(t *testing.T) {
	opts := DefaultOptions()
	opts.Metas = []Meta{{Key: "region", Value: "eu"}}
	vm := newTestVM(t, opts)

	if m, ok := vm.Meta(0); !ok || m.Key != "region" || m.Value != "eu" {
		t.Errorf("Meta(0) = %v, %v", m, ok)
	}
	if _, ok := vm.Meta(1); ok {
		t.Error("Meta(1) should not exist")
	}

	eval(t, vm, "var cfg = { limits: { max: 5 }, list: [7, 8] };")
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"cfg.limits.max", "5", true},
		{"cfg.list.1", "8", true},
		{"cfg.list.length", "2", true},
		{"cfg.none.x", "", false},
		{"Math.PI", "3.141592653589793", true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, ok := vm.Value(tt.path)
			if ok != tt.ok {
				t.Fatalf("Value(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
			if ok && v.String() != tt.want {
				t.Errorf("Value(%q) = %s, want %s", tt.path, v, tt.want)
			}
		})
	}
}

func TestBindUpdatesDeclaredGlobal(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	eval(t, vm, "var limit = 1;")
	if err := vm.Bind("limit", types.NewInt(9)); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if _, err := vm.Compile([]byte("limit * 2")); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	v, err := vm.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if v.String() != "18" {
		t.Errorf("limit * 2 = %s, want 18", v)
	}
}

func TestCloneBuiltinOverrideStaysLocal(t *testing.T) {
	src := `function patch() { Array.prototype.join = function() { return 'patched'; }; }
function joined() { return [1, 2].join('-'); }`

	tests := []struct {
		name    string
		patched int // index into [parent, clone0, clone1, clone2]
	}{
		{"first clone", 1},
		{"last clone", 3},
		{"parent", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := newTestVM(t, DefaultOptions())
			eval(t, parent, src)

			vms := []*VM{parent}
			for i := 0; i < 3; i++ {
				c, err := parent.Clone(nil)
				if err != nil {
					t.Fatalf("Clone failed: %v", err)
				}
				defer c.Destroy()
				if _, err := c.Start(); err != nil {
					t.Fatalf("clone Start failed: %v", err)
				}
				vms = append(vms, c)
			}

			target := vms[tt.patched]
			if _, err := target.Invoke(function(t, target, "patch"), nil, nil); err != nil {
				t.Fatalf("patch failed: %v", err)
			}
			for i, v := range vms {
				want := "1-2"
				if i == tt.patched {
					want = "patched"
				}
				got, err := v.Invoke(function(t, v, "joined"), nil, nil)
				if err != nil {
					t.Fatalf("vm %d: joined failed: %v", i, err)
				}
				if got.String() != want {
					t.Errorf("vm %d: joined() = %s, want %s", i, got, want)
				}
			}
		})
	}
}

func TestGlobalThisAcrossCompiles(t *testing.T) {
	vm := newTestVM(t, DefaultOptions())
	steps := []string{
		"globalThis.x = 1;",
		"globalThis.y = x + 1;",
	}
	for _, src := range steps {
		eval(t, vm, src)
	}
	if got := value(t, vm, "y"); got != "2" {
		t.Errorf("y = %s, want 2", got)
	}

	before := vm.scope.Len()
	eval(t, vm, "var z = y * 10;")
	if vm.scope.Len() <= before {
		t.Errorf("global scope did not grow: %d -> %d", before, vm.scope.Len())
	}
	if got := value(t, vm, "y"); got != "2" {
		t.Errorf("y after growth = %s, want 2", got)
	}
	if got := value(t, vm, "z"); got != "20" {
		t.Errorf("z = %s, want 20", got)
	}
}
