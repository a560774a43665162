package builtins

import (
	"ember/types"
)

// Version is reported by njs.version
const Version = "0.4.0"

// Host is the view of a VM instance handed to builtin module Init hooks
type Host interface {
	types.Runtime
	Bind(name string, v types.Value) error
}

// Module is a builtin module. Preinit runs against the shared state before
// per-instance state exists; Init runs once per instance, clones included.
type Module struct {
	Name    string
	Preinit func(s *Shared) error
	Init    func(h Host) error
}

// Modules returns the builtin modules in initialization order
func Modules() []Module {
	return []Module{
		{Name: "njs", Init: initNjs},
	}
}

func initNjs(h Host) error {
	o := h.NewObject()
	o.Define("version", types.NewStr(Version), true)
	o.Define("on", h.NewFunction("on", 2, builtinNjsOn), false)
	return h.Bind("njs", o)
}

// builtinNjsOn implements njs.on(event, fn). Only "exit" is supported.
func builtinNjsOn(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	event, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	if event != "exit" {
		return rt.ThrowError(types.ObjTypeTypeError, "unknown event \"%s\"", event)
	}
	fn := callable(types.Arg(args, 1))
	if fn == nil {
		return rt.ThrowError(types.ObjTypeTypeError, "callback is not a function")
	}
	rt.SetExitHook(fn)
	return types.Ok(types.Undefined)
}
