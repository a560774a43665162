package builtins

import (
	"ember/types"
)

func errorSpec(t types.ObjType) TypeSpec {
	parent := types.ObjTypeError
	if t == types.ObjTypeError {
		parent = types.ObjTypeObject
	}
	spec := TypeSpec{
		Name:      t.String(),
		Parent:    parent,
		ProtoKind: t,
		Ctor:      errorConstructor(t),
		Length:    1,
		Props: []Prop{
			{"name", types.NewStr(t.String())},
			{"message", types.NewStr("")},
		},
	}
	if t == types.ObjTypeError {
		spec.Methods = []Method{{"toString", 0, builtinErrorToString}}
	}
	return spec
}

// errorConstructor returns the native behind Error(msg) and its subtypes.
// Calling without new also constructs.
func errorConstructor(t types.ObjType) types.NativeFunc {
	return func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		msg := ""
		if _, ok := types.Arg(args, 0).(types.UndefinedValue); !ok {
			var r types.Result
			msg, r = argString(rt, args, 0)
			if r.IsError() {
				return r
			}
		}
		e := NewError(rt, t, msg)
		if e == types.MemoryError {
			return types.Thrown(e)
		}
		return types.Ok(e)
	}
}

// NewError allocates an error object of kind t. When the arena cannot hold
// it the preallocated MemoryError is returned instead.
func NewError(rt types.Runtime, t types.ObjType, msg string) *types.Object {
	if t == types.ObjTypeMemoryError {
		return types.MemoryError
	}
	if err := rt.Alloc(types.ObjectSize + int64(len(msg))); err != nil {
		return types.MemoryError
	}
	e := types.NewObject(rt.Proto(t))
	e.Kind = t
	if msg != "" {
		e.Define("message", types.NewStr(msg), false)
	}
	stack := e.String()
	if bt := rt.Backtrace(); bt != "" {
		stack += "\n" + bt
	}
	e.Define("stack", types.NewStr(stack), false)
	return e
}

// builtinErrorToString implements Error.prototype.toString()
func builtinErrorToString(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	o, r := thisObject(rt, this, "Error.prototype.toString")
	if r.IsError() {
		return r
	}
	name := "Error"
	if v := o.Get("name"); !types.IsNullish(v) {
		name, r = rt.ToString(v)
		if r.IsError() {
			return r
		}
	}
	msg := ""
	if v := o.Get("message"); !types.IsNullish(v) {
		msg, r = rt.ToString(v)
		if r.IsError() {
			return r
		}
	}
	switch {
	case msg == "":
		return types.Ok(types.NewStr(name))
	case name == "":
		return types.Ok(types.NewStr(msg))
	}
	return types.Ok(types.NewStr(name + ": " + msg))
}
