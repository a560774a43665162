package builtins

import (
	"ember/types"
)

func functionSpec() TypeSpec {
	return TypeSpec{
		Name:      "Function",
		Parent:    types.ObjTypeObject,
		ProtoKind: types.ObjTypeObject,
		Length:    1,
		Methods: []Method{
			{"call", 1, builtinFunctionCall},
			{"apply", 2, builtinFunctionApply},
			{"bind", 1, builtinFunctionBind},
			{"toString", 0, builtinFunctionToString},
		},
	}
}

func thisFunction(rt types.Runtime, this types.Value, method string) (*types.Object, types.Result) {
	fn := callable(this)
	if fn == nil {
		return nil, rt.ThrowError(types.ObjTypeTypeError, "Function.prototype.%s called on non-function", method)
	}
	return fn, types.Ok(nil)
}

// builtinFunctionCall implements fn.call(thisArg, ...args)
func builtinFunctionCall(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	fn, r := thisFunction(rt, this, "call")
	if r.IsError() {
		return r
	}
	var rest []types.Value
	if len(args) > 1 {
		rest = args[1:]
	}
	return rt.Call(fn, types.Arg(args, 0), rest)
}

// builtinFunctionApply implements fn.apply(thisArg, argsArray)
func builtinFunctionApply(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	fn, r := thisFunction(rt, this, "apply")
	if r.IsError() {
		return r
	}
	var list []types.Value
	switch a := types.Arg(args, 1).(type) {
	case types.UndefinedValue, types.NullValue:
	case *types.Object:
		if !a.IsArray() {
			return rt.ThrowError(types.ObjTypeTypeError, "second argument to Function.prototype.apply must be an array")
		}
		list = append(list, a.Items...)
	default:
		return rt.ThrowError(types.ObjTypeTypeError, "second argument to Function.prototype.apply must be an array")
	}
	return rt.Call(fn, types.Arg(args, 0), list)
}

// builtinFunctionBind implements fn.bind(thisArg, ...args)
func builtinFunctionBind(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	target, r := thisFunction(rt, this, "bind")
	if r.IsError() {
		return r
	}
	boundThis := types.Arg(args, 0)
	var bound []types.Value
	if len(args) > 1 {
		bound = append(bound, args[1:]...)
	}

	length := target.Func.Length - len(bound)
	if length < 0 {
		length = 0
	}
	fn := rt.NewFunction("bound "+target.Func.Name, length,
		func(rt types.Runtime, _ types.Value, args []types.Value) types.Result {
			all := make([]types.Value, 0, len(bound)+len(args))
			all = append(all, bound...)
			all = append(all, args...)
			if rt.IsConstructor() {
				return rt.Construct(target, all)
			}
			return rt.Call(target, boundThis, all)
		})
	fn.Func.Ctor = target.Func.Ctor
	return types.Ok(fn)
}

// builtinFunctionToString implements fn.toString()
func builtinFunctionToString(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	fn, r := thisFunction(rt, this, "toString")
	if r.IsError() {
		return r
	}
	body := "[native code]"
	if fn.Func.Native == nil {
		body = "[code]"
	}
	return types.Ok(types.NewStr("function " + fn.Func.Name + "() { " + body + " }"))
}
