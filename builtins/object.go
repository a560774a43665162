package builtins

import (
	"ember/types"
)

func objectSpec() TypeSpec {
	return TypeSpec{
		Name:   "Object",
		Parent: -1,
		Ctor:   builtinObject,
		Length: 1,
		Static: []Method{
			{"keys", 1, builtinObjectKeys},
			{"values", 1, builtinObjectValues},
			{"entries", 1, builtinObjectEntries},
			{"assign", 2, builtinObjectAssign},
			{"create", 2, builtinObjectCreate},
			{"getPrototypeOf", 1, builtinObjectGetPrototypeOf},
			{"setPrototypeOf", 2, builtinObjectSetPrototypeOf},
		},
		Methods: []Method{
			{"hasOwnProperty", 1, builtinObjectHasOwnProperty},
			{"isPrototypeOf", 1, builtinObjectIsPrototypeOf},
			{"toString", 0, builtinObjectToString},
			{"valueOf", 0, builtinObjectValueOf},
		},
	}
}

// builtinObject implements Object(value) and new Object(value)
func builtinObject(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	if o, ok := types.Arg(args, 0).(*types.Object); ok {
		return types.Ok(o)
	}
	return types.Ok(rt.NewObject())
}

func argObject(rt types.Runtime, args []types.Value, i int, method string) (*types.Object, types.Result) {
	o, ok := types.Arg(args, i).(*types.Object)
	if !ok {
		return nil, rt.ThrowError(types.ObjTypeTypeError, "%s: argument is not an object", method)
	}
	return o, types.Ok(nil)
}

// ownValue reads an own property, resolving array elements
func ownValue(o *types.Object, key string) types.Value {
	if o.IsArray() {
		if idx, ok := types.ArrayIndex(key); ok && idx < len(o.Items) {
			return o.Items[idx]
		}
	}
	if v, ok := o.GetOwn(key); ok {
		return v
	}
	return types.Undefined
}

// builtinObjectKeys implements Object.keys(obj)
func builtinObjectKeys(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	if s, ok := types.Arg(args, 0).(types.StrValue); ok {
		var keys []types.Value
		for i := range []rune(s.Value()) {
			keys = append(keys, types.NewStr(types.FormatNumber(float64(i))))
		}
		return types.Ok(rt.NewArray(keys))
	}
	o, r := argObject(rt, args, 0, "Object.keys")
	if r.IsError() {
		return r
	}
	keys := o.Keys()
	out := make([]types.Value, len(keys))
	for i, k := range keys {
		out[i] = types.NewStr(k)
	}
	return types.Ok(rt.NewArray(out))
}

// builtinObjectValues implements Object.values(obj)
func builtinObjectValues(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	o, r := argObject(rt, args, 0, "Object.values")
	if r.IsError() {
		return r
	}
	keys := o.Keys()
	out := make([]types.Value, len(keys))
	for i, k := range keys {
		out[i] = ownValue(o, k)
	}
	return types.Ok(rt.NewArray(out))
}

// builtinObjectEntries implements Object.entries(obj)
func builtinObjectEntries(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	o, r := argObject(rt, args, 0, "Object.entries")
	if r.IsError() {
		return r
	}
	keys := o.Keys()
	out := make([]types.Value, len(keys))
	for i, k := range keys {
		out[i] = rt.NewArray([]types.Value{types.NewStr(k), ownValue(o, k)})
	}
	return types.Ok(rt.NewArray(out))
}

// builtinObjectAssign implements Object.assign(target, ...sources)
func builtinObjectAssign(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	target, r := argObject(rt, args, 0, "Object.assign")
	if r.IsError() {
		return r
	}
	for _, src := range args[1:] {
		so, ok := src.(*types.Object)
		if !ok {
			continue
		}
		for _, k := range so.Keys() {
			if r := rt.SetProperty(target, k, ownValue(so, k)); r.IsError() {
				return r
			}
		}
	}
	return types.Ok(target)
}

// builtinObjectCreate implements Object.create(proto[, props])
func builtinObjectCreate(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	o := rt.NewObject()
	switch p := types.Arg(args, 0).(type) {
	case *types.Object:
		o.Proto = p
	case types.NullValue:
		o.Proto = nil
	default:
		return rt.ThrowError(types.ObjTypeTypeError, "Object prototype may only be an Object or null")
	}
	if props, ok := types.Arg(args, 1).(*types.Object); ok {
		for _, k := range props.Keys() {
			desc, ok := ownValue(props, k).(*types.Object)
			if !ok {
				return rt.ThrowError(types.ObjTypeTypeError, "property descriptor must be an object")
			}
			o.Define(k, desc.Get("value"), desc.Get("enumerable").Truthy())
		}
	}
	return types.Ok(o)
}

// builtinObjectGetPrototypeOf implements Object.getPrototypeOf(obj)
func builtinObjectGetPrototypeOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	switch v := types.Arg(args, 0).(type) {
	case *types.Object:
		if v.Proto == nil {
			return types.Ok(types.Null)
		}
		return types.Ok(v.Proto)
	case types.StrValue:
		return types.Ok(rt.Proto(types.ObjTypeString))
	case types.NumValue:
		return types.Ok(rt.Proto(types.ObjTypeNumber))
	case types.BoolValue:
		return types.Ok(rt.Proto(types.ObjTypeBoolean))
	}
	return rt.ThrowError(types.ObjTypeTypeError, "cannot convert undefined or null to object")
}

// builtinObjectSetPrototypeOf implements Object.setPrototypeOf(obj, proto)
func builtinObjectSetPrototypeOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	o, r := argObject(rt, args, 0, "Object.setPrototypeOf")
	if r.IsError() {
		return r
	}
	if o.Shared {
		return types.Ok(o)
	}
	switch p := types.Arg(args, 1).(type) {
	case *types.Object:
		for cur := p; cur != nil; cur = cur.Proto {
			if cur == o {
				return rt.ThrowError(types.ObjTypeTypeError, "Cyclic __proto__ value")
			}
		}
		o.Proto = p
	case types.NullValue:
		o.Proto = nil
	default:
		return rt.ThrowError(types.ObjTypeTypeError, "Object prototype may only be an Object or null")
	}
	return types.Ok(o)
}

// builtinObjectHasOwnProperty implements Object.prototype.hasOwnProperty(key)
func builtinObjectHasOwnProperty(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	key, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	switch v := this.(type) {
	case *types.Object:
		if v.IsArray() {
			if idx, ok := types.ArrayIndex(key); ok {
				return types.Ok(types.NewBool(idx < len(v.Items)))
			}
			if key == "length" {
				return types.Ok(types.True)
			}
		}
		return types.Ok(types.NewBool(v.HasOwn(key)))
	case types.StrValue:
		if idx, ok := types.ArrayIndex(key); ok {
			return types.Ok(types.NewBool(idx < len([]rune(v.Value()))))
		}
		return types.Ok(types.NewBool(key == "length"))
	}
	return types.Ok(types.False)
}

// builtinObjectIsPrototypeOf implements Object.prototype.isPrototypeOf(v)
func builtinObjectIsPrototypeOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	proto, ok := this.(*types.Object)
	v, isObj := types.Arg(args, 0).(*types.Object)
	if !ok || !isObj {
		return types.Ok(types.False)
	}
	for cur := v.Proto; cur != nil; cur = cur.Proto {
		if cur == proto {
			return types.Ok(types.True)
		}
	}
	return types.Ok(types.False)
}

// builtinObjectToString implements Object.prototype.toString()
func builtinObjectToString(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	tag := "Object"
	switch v := this.(type) {
	case types.UndefinedValue:
		tag = "Undefined"
	case types.NullValue:
		tag = "Null"
	case types.StrValue:
		tag = "String"
	case types.NumValue:
		tag = "Number"
	case types.BoolValue:
		tag = "Boolean"
	case *types.Object:
		switch {
		case v.IsCallable():
			tag = "Function"
		case v.IsArray():
			tag = "Array"
		case v.Kind.IsError():
			tag = "Error"
		case v.Kind == types.ObjTypePromise:
			tag = "Promise"
		}
	}
	return types.Ok(types.NewStr("[object " + tag + "]"))
}

// builtinObjectValueOf implements Object.prototype.valueOf()
func builtinObjectValueOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return types.Ok(this)
}
