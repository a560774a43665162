package builtins

import (
	"math"

	"ember/types"
)

// newNative creates a shared native function object
func newNative(name string, length int, fn types.NativeFunc) *types.Object {
	return &types.Object{
		Kind:       types.ObjTypeFunction,
		ProtoIndex: int(types.ObjTypeFunction),
		Func:       &types.Function{Name: name, Length: length, Native: fn},
	}
}

// builtinSpecs lists the builtin types in types.ObjType order
func builtinSpecs() []TypeSpec {
	specs := []TypeSpec{
		types.ObjTypeObject:   objectSpec(),
		types.ObjTypeFunction: functionSpec(),
		types.ObjTypeArray:    arraySpec(),
		types.ObjTypeBoolean:  booleanSpec(),
		types.ObjTypeNumber:   numberSpec(),
		types.ObjTypeString:   stringSpec(),
		types.ObjTypePromise:  promiseSpec(),
	}
	for t := types.ObjTypeError; t < types.ObjTypeMax; t++ {
		specs = append(specs, errorSpec(t))
	}
	return specs
}

// buildGlobal creates the template of the global object: namespaces and
// global functions. Constructors are bound per instance.
func buildGlobal() *types.Object {
	g := &types.Object{Kind: types.ObjTypeObject, ProtoIndex: int(types.ObjTypeObject)}

	g.Define("NaN", types.NewNum(math.NaN()), false)
	g.Define("Infinity", types.NewNum(math.Inf(1)), false)
	g.Define("undefined", types.Undefined, false)

	for _, m := range globalFunctions() {
		g.Define(m.Name, newNative(m.Name, m.Length, m.Fn), false)
	}

	g.Define("Math", buildMath(), false)
	g.Define("JSON", buildJSON(), false)
	return g
}

// namespace creates a plain shared object holding methods and props
func namespace(methods []Method, props []Prop) *types.Object {
	o := &types.Object{Kind: types.ObjTypeObject, ProtoIndex: int(types.ObjTypeObject)}
	for _, p := range props {
		o.Define(p.Name, p.Value, false)
	}
	for _, m := range methods {
		o.Define(m.Name, newNative(m.Name, m.Length, m.Fn), false)
	}
	return o
}

// thisObject returns this as an object or throws a TypeError naming method
func thisObject(rt types.Runtime, this types.Value, method string) (*types.Object, types.Result) {
	if o, ok := this.(*types.Object); ok {
		return o, types.Ok(nil)
	}
	return nil, rt.ThrowError(types.ObjTypeTypeError, "%s called on non-object", method)
}

// argString converts args[i] to a string, undefined when absent
func argString(rt types.Runtime, args []types.Value, i int) (string, types.Result) {
	return rt.ToString(types.Arg(args, i))
}

// callable returns v as a function object, or nil
func callable(v types.Value) *types.Object {
	if o, ok := v.(*types.Object); ok && o.IsCallable() {
		return o
	}
	return nil
}
