package builtins

import (
	"math"
	"strconv"
	"strings"

	"ember/types"
)

func nan() float64 {
	return math.NaN()
}

func numberSpec() TypeSpec {
	return TypeSpec{
		Name:      "Number",
		Parent:    types.ObjTypeObject,
		ProtoKind: types.ObjTypeObject,
		Ctor:      builtinNumber,
		Length:    1,
		Static: []Method{
			{"isInteger", 1, builtinNumberIsInteger},
			{"isFinite", 1, builtinNumberIsFinite},
			{"isNaN", 1, builtinNumberIsNaN},
		},
		Methods: []Method{
			{"toString", 1, builtinNumberToString},
			{"toFixed", 1, builtinNumberToFixed},
			{"valueOf", 0, builtinNumberValueOf},
		},
	}
}

func booleanSpec() TypeSpec {
	return TypeSpec{
		Name:      "Boolean",
		Parent:    types.ObjTypeObject,
		ProtoKind: types.ObjTypeObject,
		Ctor:      builtinBoolean,
		Length:    1,
		Methods: []Method{
			{"toString", 0, builtinBooleanToString},
			{"valueOf", 0, builtinBooleanValueOf},
		},
	}
}

func wrap(rt types.Runtime, kind types.ObjType, v types.Value) *types.Object {
	o := rt.NewObject()
	o.Kind = kind
	o.Proto = rt.Proto(kind)
	o.Internal = v
	return o
}

// builtinNumber implements Number(v)
func builtinNumber(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	n := types.NewNum(0)
	if len(args) > 0 {
		n = types.NewNum(types.ToNumber(args[0]))
	}
	if rt.IsConstructor() {
		return types.Ok(wrap(rt, types.ObjTypeNumber, n))
	}
	return types.Ok(n)
}

func thisNumber(rt types.Runtime, this types.Value, method string) (float64, types.Result) {
	switch v := this.(type) {
	case types.NumValue:
		return v.Val, types.Ok(nil)
	case *types.Object:
		if n, ok := v.Internal.(types.NumValue); ok && v.Kind == types.ObjTypeNumber {
			return n.Val, types.Ok(nil)
		}
	}
	return 0, rt.ThrowError(types.ObjTypeTypeError, "Number.prototype.%s requires a number", method)
}

// builtinNumberIsInteger implements Number.isInteger(v)
func builtinNumberIsInteger(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	n, ok := types.Arg(args, 0).(types.NumValue)
	return types.Ok(types.NewBool(ok && !math.IsInf(n.Val, 0) && n.Val == math.Trunc(n.Val)))
}

// builtinNumberIsFinite implements Number.isFinite(v)
func builtinNumberIsFinite(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	n, ok := types.Arg(args, 0).(types.NumValue)
	return types.Ok(types.NewBool(ok && !math.IsInf(n.Val, 0) && !math.IsNaN(n.Val)))
}

// builtinNumberIsNaN implements Number.isNaN(v)
func builtinNumberIsNaN(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	n, ok := types.Arg(args, 0).(types.NumValue)
	return types.Ok(types.NewBool(ok && math.IsNaN(n.Val)))
}

// builtinNumberToString implements num.toString([radix])
func builtinNumberToString(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	n, r := thisNumber(rt, this, "toString")
	if r.IsError() {
		return r
	}
	radix := 10
	if _, ok := types.Arg(args, 0).(types.UndefinedValue); !ok {
		radix = int(types.ToInteger(args[0]))
	}
	if radix < 2 || radix > 36 {
		return rt.ThrowError(types.ObjTypeRangeError, "toString() radix argument must be between 2 and 36")
	}
	if radix == 10 || math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return types.Ok(types.NewStr(types.FormatNumber(n)))
	}
	return types.Ok(types.NewStr(strconv.FormatInt(int64(n), radix)))
}

// builtinNumberToFixed implements num.toFixed(digits)
func builtinNumberToFixed(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	n, r := thisNumber(rt, this, "toFixed")
	if r.IsError() {
		return r
	}
	digits := int(types.ToInteger(types.Arg(args, 0)))
	if digits < 0 || digits > 100 {
		return rt.ThrowError(types.ObjTypeRangeError, "toFixed() digits argument must be between 0 and 100")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) >= 1e21 {
		return types.Ok(types.NewStr(types.FormatNumber(n)))
	}
	s := strconv.FormatFloat(n, 'f', digits, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s, "-0.") == "" {
		s = s[1:]
	}
	return types.Ok(types.NewStr(s))
}

// builtinNumberValueOf implements num.valueOf()
func builtinNumberValueOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	n, r := thisNumber(rt, this, "valueOf")
	if r.IsError() {
		return r
	}
	return types.Ok(types.NewNum(n))
}

// builtinBoolean implements Boolean(v)
func builtinBoolean(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	b := types.NewBool(types.Arg(args, 0).Truthy())
	if rt.IsConstructor() {
		return types.Ok(wrap(rt, types.ObjTypeBoolean, b))
	}
	return types.Ok(b)
}

func thisBoolean(rt types.Runtime, this types.Value, method string) (types.BoolValue, types.Result) {
	switch v := this.(type) {
	case types.BoolValue:
		return v, types.Ok(nil)
	case *types.Object:
		if b, ok := v.Internal.(types.BoolValue); ok && v.Kind == types.ObjTypeBoolean {
			return b, types.Ok(nil)
		}
	}
	return types.False, rt.ThrowError(types.ObjTypeTypeError, "Boolean.prototype.%s requires a boolean", method)
}

// builtinBooleanToString implements bool.toString()
func builtinBooleanToString(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	b, r := thisBoolean(rt, this, "toString")
	if r.IsError() {
		return r
	}
	return types.Ok(types.NewStr(b.String()))
}

// builtinBooleanValueOf implements bool.valueOf()
func builtinBooleanValueOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	b, r := thisBoolean(rt, this, "valueOf")
	if r.IsError() {
		return r
	}
	return types.Ok(b)
}
