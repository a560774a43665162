package vm

import (
	"math"
	"strings"
	"unicode/utf8"

	"ember/builtins"
	"ember/types"
)

// maxArrayGrowth bounds how far a single index store may extend an array
const maxArrayGrowth = 1 << 24

// toPrimitive converts an object through valueOf and toString. With hint
// "string" toString is tried first. Objects without either method fall
// back to their non-invoking description.
func (vm *VM) toPrimitive(v types.Value, hint string) (types.Value, types.Result) {
	o, ok := v.(*types.Object)
	if !ok {
		return v, types.Ok(nil)
	}

	methods := [2]string{"valueOf", "toString"}
	if hint == "string" {
		methods = [2]string{"toString", "valueOf"}
	}

	found := false
	for _, name := range methods {
		fn, ok := o.Lookup(name)
		if !ok {
			continue
		}
		fo, ok := fn.(*types.Object)
		if !ok || !fo.IsCallable() {
			continue
		}
		found = true
		r := vm.call(fo, o, nil, false)
		if r.IsError() {
			return nil, r
		}
		if _, isObj := r.Value().(*types.Object); !isObj {
			return r.Value(), types.Ok(nil)
		}
	}
	if !found {
		return types.NewStr(o.String()), types.Ok(nil)
	}
	return nil, vm.throwError(types.ObjTypeTypeError, "Cannot convert object to primitive value")
}

// toString converts a value to a string, running script conversions
func (vm *VM) toString(v types.Value) (string, types.Result) {
	if v == nil {
		return "undefined", types.Ok(nil)
	}
	p, r := vm.toPrimitive(v, "string")
	if r.IsError() {
		return "", r
	}
	return p.String(), types.Ok(nil)
}

// toNumber converts a value to a number, running script conversions
func (vm *VM) toNumber(v types.Value) (float64, types.Result) {
	p, r := vm.toPrimitive(v, "number")
	if r.IsError() {
		return 0, r
	}
	return types.ToNumber(p), types.Ok(nil)
}

// concat joins two strings, charging the result against the arena
func (vm *VM) concat(a, b string) (types.Value, types.Result) {
	if err := vm.arena.Alloc(int64(len(a) + len(b))); err != nil {
		return nil, vm.throwMemory()
	}
	return types.NewStr(a + b), types.Ok(nil)
}

// add implements the + operator
func (vm *VM) add(a, b types.Value) (types.Value, types.Result) {
	if an, ok := a.(types.NumValue); ok {
		if bn, ok := b.(types.NumValue); ok {
			return types.NewNum(an.Val + bn.Val), types.Ok(nil)
		}
	}

	pa, r := vm.toPrimitive(a, "default")
	if r.IsError() {
		return nil, r
	}
	pb, r := vm.toPrimitive(b, "default")
	if r.IsError() {
		return nil, r
	}

	_, aStr := pa.(types.StrValue)
	_, bStr := pb.(types.StrValue)
	if aStr || bStr {
		return vm.concat(pa.String(), pb.String())
	}
	return types.NewNum(types.ToNumber(pa) + types.ToNumber(pb)), types.Ok(nil)
}

// arith implements the numeric binary operators
func (vm *VM) arith(op OpCode, a, b types.Value) (types.Value, types.Result) {
	x, r := vm.toNumber(a)
	if r.IsError() {
		return nil, r
	}
	y, r := vm.toNumber(b)
	if r.IsError() {
		return nil, r
	}

	switch op {
	case OP_SUB:
		return types.NewNum(x - y), r
	case OP_MUL:
		return types.NewNum(x * y), r
	case OP_DIV:
		return types.NewNum(x / y), r
	case OP_MOD:
		return types.NewNum(math.Mod(x, y)), r
	case OP_POW:
		return types.NewNum(builtins.Pow(x, y)), r
	}

	ix := types.ToInt32(types.NewNum(x))
	uy := types.ToUint32(types.NewNum(y))
	switch op {
	case OP_BITAND:
		return types.NewNum(float64(ix & types.ToInt32(types.NewNum(y)))), r
	case OP_BITOR:
		return types.NewNum(float64(ix | types.ToInt32(types.NewNum(y)))), r
	case OP_BITXOR:
		return types.NewNum(float64(ix ^ types.ToInt32(types.NewNum(y)))), r
	case OP_SHL:
		return types.NewNum(float64(ix << (uy & 31))), r
	case OP_SHR:
		return types.NewNum(float64(ix >> (uy & 31))), r
	case OP_USHR:
		return types.NewNum(float64(types.ToUint32(types.NewNum(x)) >> (uy & 31))), r
	}
	return nil, vm.throwError(types.ObjTypeInternalError, "unknown operator %s", op)
}

// unary implements the numeric prefix operators
func (vm *VM) unary(op OpCode, a types.Value) (types.Value, types.Result) {
	x, r := vm.toNumber(a)
	if r.IsError() {
		return nil, r
	}
	switch op {
	case OP_NEG:
		return types.NewNum(-x), r
	case OP_INC:
		return types.NewNum(x + 1), r
	case OP_DEC:
		return types.NewNum(x - 1), r
	case OP_BITNOT:
		return types.NewNum(float64(^types.ToInt32(types.NewNum(x)))), r
	}
	return types.NewNum(x), r
}

// compare implements the relational operators
func (vm *VM) compare(op OpCode, a, b types.Value) (types.Value, types.Result) {
	pa, r := vm.toPrimitive(a, "number")
	if r.IsError() {
		return nil, r
	}
	pb, r := vm.toPrimitive(b, "number")
	if r.IsError() {
		return nil, r
	}

	if sa, ok := pa.(types.StrValue); ok {
		if sb, ok := pb.(types.StrValue); ok {
			c := strings.Compare(sa.Value(), sb.Value())
			switch op {
			case OP_LT:
				return types.NewBool(c < 0), r
			case OP_LE:
				return types.NewBool(c <= 0), r
			case OP_GT:
				return types.NewBool(c > 0), r
			}
			return types.NewBool(c >= 0), r
		}
	}

	x, y := types.ToNumber(pa), types.ToNumber(pb)
	switch op {
	case OP_LT:
		return types.NewBool(x < y), r
	case OP_LE:
		return types.NewBool(x <= y), r
	case OP_GT:
		return types.NewBool(x > y), r
	}
	return types.NewBool(x >= y), r
}

// propertyKey converts an index operand to a property name
func (vm *VM) propertyKey(key types.Value) (string, types.Result) {
	if _, ok := key.(*types.Object); ok {
		return vm.toString(key)
	}
	return types.PropertyKey(key), types.Ok(nil)
}

// getProp reads a property of any value. Primitives read through their
// builtin prototype; null and undefined raise a TypeError.
func (vm *VM) getProp(v types.Value, key string) (types.Value, types.Result) {
	switch val := v.(type) {
	case *types.Object:
		return vm.objectGet(val, key), types.Ok(nil)
	case types.StrValue:
		if s, ok := stringProp(val.Value(), key); ok {
			return s, types.Ok(nil)
		}
		return vm.Proto(types.ObjTypeString).Get(key), types.Ok(nil)
	case types.NumValue:
		return vm.Proto(types.ObjTypeNumber).Get(key), types.Ok(nil)
	case types.BoolValue:
		return vm.Proto(types.ObjTypeBoolean).Get(key), types.Ok(nil)
	}
	return nil, vm.throwError(types.ObjTypeTypeError, "cannot get property \"%s\" of %s", key, describe(v))
}

// stringProp resolves length and index reads on a string
func stringProp(s, key string) (types.Value, bool) {
	if key == "length" {
		return types.NewInt(int64(utf8.RuneCountInString(s))), true
	}
	if idx, ok := types.ArrayIndex(key); ok {
		runes := []rune(s)
		if idx < len(runes) {
			return types.NewStr(string(runes[idx])), true
		}
		return types.Undefined, true
	}
	return nil, false
}

// objectGet reads a property of an object, synthesizing array, string
// wrapper and function intrinsics
func (vm *VM) objectGet(o *types.Object, key string) types.Value {
	switch {
	case o.Kind == types.ObjTypeArray:
		if key == "length" {
			return types.NewInt(int64(len(o.Items)))
		}
		if idx, ok := types.ArrayIndex(key); ok {
			if idx < len(o.Items) && o.Items[idx] != nil {
				return o.Items[idx]
			}
			return types.Undefined
		}
	case o.Func != nil && !o.HasOwn(key):
		switch key {
		case "name":
			return types.NewStr(o.Func.Name)
		case "length":
			return types.NewInt(int64(o.Func.Length))
		case "prototype":
			if p := vm.functionPrototype(o); p != nil {
				return p
			}
		}
	case o.Kind == types.ObjTypeString:
		if s, ok := o.Internal.(types.StrValue); ok {
			if v, ok := stringProp(s.Value(), key); ok {
				return v
			}
		}
	}
	return o.Get(key)
}

// functionPrototype creates the prototype object of a script function on
// first use. Arrow functions and natives have none.
func (vm *VM) functionPrototype(fn *types.Object) *types.Object {
	lam, ok := fn.Func.Lambda.(*Lambda)
	if !ok || lam.Arrow {
		return nil
	}
	p := vm.newObject()
	p.Define("constructor", fn, false)
	fn.Define("prototype", p, false)
	return p
}

// setProp writes a property. Writes to primitives are ignored; shared
// objects are frozen.
func (vm *VM) setProp(v types.Value, key string, val types.Value) types.Result {
	o, ok := v.(*types.Object)
	if !ok {
		if types.IsNullish(v) {
			return vm.throwError(types.ObjTypeTypeError, "cannot set property \"%s\" of %s", key, describe(v))
		}
		return types.Ok(nil)
	}
	if o.Shared {
		return types.Ok(nil)
	}
	if o.Kind == types.ObjTypeArray {
		if key == "length" {
			return vm.setLength(o, val)
		}
		if idx, ok := types.ArrayIndex(key); ok {
			return vm.setItem(o, idx, val)
		}
	}
	o.Set(key, val)
	return types.Ok(nil)
}

// setItem stores an array element, growing the array with undefined
func (vm *VM) setItem(o *types.Object, idx int, val types.Value) types.Result {
	if idx < len(o.Items) {
		o.Items[idx] = val
		return types.Ok(nil)
	}
	grow := idx + 1 - len(o.Items)
	if grow > maxArrayGrowth {
		return vm.throwError(types.ObjTypeRangeError, "Invalid array length")
	}
	if err := vm.arena.Alloc(int64(grow * frameSlotSize)); err != nil {
		return vm.throwMemory()
	}
	for len(o.Items) < idx {
		o.Items = append(o.Items, types.Undefined)
	}
	o.Items = append(o.Items, val)
	return types.Ok(nil)
}

// setLength truncates or extends an array
func (vm *VM) setLength(o *types.Object, val types.Value) types.Result {
	n, r := vm.toNumber(val)
	if r.IsError() {
		return r
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
		return vm.throwError(types.ObjTypeRangeError, "Invalid array length")
	}
	size := int(n)
	if size <= len(o.Items) {
		clear(o.Items[size:])
		o.Items = o.Items[:size]
		return types.Ok(nil)
	}
	return vm.setItem(o, size-1, types.Undefined)
}

// getIndex implements obj[key] with a fast path for array elements
func (vm *VM) getIndex(obj, key types.Value) (types.Value, types.Result) {
	if o, ok := obj.(*types.Object); ok && o.Kind == types.ObjTypeArray {
		if n, ok := key.(types.NumValue); ok && n.Val >= 0 && n.Val == math.Trunc(n.Val) && n.Val < float64(len(o.Items)) {
			if v := o.Items[int(n.Val)]; v != nil {
				return v, types.Ok(nil)
			}
			return types.Undefined, types.Ok(nil)
		}
	}
	if types.IsNullish(obj) {
		return nil, vm.throwError(types.ObjTypeTypeError, "cannot get property \"%s\" of %s", types.PropertyKey(key), describe(obj))
	}
	k, r := vm.propertyKey(key)
	if r.IsError() {
		return nil, r
	}
	return vm.getProp(obj, k)
}

// setIndex implements obj[key] = val
func (vm *VM) setIndex(obj, key, val types.Value) types.Result {
	k, r := vm.propertyKey(key)
	if r.IsError() {
		return r
	}
	return vm.setProp(obj, k, val)
}

// deleteProp implements the delete operator
func (vm *VM) deleteProp(v types.Value, key string) (types.Value, types.Result) {
	o, ok := v.(*types.Object)
	if !ok {
		if types.IsNullish(v) {
			return nil, vm.throwError(types.ObjTypeTypeError, "cannot delete property \"%s\" of %s", key, describe(v))
		}
		return types.True, types.Ok(nil)
	}
	if o.Shared {
		return types.False, types.Ok(nil)
	}
	if o.Kind == types.ObjTypeArray {
		if key == "length" {
			return types.False, types.Ok(nil)
		}
		if idx, ok := types.ArrayIndex(key); ok {
			if idx < len(o.Items) {
				o.Items[idx] = types.Undefined
			}
			return types.True, types.Ok(nil)
		}
	}
	return types.NewBool(o.Delete(key)), types.Ok(nil)
}

// hasProperty implements the in operator
func (vm *VM) hasProperty(key, obj types.Value) (types.Value, types.Result) {
	o, ok := obj.(*types.Object)
	if !ok {
		return nil, vm.throwError(types.ObjTypeTypeError, "cannot use 'in' operator to search for \"%s\" in %s",
			types.PropertyKey(key), describe(obj))
	}
	k, r := vm.propertyKey(key)
	if r.IsError() {
		return nil, r
	}
	if o.Kind == types.ObjTypeArray {
		if k == "length" {
			return types.True, r
		}
		if idx, ok := types.ArrayIndex(k); ok {
			return types.NewBool(idx < len(o.Items)), r
		}
	}
	if o.Func != nil && (k == "name" || k == "length") {
		return types.True, r
	}
	_, found := o.Lookup(k)
	return types.NewBool(found), r
}

// instanceOf implements the instanceof operator
func (vm *VM) instanceOf(v, ctor types.Value) (types.Value, types.Result) {
	c, ok := ctor.(*types.Object)
	if !ok || !c.IsCallable() {
		return nil, vm.throwError(types.ObjTypeTypeError, "right-hand side of instanceof is not callable")
	}
	o, ok := v.(*types.Object)
	if !ok {
		return types.False, types.Ok(nil)
	}
	proto, ok := vm.objectGet(c, "prototype").(*types.Object)
	if !ok {
		return nil, vm.throwError(types.ObjTypeTypeError, "Function has non-object prototype in instanceof check")
	}
	for p := o.Proto; p != nil; p = p.Proto {
		if p == proto {
			return types.True, types.Ok(nil)
		}
	}
	return types.False, types.Ok(nil)
}

// describe names a value in error messages without running script code
func describe(v types.Value) string {
	switch val := v.(type) {
	case nil:
		return "undefined"
	case types.StrValue:
		return types.Quote(val.Value())
	case *types.Object:
		if val.IsCallable() {
			return val.String()
		}
		return "object"
	}
	return v.String()
}
