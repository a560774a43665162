package types

import (
	"math"
	"strconv"
)

// ToNumber converts a value to a number without running script code.
// Objects convert through their non-invoking string form.
func ToNumber(v Value) float64 {
	switch val := v.(type) {
	case nil, UndefinedValue:
		return math.NaN()
	case NullValue:
		return 0
	case BoolValue:
		if val.Val {
			return 1
		}
		return 0
	case NumValue:
		return val.Val
	case StrValue:
		return ParseNumber(val.val)
	case *Object:
		if val.Func != nil {
			return math.NaN()
		}
		return ParseNumber(val.String())
	}
	return math.NaN()
}

// ToInt32 implements the 32-bit integer conversion used by bitwise operators
func ToInt32(v Value) int32 {
	return int32(ToUint32(v))
}

// ToUint32 implements the unsigned 32-bit integer conversion
func ToUint32(v Value) uint32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	f = math.Mod(f, 4294967296)
	if f < 0 {
		f += 4294967296
	}
	return uint32(f)
}

// ToInteger truncates toward zero; NaN becomes 0
func ToInteger(v Value) float64 {
	f := ToNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	return math.Trunc(f)
}

// ArrayIndex parses a canonical array index
func ArrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// PropertyKey converts a value to a property name
func PropertyKey(v Value) string {
	if n, ok := v.(NumValue); ok {
		return FormatNumber(n.Val)
	}
	return v.String()
}

// LooseEqual implements the == operator for the supported value kinds
func LooseEqual(a, b Value) bool {
	if a.Type() == b.Type() {
		return a.Equal(b)
	}
	if IsNullish(a) && IsNullish(b) {
		return true
	}
	if IsNullish(a) || IsNullish(b) {
		return false
	}
	_, aObj := a.(*Object)
	_, bObj := b.(*Object)
	if aObj && bObj {
		return false
	}
	if aObj || bObj {
		if aObj {
			a = NewStr(a.String())
		} else {
			b = NewStr(b.String())
		}
		return LooseEqual(a, b)
	}
	if _, ok := a.(StrValue); ok {
		if _, ok := b.(StrValue); ok {
			return a.Equal(b)
		}
	}
	return ToNumber(a) == ToNumber(b)
}

// SameValueZero compares like === except that NaN equals NaN
func SameValueZero(a, b Value) bool {
	an, aok := a.(NumValue)
	bn, bok := b.(NumValue)
	if aok && bok && math.IsNaN(an.Val) && math.IsNaN(bn.Val) {
		return true
	}
	return a.Equal(b)
}
