package types

import (
	"math"
	"reflect"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{42, "42"},
		{-7, "-7"},
		{1.5, "1.5"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatNumber(tt.in); got != tt.want {
				t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want float64
	}{
		{"null", Null, 0},
		{"true", True, 1},
		{"empty string", NewStr(""), 0},
		{"padded", NewStr("  12 "), 12},
		{"hex", NewStr("0x1f"), 31},
		{"empty array", NewArray(nil, nil), 0},
		{"single array", NewArray(nil, []Value{NewStr("5")}), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNumber(tt.in); got != tt.want {
				t.Errorf("ToNumber = %v, want %v", got, tt.want)
			}
		})
	}

	if !math.IsNaN(ToNumber(Undefined)) {
		t.Error("ToNumber(undefined) should be NaN")
	}
	if !math.IsNaN(ToNumber(NewStr("12px"))) {
		t.Error("ToNumber(\"12px\") should be NaN")
	}
}

func TestStrictEquality(t *testing.T) {
	nan := NewNum(math.NaN())
	if nan.Equal(nan) {
		t.Error("NaN === NaN should be false")
	}
	if !SameValueZero(nan, nan) {
		t.Error("SameValueZero(NaN, NaN) should be true")
	}
	if NewNum(1).Equal(NewStr("1")) {
		t.Error("1 === \"1\" should be false")
	}
	if !LooseEqual(NewNum(1), NewStr("1")) {
		t.Error("1 == \"1\" should be true")
	}
	if !LooseEqual(Null, Undefined) {
		t.Error("null == undefined should be true")
	}
	if LooseEqual(Null, NewNum(0)) {
		t.Error("null == 0 should be false")
	}
}

func TestObjectKeysOrder(t *testing.T) {
	o := NewObject(nil)
	o.Set("b", NewNum(1))
	o.Set("a", NewNum(2))
	o.Define("hidden", NewNum(3), false)
	o.Set("c", NewNum(4))
	o.Delete("a")

	if got, want := o.Keys(), []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if got, want := o.OwnKeys(), []string{"b", "hidden", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("OwnKeys() = %v, want %v", got, want)
	}
}

func TestPrototypeLookup(t *testing.T) {
	base := NewObject(nil)
	base.Set("greet", NewStr("hi"))
	child := NewObject(base)

	if v := child.Get("greet"); !v.Equal(NewStr("hi")) {
		t.Errorf("inherited lookup = %v, want hi", v)
	}
	if child.HasOwn("greet") {
		t.Error("inherited property reported as own")
	}
	if v := child.Get("missing"); v != Undefined {
		t.Errorf("missing lookup = %v, want undefined", v)
	}
}

func sharedPair() (ctors, protos []*Object) {
	objProto := &Object{Kind: ObjTypeObject, ProtoIndex: -1}
	fnProto := &Object{Kind: ObjTypeObject, ProtoIndex: 0}

	method := &Object{Kind: ObjTypeFunction, ProtoIndex: 1, Func: &Function{Name: "m"}}
	objProto.Define("m", method, false)
	objProto.Define("tag", NewStr("shared"), true)

	objCtor := &Object{Kind: ObjTypeFunction, ProtoIndex: 1, Func: &Function{Name: "Object"}}
	fnCtor := &Object{Kind: ObjTypeFunction, ProtoIndex: 1, Func: &Function{Name: "Function"}}

	ctors = []*Object{objCtor, fnCtor}
	protos = []*Object{objProto, fnProto}
	for _, o := range append(append([]*Object{}, ctors...), protos...) {
		o.Seal()
	}
	return ctors, protos
}

func TestRealmRelinksPrototypes(t *testing.T) {
	ctors, protos := sharedPair()
	r := NewRealm(ctors, protos)

	if r.Proto(1).Proto != r.Proto(0) {
		t.Error("Function.prototype copy does not chain to the instance Object.prototype")
	}
	if r.Ctor(0).Proto != r.Proto(1) {
		t.Error("constructor copy does not chain to the instance Function.prototype")
	}

	m, ok := r.Proto(0).GetOwn("m")
	if !ok {
		t.Fatal("shared method not visible through the copy")
	}
	mo := m.(*Object)
	if mo.Shared || mo == protos[0].Get("m") {
		t.Error("nested shared object was not privatized on read")
	}
	if mo.Proto != r.Proto(1) {
		t.Error("privatized method does not chain to the instance Function.prototype")
	}
	if again, _ := r.Proto(0).GetOwn("m"); again != m {
		t.Error("second read returned a different private copy")
	}
}

func TestRealmIsolation(t *testing.T) {
	ctors, protos := sharedPair()
	r1 := NewRealm(ctors, protos)
	r2 := NewRealm(ctors, protos)

	r1.Proto(0).Set("tag", NewStr("patched"))
	r1.Proto(0).Delete("m")

	if v := r2.Proto(0).Get("tag"); !v.Equal(NewStr("shared")) {
		t.Errorf("second realm sees %v, want shared", v)
	}
	if !r2.Proto(0).HasOwn("m") {
		t.Error("delete in one realm leaked into another")
	}
	if r1.Proto(0).HasOwn("m") {
		t.Error("tombstoned property still visible")
	}
	if v := protos[0].Get("tag"); !v.Equal(NewStr("shared")) {
		t.Errorf("shared table mutated: %v", v)
	}
	if got := r1.Proto(0).Keys(); !reflect.DeepEqual(got, []string{"tag"}) {
		t.Errorf("Keys() after shadowing = %v, want [tag]", got)
	}
}

func TestMemoryErrorSentinel(t *testing.T) {
	if !IsMemoryError(MemoryError) {
		t.Fatal("IsMemoryError(MemoryError) = false")
	}
	if MemoryError.String() != "MemoryError" {
		t.Errorf("MemoryError.String() = %q", MemoryError.String())
	}
	if !MemoryError.Shared {
		t.Error("sentinel should be sealed")
	}
}

func TestResult(t *testing.T) {
	tests := []struct {
		name    string
		r       Result
		isError bool
		want    Value
	}{
		{"ok", Ok(NewInt(1)), false, NewInt(1)},
		{"ok nil", Ok(nil), false, Undefined},
		{"thrown", Thrown(NewStr("E")), true, NewStr("E")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.r.IsError() != tt.isError {
				t.Errorf("IsError() = %v, want %v", tt.r.IsError(), tt.isError)
			}
			if got := tt.r.Value(); got.String() != tt.want.String() {
				t.Errorf("Value() = %s, want %s", got.String(), tt.want.String())
			}
		})
	}
}
