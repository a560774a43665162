package types

// TypeCode identifies the language-level type of a value
type TypeCode int

const (
	TYPE_UNDEFINED TypeCode = iota
	TYPE_NULL
	TYPE_BOOL
	TYPE_NUMBER
	TYPE_STRING
	TYPE_OBJECT
)

// String returns the string representation of the type code
func (t TypeCode) String() string {
	switch t {
	case TYPE_UNDEFINED:
		return "undefined"
	case TYPE_NULL:
		return "null"
	case TYPE_BOOL:
		return "boolean"
	case TYPE_NUMBER:
		return "number"
	case TYPE_STRING:
		return "string"
	case TYPE_OBJECT:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the interface implemented by every script value
type Value interface {
	Type() TypeCode
	String() string
	Equal(Value) bool // strict equality (===)
	Truthy() bool
}

// UndefinedValue is the type of the undefined value
type UndefinedValue struct{}

// NullValue is the type of the null value
type NullValue struct{}

var (
	// Undefined is the single undefined value
	Undefined Value = UndefinedValue{}
	// Null is the single null value
	Null Value = NullValue{}
)

func (UndefinedValue) Type() TypeCode { return TYPE_UNDEFINED }
func (UndefinedValue) String() string { return "undefined" }
func (UndefinedValue) Truthy() bool   { return false }
func (UndefinedValue) Equal(other Value) bool {
	_, ok := other.(UndefinedValue)
	return ok
}

func (NullValue) Type() TypeCode { return TYPE_NULL }
func (NullValue) String() string { return "null" }
func (NullValue) Truthy() bool   { return false }
func (NullValue) Equal(other Value) bool {
	_, ok := other.(NullValue)
	return ok
}

// IsNullish returns true for null and undefined (and a nil interface)
func IsNullish(v Value) bool {
	if v == nil {
		return true
	}
	t := v.Type()
	return t == TYPE_UNDEFINED || t == TYPE_NULL
}

// Typeof returns the result of the typeof operator
func Typeof(v Value) string {
	if v == nil {
		return "undefined"
	}
	switch v.Type() {
	case TYPE_NULL:
		return "object"
	case TYPE_OBJECT:
		if v.(*Object).IsCallable() {
			return "function"
		}
		return "object"
	default:
		return v.Type().String()
	}
}
