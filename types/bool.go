package types

// BoolValue represents a boolean
type BoolValue struct {
	Val bool
}

var (
	True  = BoolValue{Val: true}
	False = BoolValue{Val: false}
)

// NewBool creates a boolean value
func NewBool(b bool) BoolValue {
	return BoolValue{Val: b}
}

// Type returns the type code for booleans
func (b BoolValue) Type() TypeCode {
	return TYPE_BOOL
}

// String returns the literal representation
func (b BoolValue) String() string {
	if b.Val {
		return "true"
	}
	return "false"
}

// Equal checks strict equality
func (b BoolValue) Equal(other Value) bool {
	o, ok := other.(BoolValue)
	return ok && o.Val == b.Val
}

// Truthy returns the boolean itself
func (b BoolValue) Truthy() bool {
	return b.Val
}
