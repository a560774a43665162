package types

// ControlFlow tells a normal result from a thrown one
type ControlFlow int

const (
	FlowNormal    ControlFlow = iota // Normal execution
	FlowException                    // Value thrown, Val holds it
)

// Result represents the outcome of a call: a value or a thrown exception.
// Loop and return control flow never leave a frame; the interpreter
// compiles them to jumps.
type Result struct {
	Val  Value       // The value (or the thrown value when Flow == FlowException)
	Flow ControlFlow // Control flow state
}

// Ok creates a Result for normal execution with a value
func Ok(v Value) Result {
	return Result{Val: v, Flow: FlowNormal}
}

// Thrown creates a Result carrying an exception value
func Thrown(v Value) Result {
	return Result{Val: v, Flow: FlowException}
}

// IsError returns true if this is an exception
func (r Result) IsError() bool {
	return r.Flow == FlowException
}

// Value returns the carried value, or undefined when there is none
func (r Result) Value() Value {
	if r.Val == nil {
		return Undefined
	}
	return r.Val
}
