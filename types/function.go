package types

// NativeFunc is the signature of functions implemented in Go
type NativeFunc func(rt Runtime, this Value, args []Value) Result

// Function is the callable payload of a function object.
// Lambda and Env are interface{} to avoid a dependency on the vm package.
type Function struct {
	Name   string
	Length int
	Native NativeFunc
	Lambda interface{} // *vm.Lambda
	Env    interface{} // *vm.Env - captured scope chain
	This   Value       // captured this for arrow functions
	Ctor   bool        // may be invoked with new
}

// Arg returns args[i] or undefined
func Arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}
