package types

// Runtime is the view of a VM instance handed to native functions
type Runtime interface {
	// Proto and Ctor resolve this instance's copies of the builtin tables
	Proto(t ObjType) *Object
	Ctor(t ObjType) *Object
	Global() *Object

	Call(fn Value, this Value, args []Value) Result
	Construct(fn Value, args []Value) Result
	// IsConstructor reports whether the running native was invoked with new
	IsConstructor() bool

	Throw(v Value) Result
	ThrowError(kind ObjType, format string, args ...any) Result
	// ClearException drops the pending exception once a native has taken
	// a thrown value over, e.g. to reject a promise with it
	ClearException()
	ToString(v Value) (string, Result)
	// SetProperty writes o[key] the way script assignment does: shared
	// objects are left untouched and array growth is budgeted
	SetProperty(o Value, key string, v Value) Result

	NewObject() *Object
	NewArray(items []Value) *Object
	NewFunction(name string, length int, fn NativeFunc) *Object

	EnqueueJob(fn Value, args []Value) Result
	TrackRejection(p *Object)
	UntrackRejection(p *Object)

	Alloc(n int64) error
	Backtrace() string
	SetExitHook(fn Value)
	External() any
}

// ObjectSize is the nominal size charged for one heap object
const ObjectSize = 64
