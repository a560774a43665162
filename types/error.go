package types

// MemoryError is the preallocated out-of-memory exception value. It is built
// once at package init so raising it never allocates.
var MemoryError = newMemoryError()

func newMemoryError() *Object {
	o := &Object{Kind: ObjTypeMemoryError, ProtoIndex: -1}
	o.Define("name", NewStr("MemoryError"), false)
	o.Define("message", NewStr(""), false)
	o.Seal()
	return o
}

// IsMemoryError reports whether v is the out-of-memory sentinel
func IsMemoryError(v Value) bool {
	o, ok := v.(*Object)
	return ok && o == MemoryError
}
