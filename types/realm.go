package types

// Realm is the per-instance copy of the builtin constructor and prototype
// tables. Both regions live in one backing array: constructors first, then
// prototypes, each n entries long.
type Realm struct {
	objects []Object
	n       int
}

// NewRealm copies the shared constructors and prototypes into a fresh realm
// and relinks every prototype chain to the copies.
func NewRealm(ctors, protos []*Object) *Realm {
	n := len(ctors)
	r := &Realm{objects: make([]Object, 2*n), n: n}
	for i := 0; i < n; i++ {
		ctors[i].copyInto(&r.objects[i], r)
		protos[i].copyInto(&r.objects[n+i], r)
	}
	return r
}

// Len returns the number of constructor/prototype pairs
func (r *Realm) Len() int {
	return r.n
}

// Ctor returns the instance constructor at index t
func (r *Realm) Ctor(t ObjType) *Object {
	if int(t) < 0 || int(t) >= r.n {
		return nil
	}
	return &r.objects[t]
}

// Proto returns the instance prototype at index t
func (r *Realm) Proto(t ObjType) *Object {
	if int(t) < 0 || int(t) >= r.n {
		return nil
	}
	return &r.objects[r.n+int(t)]
}

// Adopt copies a shared object into this realm
func (r *Realm) Adopt(o *Object) *Object {
	if !o.Shared {
		return o
	}
	return o.instanceCopy(r)
}
