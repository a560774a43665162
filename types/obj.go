package types

import (
	"strconv"
	"strings"
)

// Property is a named slot of an object
type Property struct {
	Value      Value
	Enumerable bool
	deleted    bool // tombstone over a shared property
}

// Object is the single heap object representation. Plain objects, arrays,
// functions, errors and promises differ only by Kind and the payload fields.
//
// Objects copied out of the shared runtime state keep a read-only reference
// to the shared property table; writes land in the private table and shadow
// it. Nested shared objects are copied into the private table on first read.
type Object struct {
	Kind       ObjType
	Proto      *Object
	ProtoIndex int  // prototype table index used to relink copies, -1 if none
	Shared     bool // immutable, owned by the shared runtime state
	Func       *Function
	Items      []Value // array elements
	Internal   any     // type-specific payload (promise state, hash state)

	props      map[string]*Property
	keys       []string
	shared     map[string]*Property
	sharedKeys []string
	realm      *Realm
}

// NewObject creates an empty plain object with the given prototype
func NewObject(proto *Object) *Object {
	return &Object{Kind: ObjTypeObject, Proto: proto, ProtoIndex: -1}
}

// NewArray creates an array object holding items
func NewArray(proto *Object, items []Value) *Object {
	return &Object{Kind: ObjTypeArray, Proto: proto, ProtoIndex: -1, Items: items}
}

// NewFunctionObject creates a callable object
func NewFunctionObject(proto *Object, fn *Function) *Object {
	return &Object{Kind: ObjTypeFunction, Proto: proto, ProtoIndex: -1, Func: fn}
}

// Type returns the type code for objects
func (o *Object) Type() TypeCode {
	return TYPE_OBJECT
}

// Equal compares object identity
func (o *Object) Equal(other Value) bool {
	p, ok := other.(*Object)
	return ok && p == o
}

// Truthy is always true for objects
func (o *Object) Truthy() bool {
	return true
}

// String returns a description that never runs script code
func (o *Object) String() string {
	switch {
	case o.Func != nil:
		name := o.Func.Name
		if name == "" {
			name = "anonymous"
		}
		return "[Function: " + name + "]"
	case o.Kind == ObjTypeArray:
		parts := make([]string, len(o.Items))
		for i, item := range o.Items {
			if !IsNullish(item) {
				parts[i] = item.String()
			}
		}
		return strings.Join(parts, ",")
	case o.Kind.IsError() || o.isErrorInstance():
		name := "Error"
		if v, ok := o.Lookup("name"); ok {
			name = v.String()
		}
		msg := ""
		if v, ok := o.Lookup("message"); ok {
			msg = v.String()
		}
		if msg == "" {
			return name
		}
		if name == "" {
			return msg
		}
		return name + ": " + msg
	}
	return "[object Object]"
}

func (o *Object) isErrorInstance() bool {
	for p := o.Proto; p != nil; p = p.Proto {
		if p.Kind.IsError() {
			return true
		}
	}
	return false
}

// IsCallable returns true for function objects
func (o *Object) IsCallable() bool {
	return o.Func != nil
}

// IsArray returns true for array objects
func (o *Object) IsArray() bool {
	return o.Kind == ObjTypeArray
}

// Realm returns the instance state the object was copied into, if any
func (o *Object) Realm() *Realm {
	return o.realm
}

// GetOwn returns an own property value. A nested shared object is replaced
// by a private copy before it is returned.
func (o *Object) GetOwn(key string) (Value, bool) {
	if p, ok := o.props[key]; ok {
		if p.deleted {
			return nil, false
		}
		return p.Value, true
	}
	p, ok := o.shared[key]
	if !ok {
		return nil, false
	}
	if so, isObj := p.Value.(*Object); isObj && so.Shared && o.realm != nil {
		c := so.instanceCopy(o.realm)
		o.setProp(key, &Property{Value: c, Enumerable: p.Enumerable})
		return c, true
	}
	return p.Value, true
}

// property returns the own property record without privatizing
func (o *Object) property(key string) (*Property, bool) {
	if p, ok := o.props[key]; ok {
		if p.deleted {
			return nil, false
		}
		return p, true
	}
	p, ok := o.shared[key]
	return p, ok
}

// HasOwn reports whether key is an own property
func (o *Object) HasOwn(key string) bool {
	_, ok := o.property(key)
	return ok
}

// Lookup walks the prototype chain
func (o *Object) Lookup(key string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.Proto {
		if v, ok := cur.GetOwn(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Get walks the prototype chain and returns undefined when absent
func (o *Object) Get(key string) Value {
	if v, ok := o.Lookup(key); ok {
		return v
	}
	return Undefined
}

// Set writes an own property, creating it enumerable if new
func (o *Object) Set(key string, v Value) {
	if p, ok := o.props[key]; ok && !p.deleted {
		p.Value = v
		return
	}
	enumerable := true
	if p, ok := o.shared[key]; ok {
		if _, tomb := o.props[key]; !tomb {
			enumerable = p.Enumerable
		}
	}
	o.setProp(key, &Property{Value: v, Enumerable: enumerable})
}

// Define writes an own property with explicit enumerability
func (o *Object) Define(key string, v Value, enumerable bool) {
	o.setProp(key, &Property{Value: v, Enumerable: enumerable})
}

func (o *Object) setProp(key string, p *Property) {
	if o.props == nil {
		o.props = make(map[string]*Property)
	}
	if _, exists := o.props[key]; !exists {
		if _, inShared := o.shared[key]; !inShared {
			o.keys = append(o.keys, key)
		}
	}
	o.props[key] = p
}

// Delete removes an own property. Shared properties are hidden by a tombstone.
func (o *Object) Delete(key string) bool {
	if _, inShared := o.shared[key]; inShared {
		if o.props == nil {
			o.props = make(map[string]*Property)
		}
		o.props[key] = &Property{deleted: true}
		return true
	}
	if _, ok := o.props[key]; !ok {
		return true
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// OwnKeys returns all own property names in insertion order, array indices
// first
func (o *Object) OwnKeys() []string {
	return o.ownKeys(false)
}

// Keys returns the enumerable own property names
func (o *Object) Keys() []string {
	return o.ownKeys(true)
}

func (o *Object) ownKeys(enumerableOnly bool) []string {
	var out []string
	for i := range o.Items {
		out = append(out, strconv.Itoa(i))
	}
	for _, k := range o.sharedKeys {
		p, ok := o.property(k)
		if !ok || (enumerableOnly && !p.Enumerable) {
			continue
		}
		out = append(out, k)
	}
	for _, k := range o.keys {
		p, ok := o.props[k]
		if !ok || p.deleted || (enumerableOnly && !p.Enumerable) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Seal marks the object and every nested object in its property table as
// shared. Sealed objects must never be written again.
func (o *Object) Seal() {
	if o.Shared {
		return
	}
	o.Shared = true
	for _, p := range o.props {
		if so, ok := p.Value.(*Object); ok {
			so.Seal()
		}
	}
}

// instanceCopy copies a shared object into realm: the property table is
// referenced read-only and the prototype is resolved by table index.
func (o *Object) instanceCopy(realm *Realm) *Object {
	c := &Object{}
	o.copyInto(c, realm)
	return c
}

func (o *Object) copyInto(dst *Object, realm *Realm) {
	*dst = Object{
		Kind:       o.Kind,
		ProtoIndex: o.ProtoIndex,
		Func:       o.Func,
		Internal:   o.Internal,
		shared:     o.props,
		sharedKeys: o.keys,
		realm:      realm,
	}
	if o.Items != nil {
		dst.Items = append([]Value(nil), o.Items...)
	}
	if o.ProtoIndex >= 0 {
		dst.Proto = realm.Proto(ObjType(o.ProtoIndex))
	} else {
		dst.Proto = o.Proto
	}
}
