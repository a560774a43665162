package vm

import (
	"ember/types"
)

// iterator is the loop state of for-in and for-of. It lives on the operand
// stack and never escapes to script code.
type iterator struct {
	keys   []string      // for-in snapshot of enumerable keys
	array  *types.Object // for-of over a live array
	runes  []rune        // for-of over a string
	text   bool
	pos    int
}

func (it *iterator) Type() types.TypeCode   { return types.TYPE_UNDEFINED }
func (it *iterator) String() string         { return "[iterator]" }
func (it *iterator) Equal(types.Value) bool { return false }
func (it *iterator) Truthy() bool           { return true }

// next returns the next item, or false when exhausted
func (it *iterator) next() (types.Value, bool) {
	switch {
	case it.array != nil:
		if it.pos >= len(it.array.Items) {
			return nil, false
		}
		v := it.array.Items[it.pos]
		it.pos++
		if v == nil {
			v = types.Undefined
		}
		return v, true
	case it.text:
		if it.pos >= len(it.runes) {
			return nil, false
		}
		v := types.NewStr(string(it.runes[it.pos]))
		it.pos++
		return v, true
	}
	if it.pos >= len(it.keys) {
		return nil, false
	}
	v := types.NewStr(it.keys[it.pos])
	it.pos++
	return v, true
}

// keyIterator snapshots the enumerable keys of v and its prototype chain
func keyIterator(v types.Value) *iterator {
	it := &iterator{}
	switch val := v.(type) {
	case types.StrValue:
		for i := range []rune(val.Value()) {
			it.keys = append(it.keys, types.FormatNumber(float64(i)))
		}
	case *types.Object:
		seen := make(map[string]bool)
		for o := val; o != nil; o = o.Proto {
			for _, k := range o.Keys() {
				if !seen[k] {
					seen[k] = true
					it.keys = append(it.keys, k)
				}
			}
		}
	}
	return it
}

// valueIterator iterates the elements of an array or the characters of a
// string
func (vm *VM) valueIterator(v types.Value) (*iterator, types.Result) {
	switch val := v.(type) {
	case types.StrValue:
		return &iterator{runes: []rune(val.Value()), text: true}, types.Ok(nil)
	case *types.Object:
		if val.Kind == types.ObjTypeArray {
			return &iterator{array: val}, types.Ok(nil)
		}
	}
	return nil, vm.throwError(types.ObjTypeTypeError, "%s is not iterable", describe(v))
}
