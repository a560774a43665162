package builtins

import (
	"math"
	"sort"
	"strings"

	"ember/types"
)

func arraySpec() TypeSpec {
	return TypeSpec{
		Name:      "Array",
		Parent:    types.ObjTypeObject,
		ProtoKind: types.ObjTypeObject,
		Ctor:      builtinArray,
		Length:    1,
		Static: []Method{
			{"isArray", 1, builtinArrayIsArray},
			{"of", 0, builtinArrayOf},
		},
		Methods: []Method{
			{"push", 1, builtinArrayPush},
			{"pop", 0, builtinArrayPop},
			{"shift", 0, builtinArrayShift},
			{"unshift", 1, builtinArrayUnshift},
			{"join", 1, builtinArrayJoin},
			{"toString", 0, builtinArrayToString},
			{"map", 1, builtinArrayMap},
			{"forEach", 1, builtinArrayForEach},
			{"filter", 1, builtinArrayFilter},
			{"some", 1, builtinArraySome},
			{"every", 1, builtinArrayEvery},
			{"find", 1, builtinArrayFind},
			{"findIndex", 1, builtinArrayFindIndex},
			{"reduce", 1, builtinArrayReduce},
			{"indexOf", 1, builtinArrayIndexOf},
			{"lastIndexOf", 1, builtinArrayLastIndexOf},
			{"includes", 1, builtinArrayIncludes},
			{"slice", 2, builtinArraySlice},
			{"splice", 2, builtinArraySplice},
			{"concat", 1, builtinArrayConcat},
			{"reverse", 0, builtinArrayReverse},
			{"fill", 1, builtinArrayFill},
			{"sort", 1, builtinArraySort},
		},
	}
}

// builtinArray implements Array(len) and Array(...items)
func builtinArray(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	if len(args) == 1 {
		if n, ok := args[0].(types.NumValue); ok {
			size := n.Val
			if size < 0 || size != math.Trunc(size) || size > math.MaxUint32 {
				return rt.ThrowError(types.ObjTypeRangeError, "Invalid array length")
			}
			if err := rt.Alloc(int64(size) * 16); err != nil {
				return types.Thrown(types.MemoryError)
			}
			items := make([]types.Value, int(size))
			for i := range items {
				items[i] = types.Undefined
			}
			return types.Ok(rt.NewArray(items))
		}
	}
	return types.Ok(rt.NewArray(append([]types.Value(nil), args...)))
}

func thisArray(rt types.Runtime, this types.Value, method string) (*types.Object, types.Result) {
	if o, ok := this.(*types.Object); ok && o.IsArray() {
		return o, types.Ok(nil)
	}
	return nil, rt.ThrowError(types.ObjTypeTypeError, "Array.prototype.%s called on non-array", method)
}

// relativeIndex clamps a possibly negative index argument into [0, n]
func relativeIndex(v types.Value, n int, def int) int {
	if _, ok := v.(types.UndefinedValue); ok {
		return def
	}
	f := types.ToInteger(v)
	if f < 0 {
		f += float64(n)
		if f < 0 {
			return 0
		}
	}
	if f > float64(n) {
		return n
	}
	return int(f)
}

// builtinArrayIsArray implements Array.isArray(v)
func builtinArrayIsArray(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	o, ok := types.Arg(args, 0).(*types.Object)
	return types.Ok(types.NewBool(ok && o.IsArray()))
}

// builtinArrayOf implements Array.of(...items)
func builtinArrayOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return types.Ok(rt.NewArray(append([]types.Value(nil), args...)))
}

// builtinArrayPush implements arr.push(...items)
func builtinArrayPush(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "push")
	if r.IsError() {
		return r
	}
	if err := rt.Alloc(int64(len(args)) * 16); err != nil {
		return types.Thrown(types.MemoryError)
	}
	arr.Items = append(arr.Items, args...)
	return types.Ok(types.NewInt(int64(len(arr.Items))))
}

// builtinArrayPop implements arr.pop()
func builtinArrayPop(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "pop")
	if r.IsError() {
		return r
	}
	if len(arr.Items) == 0 {
		return types.Ok(types.Undefined)
	}
	last := arr.Items[len(arr.Items)-1]
	arr.Items = arr.Items[:len(arr.Items)-1]
	return types.Ok(last)
}

// builtinArrayShift implements arr.shift()
func builtinArrayShift(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "shift")
	if r.IsError() {
		return r
	}
	if len(arr.Items) == 0 {
		return types.Ok(types.Undefined)
	}
	first := arr.Items[0]
	arr.Items = append(arr.Items[:0:0], arr.Items[1:]...)
	return types.Ok(first)
}

// builtinArrayUnshift implements arr.unshift(...items)
func builtinArrayUnshift(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "unshift")
	if r.IsError() {
		return r
	}
	items := make([]types.Value, 0, len(args)+len(arr.Items))
	items = append(items, args...)
	arr.Items = append(items, arr.Items...)
	return types.Ok(types.NewInt(int64(len(arr.Items))))
}

// builtinArrayJoin implements arr.join(sep)
func builtinArrayJoin(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "join")
	if r.IsError() {
		return r
	}
	sep := ","
	if _, ok := types.Arg(args, 0).(types.UndefinedValue); !ok {
		s, r := argString(rt, args, 0)
		if r.IsError() {
			return r
		}
		sep = s
	}
	return joinItems(rt, arr, sep)
}

func joinItems(rt types.Runtime, arr *types.Object, sep string) types.Result {
	parts := make([]string, len(arr.Items))
	for i, item := range arr.Items {
		if types.IsNullish(item) {
			continue
		}
		if nested, ok := item.(*types.Object); ok && nested == arr {
			continue
		}
		s, r := rt.ToString(item)
		if r.IsError() {
			return r
		}
		parts[i] = s
	}
	return types.Ok(types.NewStr(strings.Join(parts, sep)))
}

// builtinArrayToString implements arr.toString()
func builtinArrayToString(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "toString")
	if r.IsError() {
		return r
	}
	return joinItems(rt, arr, ",")
}

// iterate calls fn(item, index, arr) for each element until visit returns
// false or the callback throws
func iterate(rt types.Runtime, this types.Value, args []types.Value, method string,
	visit func(i int, item, result types.Value) bool) types.Result {
	arr, r := thisArray(rt, this, method)
	if r.IsError() {
		return r
	}
	fn := callable(types.Arg(args, 0))
	if fn == nil {
		return rt.ThrowError(types.ObjTypeTypeError, "%s is not a function", types.Arg(args, 0).String())
	}
	thisArg := types.Arg(args, 1)
	for i := 0; i < len(arr.Items); i++ {
		item := arr.Items[i]
		res := rt.Call(fn, thisArg, []types.Value{item, types.NewInt(int64(i)), arr})
		if res.IsError() {
			return res
		}
		if !visit(i, item, res.Val) {
			break
		}
	}
	return types.Ok(types.Undefined)
}

// builtinArrayMap implements arr.map(fn, thisArg)
func builtinArrayMap(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	var out []types.Value
	r := iterate(rt, this, args, "map", func(i int, item, result types.Value) bool {
		out = append(out, result)
		return true
	})
	if r.IsError() {
		return r
	}
	return types.Ok(rt.NewArray(out))
}

// builtinArrayForEach implements arr.forEach(fn, thisArg)
func builtinArrayForEach(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return iterate(rt, this, args, "forEach", func(int, types.Value, types.Value) bool { return true })
}

// builtinArrayFilter implements arr.filter(fn, thisArg)
func builtinArrayFilter(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	out := []types.Value{}
	r := iterate(rt, this, args, "filter", func(i int, item, result types.Value) bool {
		if result.Truthy() {
			out = append(out, item)
		}
		return true
	})
	if r.IsError() {
		return r
	}
	return types.Ok(rt.NewArray(out))
}

// builtinArraySome implements arr.some(fn, thisArg)
func builtinArraySome(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	found := false
	r := iterate(rt, this, args, "some", func(i int, item, result types.Value) bool {
		found = result.Truthy()
		return !found
	})
	if r.IsError() {
		return r
	}
	return types.Ok(types.NewBool(found))
}

// builtinArrayEvery implements arr.every(fn, thisArg)
func builtinArrayEvery(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	all := true
	r := iterate(rt, this, args, "every", func(i int, item, result types.Value) bool {
		all = result.Truthy()
		return all
	})
	if r.IsError() {
		return r
	}
	return types.Ok(types.NewBool(all))
}

// builtinArrayFind implements arr.find(fn, thisArg)
func builtinArrayFind(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	var found types.Value = types.Undefined
	r := iterate(rt, this, args, "find", func(i int, item, result types.Value) bool {
		if result.Truthy() {
			found = item
			return false
		}
		return true
	})
	if r.IsError() {
		return r
	}
	return types.Ok(found)
}

// builtinArrayFindIndex implements arr.findIndex(fn, thisArg)
func builtinArrayFindIndex(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	idx := -1
	r := iterate(rt, this, args, "findIndex", func(i int, item, result types.Value) bool {
		if result.Truthy() {
			idx = i
			return false
		}
		return true
	})
	if r.IsError() {
		return r
	}
	return types.Ok(types.NewInt(int64(idx)))
}

// builtinArrayReduce implements arr.reduce(fn[, initial])
func builtinArrayReduce(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "reduce")
	if r.IsError() {
		return r
	}
	fn := callable(types.Arg(args, 0))
	if fn == nil {
		return rt.ThrowError(types.ObjTypeTypeError, "%s is not a function", types.Arg(args, 0).String())
	}
	i := 0
	var acc types.Value
	if len(args) > 1 {
		acc = args[1]
	} else {
		if len(arr.Items) == 0 {
			return rt.ThrowError(types.ObjTypeTypeError, "Reduce of empty array with no initial value")
		}
		acc = arr.Items[0]
		i = 1
	}
	for ; i < len(arr.Items); i++ {
		res := rt.Call(fn, types.Undefined, []types.Value{acc, arr.Items[i], types.NewInt(int64(i)), arr})
		if res.IsError() {
			return res
		}
		acc = res.Val
	}
	return types.Ok(acc)
}

// builtinArrayIndexOf implements arr.indexOf(v[, from])
func builtinArrayIndexOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "indexOf")
	if r.IsError() {
		return r
	}
	target := types.Arg(args, 0)
	for i := relativeIndex(types.Arg(args, 1), len(arr.Items), 0); i < len(arr.Items); i++ {
		if arr.Items[i].Equal(target) {
			return types.Ok(types.NewInt(int64(i)))
		}
	}
	return types.Ok(types.NewInt(-1))
}

// builtinArrayLastIndexOf implements arr.lastIndexOf(v)
func builtinArrayLastIndexOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "lastIndexOf")
	if r.IsError() {
		return r
	}
	target := types.Arg(args, 0)
	for i := len(arr.Items) - 1; i >= 0; i-- {
		if arr.Items[i].Equal(target) {
			return types.Ok(types.NewInt(int64(i)))
		}
	}
	return types.Ok(types.NewInt(-1))
}

// builtinArrayIncludes implements arr.includes(v)
func builtinArrayIncludes(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "includes")
	if r.IsError() {
		return r
	}
	target := types.Arg(args, 0)
	for _, item := range arr.Items {
		if types.SameValueZero(item, target) {
			return types.Ok(types.True)
		}
	}
	return types.Ok(types.False)
}

// builtinArraySlice implements arr.slice(start, end)
func builtinArraySlice(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "slice")
	if r.IsError() {
		return r
	}
	n := len(arr.Items)
	start := relativeIndex(types.Arg(args, 0), n, 0)
	end := relativeIndex(types.Arg(args, 1), n, n)
	if end < start {
		end = start
	}
	return types.Ok(rt.NewArray(append([]types.Value{}, arr.Items[start:end]...)))
}

// builtinArraySplice implements arr.splice(start, deleteCount, ...items)
func builtinArraySplice(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "splice")
	if r.IsError() {
		return r
	}
	n := len(arr.Items)
	start := relativeIndex(types.Arg(args, 0), n, 0)
	count := n - start
	if len(args) > 1 {
		c := int(types.ToInteger(args[1]))
		if c < 0 {
			c = 0
		}
		if c < count {
			count = c
		}
	}
	if len(args) == 0 {
		count = 0
	}
	removed := append([]types.Value{}, arr.Items[start:start+count]...)
	var inserted []types.Value
	if len(args) > 2 {
		inserted = args[2:]
	}
	items := make([]types.Value, 0, n-count+len(inserted))
	items = append(items, arr.Items[:start]...)
	items = append(items, inserted...)
	items = append(items, arr.Items[start+count:]...)
	arr.Items = items
	return types.Ok(rt.NewArray(removed))
}

// builtinArrayConcat implements arr.concat(...values)
func builtinArrayConcat(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "concat")
	if r.IsError() {
		return r
	}
	out := append([]types.Value{}, arr.Items...)
	for _, a := range args {
		if o, ok := a.(*types.Object); ok && o.IsArray() {
			out = append(out, o.Items...)
			continue
		}
		out = append(out, a)
	}
	if err := rt.Alloc(int64(len(out)) * 16); err != nil {
		return types.Thrown(types.MemoryError)
	}
	return types.Ok(rt.NewArray(out))
}

// builtinArrayReverse implements arr.reverse()
func builtinArrayReverse(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "reverse")
	if r.IsError() {
		return r
	}
	for i, j := 0, len(arr.Items)-1; i < j; i, j = i+1, j-1 {
		arr.Items[i], arr.Items[j] = arr.Items[j], arr.Items[i]
	}
	return types.Ok(arr)
}

// builtinArrayFill implements arr.fill(v, start, end)
func builtinArrayFill(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "fill")
	if r.IsError() {
		return r
	}
	n := len(arr.Items)
	start := relativeIndex(types.Arg(args, 1), n, 0)
	end := relativeIndex(types.Arg(args, 2), n, n)
	for i := start; i < end; i++ {
		arr.Items[i] = types.Arg(args, 0)
	}
	return types.Ok(arr)
}

// builtinArraySort implements arr.sort(compareFn). Undefined values sort last.
func builtinArraySort(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	arr, r := thisArray(rt, this, "sort")
	if r.IsError() {
		return r
	}
	cmp := callable(types.Arg(args, 0))
	if cmp == nil {
		if _, ok := types.Arg(args, 0).(types.UndefinedValue); !ok {
			return rt.ThrowError(types.ObjTypeTypeError, "comparator must be a function")
		}
	}

	var failed types.Result
	less := func(a, b types.Value) bool {
		if failed.IsError() {
			return false
		}
		_, au := a.(types.UndefinedValue)
		_, bu := b.(types.UndefinedValue)
		if au || bu {
			return !au && bu
		}
		if cmp != nil {
			res := rt.Call(cmp, types.Undefined, []types.Value{a, b})
			if res.IsError() {
				failed = res
				return false
			}
			return types.ToNumber(res.Val) < 0
		}
		as, r := rt.ToString(a)
		if r.IsError() {
			failed = r
			return false
		}
		bs, r := rt.ToString(b)
		if r.IsError() {
			failed = r
			return false
		}
		return as < bs
	}

	sort.SliceStable(arr.Items, func(i, j int) bool {
		return less(arr.Items[i], arr.Items[j])
	})
	if failed.IsError() {
		return failed
	}
	return types.Ok(arr)
}
