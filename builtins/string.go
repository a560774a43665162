package builtins

import (
	"strings"
	"unicode"

	"ember/types"
)

func stringSpec() TypeSpec {
	return TypeSpec{
		Name:      "String",
		Parent:    types.ObjTypeObject,
		ProtoKind: types.ObjTypeObject,
		Ctor:      builtinString,
		Length:    1,
		Static: []Method{
			{"fromCharCode", 1, builtinStringFromCharCode},
		},
		Methods: []Method{
			{"toString", 0, builtinStringValueOf},
			{"valueOf", 0, builtinStringValueOf},
			{"toUpperCase", 0, builtinStringToUpperCase},
			{"toLowerCase", 0, builtinStringToLowerCase},
			{"indexOf", 1, builtinStringIndexOf},
			{"lastIndexOf", 1, builtinStringLastIndexOf},
			{"includes", 1, builtinStringIncludes},
			{"startsWith", 1, builtinStringStartsWith},
			{"endsWith", 1, builtinStringEndsWith},
			{"slice", 2, builtinStringSlice},
			{"substring", 2, builtinStringSubstring},
			{"split", 2, builtinStringSplit},
			{"charAt", 1, builtinStringCharAt},
			{"charCodeAt", 1, builtinStringCharCodeAt},
			{"trim", 0, builtinStringTrim},
			{"trimStart", 0, builtinStringTrimStart},
			{"trimEnd", 0, builtinStringTrimEnd},
			{"repeat", 1, builtinStringRepeat},
			{"padStart", 2, builtinStringPadStart},
			{"padEnd", 2, builtinStringPadEnd},
			{"concat", 1, builtinStringConcat},
			{"replace", 2, builtinStringReplace},
		},
	}
}

// builtinString implements String(v). With new it returns a wrapper object.
func builtinString(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s := ""
	if len(args) > 0 {
		var r types.Result
		s, r = rt.ToString(args[0])
		if r.IsError() {
			return r
		}
	}
	if rt.IsConstructor() {
		o := rt.NewObject()
		o.Kind = types.ObjTypeString
		o.Proto = rt.Proto(types.ObjTypeString)
		o.Internal = types.NewStr(s)
		return types.Ok(o)
	}
	return types.Ok(types.NewStr(s))
}

// thisString resolves a string primitive or wrapper, coercing other values
func thisString(rt types.Runtime, this types.Value) ([]rune, types.Result) {
	switch v := this.(type) {
	case types.StrValue:
		return []rune(v.Value()), types.Ok(nil)
	case types.UndefinedValue, types.NullValue:
		return nil, rt.ThrowError(types.ObjTypeTypeError, "String.prototype method called on %s", v.String())
	case *types.Object:
		if s, ok := v.Internal.(types.StrValue); ok && v.Kind == types.ObjTypeString {
			return []rune(s.Value()), types.Ok(nil)
		}
	}
	s, r := rt.ToString(this)
	return []rune(s), r
}

// builtinStringFromCharCode implements String.fromCharCode(...codes)
func builtinStringFromCharCode(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	var b strings.Builder
	for _, a := range args {
		b.WriteRune(rune(types.ToUint32(a) & 0xffff))
	}
	return types.Ok(types.NewStr(b.String()))
}

// builtinStringValueOf implements str.valueOf() and str.toString()
func builtinStringValueOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	switch v := this.(type) {
	case types.StrValue:
		return types.Ok(v)
	case *types.Object:
		if s, ok := v.Internal.(types.StrValue); ok {
			return types.Ok(s)
		}
	}
	return rt.ThrowError(types.ObjTypeTypeError, "String.prototype.valueOf requires a string")
}

func stringMethod(fn func(s string) string) types.NativeFunc {
	return func(rt types.Runtime, this types.Value, args []types.Value) types.Result {
		s, r := thisString(rt, this)
		if r.IsError() {
			return r
		}
		return types.Ok(types.NewStr(fn(string(s))))
	}
}

var (
	builtinStringToUpperCase = stringMethod(strings.ToUpper)
	builtinStringToLowerCase = stringMethod(strings.ToLower)
	builtinStringTrim        = stringMethod(func(s string) string { return strings.TrimFunc(s, unicode.IsSpace) })
	builtinStringTrimStart   = stringMethod(func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) })
	builtinStringTrimEnd     = stringMethod(func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) })
)

// runeIndex returns the index of sub in s at or after from, in runes
func runeIndex(s, sub []rune, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if string(s[i:i+len(sub)]) == string(sub) {
			return i
		}
	}
	return -1
}

// builtinStringIndexOf implements str.indexOf(sub[, from])
func builtinStringIndexOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	sub, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	from := relativeIndex(types.Arg(args, 1), len(s), 0)
	return types.Ok(types.NewInt(int64(runeIndex(s, []rune(sub), from))))
}

// builtinStringLastIndexOf implements str.lastIndexOf(sub)
func builtinStringLastIndexOf(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	sub, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	needle := []rune(sub)
	for i := len(s) - len(needle); i >= 0; i-- {
		if string(s[i:i+len(needle)]) == sub {
			return types.Ok(types.NewInt(int64(i)))
		}
	}
	return types.Ok(types.NewInt(-1))
}

// builtinStringIncludes implements str.includes(sub)
func builtinStringIncludes(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	sub, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	return types.Ok(types.NewBool(strings.Contains(string(s), sub)))
}

// builtinStringStartsWith implements str.startsWith(prefix)
func builtinStringStartsWith(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	sub, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	return types.Ok(types.NewBool(strings.HasPrefix(string(s), sub)))
}

// builtinStringEndsWith implements str.endsWith(suffix)
func builtinStringEndsWith(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	sub, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	return types.Ok(types.NewBool(strings.HasSuffix(string(s), sub)))
}

// builtinStringSlice implements str.slice(start, end)
func builtinStringSlice(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	start := relativeIndex(types.Arg(args, 0), len(s), 0)
	end := relativeIndex(types.Arg(args, 1), len(s), len(s))
	if end < start {
		end = start
	}
	return types.Ok(types.NewStr(string(s[start:end])))
}

// builtinStringSubstring implements str.substring(start, end)
func builtinStringSubstring(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	clamp := func(v types.Value, def int) int {
		if _, ok := v.(types.UndefinedValue); ok {
			return def
		}
		f := types.ToInteger(v)
		if f < 0 {
			return 0
		}
		if f > float64(len(s)) {
			return len(s)
		}
		return int(f)
	}
	start := clamp(types.Arg(args, 0), 0)
	end := clamp(types.Arg(args, 1), len(s))
	if start > end {
		start, end = end, start
	}
	return types.Ok(types.NewStr(string(s[start:end])))
}

// builtinStringSplit implements str.split(sep[, limit])
func builtinStringSplit(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	limit := -1
	if _, ok := types.Arg(args, 1).(types.UndefinedValue); !ok {
		limit = int(types.ToUint32(args[1]))
	}

	var parts []string
	switch types.Arg(args, 0).(type) {
	case types.UndefinedValue:
		parts = []string{string(s)}
	default:
		sep, r := argString(rt, args, 0)
		if r.IsError() {
			return r
		}
		if sep == "" {
			for _, c := range s {
				parts = append(parts, string(c))
			}
		} else {
			parts = strings.Split(string(s), sep)
		}
	}
	if limit >= 0 && len(parts) > limit {
		parts = parts[:limit]
	}

	out := make([]types.Value, len(parts))
	for i, p := range parts {
		out[i] = types.NewStr(p)
	}
	return types.Ok(rt.NewArray(out))
}

// builtinStringCharAt implements str.charAt(i)
func builtinStringCharAt(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	i := types.ToInteger(types.Arg(args, 0))
	if i < 0 || i >= float64(len(s)) {
		return types.Ok(types.NewStr(""))
	}
	return types.Ok(types.NewStr(string(s[int(i)])))
}

// builtinStringCharCodeAt implements str.charCodeAt(i)
func builtinStringCharCodeAt(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	i := types.ToInteger(types.Arg(args, 0))
	if i < 0 || i >= float64(len(s)) {
		return types.Ok(types.NewNum(nan()))
	}
	return types.Ok(types.NewInt(int64(s[int(i)])))
}

// builtinStringRepeat implements str.repeat(n)
func builtinStringRepeat(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	n := types.ToInteger(types.Arg(args, 0))
	if n < 0 || n > 1<<28 {
		return rt.ThrowError(types.ObjTypeRangeError, "Invalid count value")
	}
	if err := rt.Alloc(int64(len(s)) * int64(n)); err != nil {
		return types.Thrown(types.MemoryError)
	}
	return types.Ok(types.NewStr(strings.Repeat(string(s), int(n))))
}

func pad(rt types.Runtime, this types.Value, args []types.Value, start bool) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	width := int(types.ToInteger(types.Arg(args, 0)))
	fill := " "
	if _, ok := types.Arg(args, 1).(types.UndefinedValue); !ok {
		fill, r = argString(rt, args, 1)
		if r.IsError() {
			return r
		}
	}
	if width <= len(s) || fill == "" {
		return types.Ok(types.NewStr(string(s)))
	}
	fr := []rune(fill)
	padding := make([]rune, 0, width-len(s))
	for len(padding) < width-len(s) {
		padding = append(padding, fr[len(padding)%len(fr)])
	}
	if start {
		return types.Ok(types.NewStr(string(padding) + string(s)))
	}
	return types.Ok(types.NewStr(string(s) + string(padding)))
}

// builtinStringPadStart implements str.padStart(width, fill)
func builtinStringPadStart(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return pad(rt, this, args, true)
}

// builtinStringPadEnd implements str.padEnd(width, fill)
func builtinStringPadEnd(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return pad(rt, this, args, false)
}

// builtinStringConcat implements str.concat(...values)
func builtinStringConcat(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	var b strings.Builder
	b.WriteString(string(s))
	for i := range args {
		part, r := argString(rt, args, i)
		if r.IsError() {
			return r
		}
		b.WriteString(part)
	}
	return types.Ok(types.NewStr(b.String()))
}

// builtinStringReplace implements str.replace(pattern, replacement) for
// string patterns; a function replacement receives the match and offset
func builtinStringReplace(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := thisString(rt, this)
	if r.IsError() {
		return r
	}
	pattern, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	idx := runeIndex(s, []rune(pattern), 0)
	if idx < 0 {
		return types.Ok(types.NewStr(string(s)))
	}

	var repl string
	if fn := callable(types.Arg(args, 1)); fn != nil {
		res := rt.Call(fn, types.Undefined, []types.Value{types.NewStr(pattern), types.NewInt(int64(idx)), types.NewStr(string(s))})
		if res.IsError() {
			return res
		}
		repl, r = rt.ToString(res.Val)
	} else {
		repl, r = argString(rt, args, 1)
	}
	if r.IsError() {
		return r
	}
	end := idx + len([]rune(pattern))
	return types.Ok(types.NewStr(string(s[:idx]) + repl + string(s[end:])))
}
