package builtins

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"ember/types"
)

func globalFunctions() []Method {
	return []Method{
		{"parseInt", 2, builtinParseInt},
		{"parseFloat", 1, builtinParseFloat},
		{"isNaN", 1, builtinIsNaN},
		{"isFinite", 1, builtinIsFinite},
	}
}

// builtinParseInt implements parseInt(str[, radix])
func builtinParseInt(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	sign := 1.0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	radix := int(types.ToInt32(types.Arg(args, 1)))
	switch {
	case radix == 0:
		radix = 10
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			radix = 16
			s = s[2:]
		}
	case radix == 16:
		if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s = s[2:]
		}
	case radix < 2 || radix > 36:
		return types.Ok(types.NewNum(math.NaN()))
	}

	end := 0
	for end < len(s) {
		d := digitValue(s[end])
		if d < 0 || d >= radix {
			break
		}
		end++
	}
	if end == 0 {
		return types.Ok(types.NewNum(math.NaN()))
	}

	result := 0.0
	for _, c := range []byte(s[:end]) {
		result = result*float64(radix) + float64(digitValue(c))
	}
	return types.Ok(types.NewNum(sign * result))
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return -1
}

// builtinParseFloat implements parseFloat(str): the longest numeric prefix
func builtinParseFloat(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	s, r := argString(rt, args, 0)
	if r.IsError() {
		return r
	}
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	rest := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(rest, "Infinity") {
		if strings.HasPrefix(s, "-") {
			return types.Ok(types.NewNum(math.Inf(-1)))
		}
		return types.Ok(types.NewNum(math.Inf(1)))
	}

	for end := len(s); end > 0; end-- {
		prefix := s[:end]
		if strings.ContainsAny(prefix[len(prefix)-1:], "eE+-") {
			continue
		}
		if f, err := strconv.ParseFloat(prefix, 64); err == nil && !strings.ContainsAny(prefix, "xXnN_") {
			return types.Ok(types.NewNum(f))
		}
	}
	return types.Ok(types.NewNum(math.NaN()))
}

// builtinIsNaN implements isNaN(v)
func builtinIsNaN(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	return types.Ok(types.NewBool(math.IsNaN(types.ToNumber(types.Arg(args, 0)))))
}

// builtinIsFinite implements isFinite(v)
func builtinIsFinite(rt types.Runtime, this types.Value, args []types.Value) types.Result {
	f := types.ToNumber(types.Arg(args, 0))
	return types.Ok(types.NewBool(!math.IsNaN(f) && !math.IsInf(f, 0)))
}
