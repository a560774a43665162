package types

import (
	"math"
	"strconv"
	"strings"
)

// NumValue represents a number (IEEE 754 double)
type NumValue struct {
	Val float64
}

// NewNum creates a number value
func NewNum(f float64) NumValue {
	return NumValue{Val: f}
}

// NewInt creates a number value from an integer
func NewInt(i int64) NumValue {
	return NumValue{Val: float64(i)}
}

// Type returns the type code for numbers
func (n NumValue) Type() TypeCode {
	return TYPE_NUMBER
}

// String returns the canonical number-to-string conversion
func (n NumValue) String() string {
	return FormatNumber(n.Val)
}

// Equal checks strict equality; NaN is never equal to itself
func (n NumValue) Equal(other Value) bool {
	o, ok := other.(NumValue)
	return ok && o.Val == n.Val
}

// Truthy returns false for 0 and NaN
func (n NumValue) Truthy() bool {
	return n.Val != 0 && !math.IsNaN(n.Val)
}

// FormatNumber converts a float to its shortest script representation
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// exponent form: 1e+21, 1.5e-7
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	exp = strings.TrimLeft(exp[1:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + string(sign) + exp
}

// ParseNumber converts a string to a number using script conversion rules
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		if n, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
