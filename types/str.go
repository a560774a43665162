package types

import (
	"strconv"
	"strings"
)

// StrValue represents a string
type StrValue struct {
	val string
}

// NewStr creates a new string value
func NewStr(s string) StrValue {
	return StrValue{val: s}
}

// Type returns the type code for strings
func (s StrValue) Type() TypeCode {
	return TYPE_STRING
}

// String returns the raw string contents
func (s StrValue) String() string {
	return s.val
}

// Truthy returns whether the string is non-empty
func (s StrValue) Truthy() bool {
	return len(s.val) > 0
}

// Equal compares two values for strict equality
func (s StrValue) Equal(other Value) bool {
	o, ok := other.(StrValue)
	return ok && o.val == s.val
}

// Value returns the underlying Go string
func (s StrValue) Value() string {
	return s.val
}

// Quote returns the string as a double-quoted literal
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u00`)
				h := strconv.FormatInt(int64(r), 16)
				if len(h) < 2 {
					b.WriteByte('0')
				}
				b.WriteString(h)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
