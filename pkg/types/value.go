package types

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the active representation of a Value.
type Kind uint8

const (
	KindNumber Kind = iota
	KindString
	KindBoolean
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	default:
		return "(unknown)"
	}
}

// Value is a number, a string or a boolean. The zero Value is the number 0.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// NewNumber returns a number Value.
func NewNumber(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// NewString returns a string Value.
func NewString(s string) Value {
	return Value{kind: KindString, str: s}
}

// NewBool returns a boolean Value.
func NewBool(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

// Kind returns the active representation.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsString reports whether v holds a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsBool reports whether v holds a boolean.
func (v Value) IsBool() bool { return v.kind == KindBoolean }

// ToString converts v to its canonical text.
//
// Booleans print as "1" and "0". Numbers print with at most three decimals
// and no trailing zeros.
func (v Value) ToString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBoolean:
		if v.b {
			return "1"
		}
		return "0"
	default:
		return FormatNumber(v.num)
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return v.ToString()
}

// ToNumber converts v to a number. Text that does not start with a number
// converts to 0.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindString:
		return parseNumberPrefix(v.str)
	case KindBoolean:
		if v.b {
			return 1
		}
		return 0
	default:
		return v.num
	}
}

// ToBool converts v to a boolean.
//
// Numbers are true when non-zero. Strings are true when they read "true"
// or hold a non-zero number.
func (v Value) ToBool() bool {
	switch v.kind {
	case KindString:
		s := strings.TrimSpace(v.str)
		if strings.EqualFold(s, "true") {
			return true
		}
		f, err := strconv.ParseFloat(s, 64)
		return err == nil && f != 0 && !math.IsNaN(f)
	case KindBoolean:
		return v.b
	default:
		return v.num != 0 && !math.IsNaN(v.num)
	}
}

// Native returns v as a Go float64, string or bool.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindBoolean:
		return v.b
	default:
		return v.num
	}
}

// FromNative converts a Go scalar into a Value.
func FromNative(x interface{}) (Value, bool) {
	switch t := x.(type) {
	case Value:
		return t, true
	case float64:
		return NewNumber(t), true
	case float32:
		return NewNumber(float64(t)), true
	case int:
		return NewNumber(float64(t)), true
	case int8:
		return NewNumber(float64(t)), true
	case int16:
		return NewNumber(float64(t)), true
	case int32:
		return NewNumber(float64(t)), true
	case int64:
		return NewNumber(float64(t)), true
	case uint:
		return NewNumber(float64(t)), true
	case uint8:
		return NewNumber(float64(t)), true
	case uint16:
		return NewNumber(float64(t)), true
	case uint32:
		return NewNumber(float64(t)), true
	case uint64:
		return NewNumber(float64(t)), true
	case string:
		return NewString(t), true
	case bool:
		return NewBool(t), true
	default:
		return Value{}, false
	}
}

// FormatNumber prints f with three fixed decimals and strips trailing zeros.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := TrimTrailingZeros(strconv.FormatFloat(f, 'f', 3, 64))
	if s == "-0" {
		return "0"
	}
	return s
}

// TrimTrailingZeros removes trailing zeros after a decimal point, and the
// point itself when nothing remains behind it.
func TrimTrailingZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// parseNumberPrefix parses the longest numeric prefix of s, like strtod.
func parseNumberPrefix(s string) float64 {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if exp < len(s) && isDigit(s[exp]) {
			for exp < len(s) && isDigit(s[exp]) {
				exp++
			}
			end = exp
		}
	}

	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
