package types_test

import (
	"math"
	"testing"

	"github.com/sandrolain/dataexpr/pkg/types"
)

func TestValueToString(t *testing.T) {
	tests := []struct {
		name  string
		value types.Value
		want  string
	}{
		{"integer", types.NewNumber(15), "15"},
		{"three decimals", types.NewNumber(50000.0 / 1500.0), "33.333"},
		{"trailing zeros", types.NewNumber(8.7), "8.7"},
		{"negative", types.NewNumber(-1), "-1"},
		{"rounded to zero", types.NewNumber(-0.0001), "0"},
		{"negative zero", types.NewNumber(math.Copysign(0, -1)), "0"},
		{"infinity", types.NewNumber(math.Inf(1)), "inf"},
		{"negative infinity", types.NewNumber(math.Inf(-1)), "-inf"},
		{"nan", types.NewNumber(math.NaN()), "nan"},
		{"true", types.NewBool(true), "1"},
		{"false", types.NewBool(false), "0"},
		{"string", types.NewString("abc"), "abc"},
		{"zero value", types.Value{}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.ToString(); got != tt.want {
				t.Errorf("ToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueToNumber(t *testing.T) {
	tests := []struct {
		name  string
		value types.Value
		want  float64
	}{
		{"number", types.NewNumber(2.5), 2.5},
		{"true", types.NewBool(true), 1},
		{"false", types.NewBool(false), 0},
		{"numeric string", types.NewString("12.5"), 12.5},
		{"padded string", types.NewString("  7 "), 7},
		{"numeric prefix", types.NewString("10px"), 10},
		{"exponent prefix", types.NewString("1e2x"), 100},
		{"dangling exponent", types.NewString("3e"), 3},
		{"signed prefix", types.NewString("-4.5em"), -4.5},
		{"text", types.NewString("abc"), 0},
		{"empty", types.NewString(""), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.ToNumber(); got != tt.want {
				t.Errorf("ToNumber() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueToBool(t *testing.T) {
	tests := []struct {
		name  string
		value types.Value
		want  bool
	}{
		{"zero", types.NewNumber(0), false},
		{"non-zero", types.NewNumber(-2), true},
		{"nan", types.NewNumber(math.NaN()), false},
		{"true string", types.NewString("true"), true},
		{"upper true string", types.NewString(" TRUE "), true},
		{"false string", types.NewString("false"), false},
		{"word", types.NewString("foxdog"), false},
		{"empty string", types.NewString(""), false},
		{"numeric string", types.NewString("1"), true},
		{"zero string", types.NewString("0.0"), false},
		{"bool", types.NewBool(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.ToBool(); got != tt.want {
				t.Errorf("ToBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperators(t *testing.T) {
	n := types.NewNumber
	s := types.NewString
	b := types.NewBool

	tests := []struct {
		name string
		got  types.Value
		want types.Value
	}{
		{"add numbers", types.Add(n(2), n(3)), n(5)},
		{"add concatenates when a side is text", types.Add(s("8.70"), s("m")), s("8.70m")},
		{"add number and text", types.Add(n(1), s("px")), s("1px")},
		{"add bools", types.Add(b(true), b(true)), n(2)},
		{"sub text coerces", types.Sub(s("10"), n(4)), n(6)},
		{"mul", types.Mul(n(3), n(4)), n(12)},
		{"div", types.Div(n(50000), n(1500)), n(50000.0 / 1500.0)},
		{"div by zero", types.Div(n(1), n(0)), n(math.Inf(1))},
		{"equal numbers", types.Equal(n(1), b(true)), b(true)},
		{"equal text", types.Equal(s("1"), n(1)), b(true)},
		{"equal text differs", types.Equal(s("1.0"), n(1)), b(false)},
		{"not equal", types.NotEqual(b(true), b(false)), b(true)},
		{"less", types.Less(n(1), n(2)), b(true)},
		{"less coerces text", types.Less(s("9"), s("10")), b(true)},
		{"less equal", types.LessEqual(n(2), n(2)), b(true)},
		{"greater", types.Greater(n(1), n(2)), b(false)},
		{"greater equal", types.GreaterEqual(n(3), n(2)), b(true)},
		{"and", types.And(n(1), s("true")), b(true)},
		{"or", types.Or(n(0), s("")), b(false)},
		{"not", types.Not(s("false")), b(true)},
		{"negate", types.Negate(s("5")), n(-5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Kind() != tt.want.Kind() || tt.got.ToString() != tt.want.ToString() {
				t.Errorf("got %s(%s), want %s(%s)", tt.got.Kind(), tt.got, tt.want.Kind(), tt.want)
			}
		})
	}
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		in   interface{}
		kind types.Kind
		text string
		ok   bool
	}{
		{3, types.KindNumber, "3", true},
		{int64(-2), types.KindNumber, "-2", true},
		{uint8(7), types.KindNumber, "7", true},
		{float32(1.5), types.KindNumber, "1.5", true},
		{"x", types.KindString, "x", true},
		{true, types.KindBoolean, "1", true},
		{types.NewString("v"), types.KindString, "v", true},
		{[]interface{}{1}, types.KindNumber, "0", false},
		{nil, types.KindNumber, "0", false},
	}

	for _, tt := range tests {
		v, ok := types.FromNative(tt.in)
		if ok != tt.ok {
			t.Errorf("FromNative(%#v) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if v.Kind() != tt.kind || v.ToString() != tt.text {
			t.Errorf("FromNative(%#v) = %s(%s), want %s(%s)", tt.in, v.Kind(), v, tt.kind, tt.text)
		}
	}
}

func TestNativeRoundTrip(t *testing.T) {
	for _, v := range []types.Value{types.NewNumber(2.25), types.NewString("s"), types.NewBool(true)} {
		back, ok := types.FromNative(v.Native())
		if !ok || back != v {
			t.Errorf("round trip of %s(%s) gave %s(%s)", v.Kind(), v, back.Kind(), back)
		}
	}
}

func TestTrimTrailingZeros(t *testing.T) {
	tests := map[string]string{
		"3.6234500000": "3.62345",
		"3.00":         "3",
		"100":          "100",
		"0.500":        "0.5",
	}
	for in, want := range tests {
		if got := types.TrimTrailingZeros(in); got != want {
			t.Errorf("TrimTrailingZeros(%q) = %q, want %q", in, got, want)
		}
	}
}
