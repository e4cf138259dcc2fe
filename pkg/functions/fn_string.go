package functions

import (
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/dataexpr/pkg/types"
)

// fnToUpper upper-cases the text form of the value. Extra arguments are
// accepted and ignored.
func fnToUpper(value types.Value, _ []types.Value) types.Value {
	return types.NewString(strings.ToUpper(value.ToString()))
}

// fnToLower lower-cases the text form of the value. Extra arguments are
// accepted and ignored.
func fnToLower(value types.Value, _ []types.Value) types.Value {
	return types.NewString(strings.ToLower(value.ToString()))
}

func fnTrim(value types.Value, _ []types.Value) types.Value {
	return types.NewString(strings.TrimSpace(value.ToString()))
}

// fnLength counts the characters of the text form of the value.
func fnLength(value types.Value, _ []types.Value) types.Value {
	return types.NewNumber(float64(utf8.RuneCountInString(value.ToString())))
}
