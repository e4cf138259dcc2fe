package functions

import (
	"math"
	"strconv"
	"strings"

	"github.com/sandrolain/dataexpr/pkg/types"
)

// maxPrecision bounds the precision argument of format.
const maxPrecision = 32

// fnFormat prints a number with a fixed number of decimals:
// format(precision [, trim_zeros]).
func fnFormat(value types.Value, args []types.Value) types.Value {
	precision := int(args[0].ToNumber())
	if precision < 0 {
		precision = 0
	} else if precision > maxPrecision {
		precision = maxPrecision
	}

	s := strconv.FormatFloat(value.ToNumber(), 'f', precision, 64)
	if len(args) > 1 && args[1].ToBool() {
		s = types.TrimTrailingZeros(s)
	}
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		s = s[1:]
	}
	return types.NewString(s)
}

// fnRound rounds half away from zero.
func fnRound(value types.Value, _ []types.Value) types.Value {
	return types.NewNumber(math.Round(value.ToNumber()))
}

func fnCeil(value types.Value, _ []types.Value) types.Value {
	return types.NewNumber(math.Ceil(value.ToNumber()))
}

func fnFloor(value types.Value, _ []types.Value) types.Value {
	return types.NewNumber(math.Floor(value.ToNumber()))
}

func fnAbs(value types.Value, _ []types.Value) types.Value {
	return types.NewNumber(math.Abs(value.ToNumber()))
}
