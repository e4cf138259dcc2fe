package types_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sandrolain/dataexpr/pkg/types"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input string
		want  types.Address
	}{
		{"radius", types.Address{{Name: "radius"}}},
		{"a.b", types.Address{{Name: "a"}, {Name: "b"}}},
		{"items[2]", types.Address{{Name: "items"}, {Index: 2}}},
		{"items[2].label", types.Address{{Name: "items"}, {Index: 2}, {Name: "label"}}},
		{"grid[1][0]", types.Address{{Name: "grid"}, {Index: 1}, {Index: 0}}},
		{"_x1", types.Address{{Name: "_x1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseAddress(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
			if got.Root() != tt.want[0].Name {
				t.Errorf("Root() = %q", got.Root())
			}
		})
	}
}

func TestParseAddressErrors(t *testing.T) {
	for _, input := range []string{"", "1a", ".a", "[0]", "a.", "a[", "a[x]", "a[-1]", "a b", "a..b"} {
		if _, err := types.ParseAddress(input); err == nil {
			t.Errorf("ParseAddress(%q): expected error", input)
		}
	}
}

func TestAddressList(t *testing.T) {
	a, _ := types.ParseAddress("a")
	b, _ := types.ParseAddress("b.c[1]")
	list := types.AddressList{a, b}

	if idx, ok := list.Index("b.c[1]"); !ok || idx != 1 {
		t.Errorf("Index(b.c[1]) = %d, %v", idx, ok)
	}
	if _, ok := list.Index("z"); ok {
		t.Error("Index(z) should not be found")
	}
	if got := strings.Join(list.Names(), " "); got != "a b.c[1]" {
		t.Errorf("Names() = %q", got)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		code types.ErrorCode
		kind types.ErrorKind
	}{
		{types.ErrStringNotClosed, types.KindLexical},
		{types.ErrSyntaxError, types.KindSyntax},
		{types.ErrMaxDepthExceeded, types.KindSyntax},
		{types.ErrUndefinedFunction, types.KindBinding},
		{types.ErrStackUnderflow, types.KindRuntime},
		{types.ErrorCode(""), types.KindUnknown},
	}
	for _, tt := range tests {
		if got := tt.code.Kind(); got != tt.kind {
			t.Errorf("%q.Kind() = %s, want %s", tt.code, got, tt.kind)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("boom")
	err := types.NewError(types.ErrUndefinedVariable, "Unknown variable: x", 3).WithToken("x").WithCause(cause)

	if got := err.Error(); got != "B0301 at position 3: Unknown variable: x" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through errors.Is")
	}

	noPos := types.NewError(types.ErrStackUnderflow, "stack underflow", -1)
	if got := noPos.Error(); got != "R0401: stack underflow" {
		t.Errorf("Error() = %q", got)
	}
}
