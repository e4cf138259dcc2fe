package dataexpr_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sandrolain/dataexpr"
	"github.com/sandrolain/dataexpr/pkg/datamodel"
	"github.com/sandrolain/dataexpr/pkg/functions"
	"github.com/sandrolain/dataexpr/pkg/types"
)

func newModel(t *testing.T) (*datamodel.Model, *float64, *string) {
	t.Helper()
	radius := 8.7
	colorName := "black"
	m := datamodel.New()
	if err := m.Bind("radius", &radius); err != nil {
		t.Fatal(err)
	}
	if err := m.Bind("color_name", &colorName); err != nil {
		t.Fatal(err)
	}
	return m, &radius, &colorName
}

func TestExecute(t *testing.T) {
	m, _, _ := newModel(t)
	reg := functions.NewRegistry()

	tests := []struct {
		input string
		want  string
	}{
		{"!!10 - 1 ? 'hello' : 'world' | to_upper", "WORLD"},
		{"true == false", "0"},
		{"50000 / 1500", "33.333"},
		{"(radius | format(2)) + 'm'", "8.70m"},
		{"!!('tr' + 'ue')", "1"},
		{"3.62345 | format(10, true)", "3.62345"},
		{"3.0001 | format(2, true)", "3"},
		{"(3.42345 | round) + 0.2", "3.2"},
		{"radius < 10.5 ? 'small' : 'large'", "small"},
		{"'It\\'s ' + color_name", "It's black"},
		{"5*1+2", "7"},
		{"5*(1+2)", "15"},
		{"2*(-2)/4", "-1"},
		{"5.2 + 19 + 'px'", "24.2px"},
		{"(3.42345 | format(0)) + 0.2", "30.2"},
		{"'hello world' | to_upper(5 + 12 == 17 ? 'yes' : 'no', 9*2)", "HELLO WORLD"},
		{"'It\\'s a fit'", "It's a fit"},
		{"true || false ? true && 3==1+2 ? 'Absolutely!' : 'well..' : 'no'", "Absolutely!"},
		{"5 == 1 + 2*2 || 8 == 1 + 4  ? 'yes' : 'no'", "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := dataexpr.ParseExpression(tt.input, m, reg)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			v, err := dataexpr.Execute(expr, m)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if v.ToString() != tt.want {
				t.Errorf("%s = %q, want %q", tt.input, v.ToString(), tt.want)
			}
		})
	}
}

func TestExecuteComputedVariable(t *testing.T) {
	m := datamodel.New()
	if err := m.Define("color_name", "color"); err != nil {
		t.Fatal(err)
	}
	if err := m.BindFunc("color_value", func() types.Value {
		return types.NewString("180, 100, 255, 255")
	}); err != nil {
		t.Fatal(err)
	}

	expr, err := dataexpr.ParseExpression("(color_name) + (': rgba(' + color_value + ')')", m, functions.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	v, err := dataexpr.Execute(expr, m)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.ToString(); got != "color: rgba(180, 100, 255, 255)" {
		t.Errorf("got %q", got)
	}
}

func TestExecuteShortCircuitSkipsCalls(t *testing.T) {
	m, _, _ := newModel(t)
	calls := 0
	reg := functions.NewRegistry()
	reg.Register(&types.Function{
		Name:    "tick",
		MinArgs: 1,
		MaxArgs: 1,
		Impl: func(v types.Value, _ []types.Value) types.Value {
			calls++
			return v
		},
	})

	tests := []struct {
		input string
		want  string
		calls int
	}{
		{"false && (1 | tick)", "0", 0},
		{"true || (1 | tick)", "1", 0},
		{"true && (1 | tick)", "1", 1},
		{"false || (0 | tick)", "0", 1},
		{"radius > 100 ? (1 | tick) : 2", "2", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			calls = 0
			expr, err := dataexpr.ParseExpression(tt.input, m, reg)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			v, err := dataexpr.Execute(expr, m)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if v.ToString() != tt.want {
				t.Errorf("%s = %q, want %q", tt.input, v.ToString(), tt.want)
			}
			if calls != tt.calls {
				t.Errorf("tick called %d times, want %d", calls, tt.calls)
			}
		})
	}
}

func TestExecuteAssignment(t *testing.T) {
	m, radius, colorName := newModel(t)

	expr, err := dataexpr.ParseAssignment("radius = 4; color_name = 'image-color'", m, functions.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if err := dataexpr.ExecuteAssignment(expr, m); err != nil {
		t.Fatal(err)
	}
	if *radius != 4 || *colorName != "image-color" {
		t.Errorf("radius = %v, color_name = %q", *radius, *colorName)
	}
	if got := strings.Join(m.DirtyVariables(), ","); got != "color_name,radius" {
		t.Errorf("dirty = %q", got)
	}
}

func TestProgramShapeMismatch(t *testing.T) {
	m, _, _ := newModel(t)
	reg := functions.NewRegistry()

	assignment, err := dataexpr.ParseAssignment("radius = 1", m, reg)
	if err != nil {
		t.Fatal(err)
	}
	expression, err := dataexpr.ParseExpression("radius", m, reg)
	if err != nil {
		t.Fatal(err)
	}

	var exprErr *types.Error
	if _, err := dataexpr.Execute(assignment, m); !errors.As(err, &exprErr) || exprErr.Code != types.ErrProgramShape {
		t.Errorf("Execute(assignment) = %v", err)
	}
	if err := dataexpr.ExecuteAssignment(expression, m); !errors.As(err, &exprErr) || exprErr.Code != types.ErrProgramShape {
		t.Errorf("ExecuteAssignment(expression) = %v", err)
	}
	if _, err := dataexpr.Execute(nil, m); !errors.As(err, &exprErr) || exprErr.Code != types.ErrInvalidProgram {
		t.Errorf("Execute(nil) = %v", err)
	}
}

func TestParseErrorsFromSpecExamples(t *testing.T) {
	m, _, _ := newModel(t)
	for _, input := range []string{"5 * ", "(5 + 2", "5 = 2"} {
		if _, err := dataexpr.ParseExpression(input, m, functions.NewRegistry()); err == nil {
			t.Errorf("ParseExpression(%q): expected error", input)
		}
	}
}

func TestMustParseExpression(t *testing.T) {
	m, _, _ := newModel(t)
	if expr := dataexpr.MustParseExpression("radius + 1", m, nil); expr.Source() != "radius + 1" {
		t.Errorf("Source() = %q", expr.Source())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	dataexpr.MustParseExpression("radius +", m, nil)
}

func TestEngine(t *testing.T) {
	m, radius, _ := newModel(t)
	var logs bytes.Buffer
	engine := dataexpr.NewEngine(m,
		dataexpr.WithCache(8),
		dataexpr.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	v, err := engine.Eval("radius | format(1)")
	if err != nil {
		t.Fatal(err)
	}
	if v.ToString() != "8.7" {
		t.Errorf("Eval = %q", v.ToString())
	}

	if err := engine.Assign("radius = radius * 2"); err != nil {
		t.Fatal(err)
	}
	if *radius != 17.4 {
		t.Errorf("radius = %v, want 17.4", *radius)
	}

	first, err := engine.Compile("radius + 1", false)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := engine.Compile("radius + 1", false)
	if first != second {
		t.Error("cached compile returned a different program")
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected logs: %s", logs.String())
	}

	if _, err := engine.Eval("radius +"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(logs.String(), "rejected data expression") || !strings.Contains(logs.String(), "radius +") {
		t.Errorf("rejection not logged: %s", logs.String())
	}
}

func TestEngineExecuteTracesWithEngineLogger(t *testing.T) {
	m, _, _ := newModel(t)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := dataexpr.NewEngine(m, dataexpr.WithLogger(logger), dataexpr.WithDebug(true))

	expr, err := engine.Compile("radius + 1", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Execute(expr); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "msg=exec") {
		t.Errorf("no trace in engine logger:\n%s", logs.String())
	}

	assignment, err := engine.Compile("radius = 2", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Execute(assignment); err == nil {
		t.Fatal("expected shape error")
	}
	if !strings.Contains(logs.String(), "rejected data expression") {
		t.Errorf("shape error not logged:\n%s", logs.String())
	}
	if err := engine.ExecuteAssignment(assignment); err != nil {
		t.Fatal(err)
	}
}

func TestEngineCustomRegistry(t *testing.T) {
	m, _, _ := newModel(t)
	reg := functions.NewEmptyRegistry()
	reg.Register(&types.Function{
		Name:    "px",
		MinArgs: 1,
		MaxArgs: 1,
		Impl: func(v types.Value, _ []types.Value) types.Value {
			return types.NewString(v.ToString() + "px")
		},
	})

	engine := dataexpr.NewEngine(m, dataexpr.WithRegistry(reg), dataexpr.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	v, err := engine.Eval("radius | px")
	if err != nil {
		t.Fatal(err)
	}
	if v.ToString() != "8.7px" {
		t.Errorf("Eval = %q", v.ToString())
	}
	if _, err := engine.Eval("radius | round"); err == nil {
		t.Error("built-ins must not leak into an empty registry")
	}
	if engine.Registry() != reg || engine.Binding() != m {
		t.Error("accessors returned the wrong collaborators")
	}
}

func TestVersion(t *testing.T) {
	if !strings.HasPrefix(dataexpr.Version(), "v") {
		t.Errorf("Version() = %q", dataexpr.Version())
	}
}
