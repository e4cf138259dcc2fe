// Package dataexpr compiles and runs data-binding expressions.
//
// Data-binding expressions connect UI attributes to a data model. An
// expression such as
//
//	radius < 10.5 ? 'small' | to_upper : 'large'
//
// is compiled once into a small linear program and re-run whenever the
// variables it reads change. Assignments such as
//
//	radius = 15; color_name = 'red'
//
// write back into the model, typically from event handlers.
//
// # Quick Start
//
//	model := datamodel.New()
//	_ = model.Bind("radius", &radius)
//
//	// Compile once, run many times
//	expr, err := dataexpr.ParseExpression("radius * 2", model, functions.NewRegistry())
//	v, err := dataexpr.Execute(expr, model)
//
//	// Or let an Engine handle compilation, caching and logging
//	engine := dataexpr.NewEngine(model, dataexpr.WithCache(256))
//	v, err := engine.Eval("radius | format(2)")
//	err = engine.Assign("radius = radius + 1")
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/dataexpr/pkg/parser
//   - Interpreter: github.com/sandrolain/dataexpr/pkg/interpreter
//   - Functions: github.com/sandrolain/dataexpr/pkg/functions
//   - Data model: github.com/sandrolain/dataexpr/pkg/datamodel
//   - Types: github.com/sandrolain/dataexpr/pkg/types
package dataexpr

import (
	"fmt"

	"github.com/sandrolain/dataexpr/pkg/interpreter"
	"github.com/sandrolain/dataexpr/pkg/parser"
	"github.com/sandrolain/dataexpr/pkg/types"
)

// Version returns the current version of dataexpr.
func Version() string {
	return "v0.1.0-dev"
}

// ParseExpression compiles an expression against binding. Variables are
// resolved through binding and pipe functions through funcs.
func ParseExpression(text string, binding types.Binding, funcs parser.FunctionLookup, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.ParseExpression(text, binding, funcs, opts...)
}

// ParseAssignment compiles one or more "name = expression" statements
// separated by ';'.
func ParseAssignment(text string, binding types.Binding, funcs parser.FunctionLookup, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.ParseAssignment(text, binding, funcs, opts...)
}

// MustParseExpression is like ParseExpression but panics if the expression
// cannot be compiled.
func MustParseExpression(text string, binding types.Binding, funcs parser.FunctionLookup) *types.Expression {
	expr, err := ParseExpression(text, binding, funcs)
	if err != nil {
		panic(fmt.Sprintf("dataexpr: ParseExpression(%q): %v", text, err))
	}
	return expr
}

// Execute runs an expression program and returns its value.
func Execute(expr *types.Expression, binding types.Binding, opts ...interpreter.Option) (types.Value, error) {
	if err := checkShape(expr, false); err != nil {
		return types.Value{}, err
	}
	in := interpreter.ForExpression(expr, binding, opts...)
	if err := in.Run(); err != nil {
		return types.Value{}, err
	}
	return in.Result(), nil
}

// ExecuteAssignment runs an assignment program.
func ExecuteAssignment(expr *types.Expression, binding types.Binding, opts ...interpreter.Option) error {
	if err := checkShape(expr, true); err != nil {
		return err
	}
	return interpreter.ForExpression(expr, binding, opts...).Run()
}

func checkShape(expr *types.Expression, assignment bool) error {
	if expr == nil || expr.Program() == nil {
		return types.NewError(types.ErrInvalidProgram, "no program", -1)
	}
	if expr.IsAssignment() == assignment {
		return nil
	}
	want, got := "expression", "assignment"
	if assignment {
		want, got = got, want
	}
	return types.NewError(types.ErrProgramShape,
		fmt.Sprintf("expected an %s program, got an %s program", want, got), -1).WithToken(expr.Source())
}
