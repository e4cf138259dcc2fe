// Package parser compiles data-binding expressions into interpreter programs.
//
// The parser is a hand-written single-pass compiler: a Pratt (top-down
// operator precedence) loop that emits instructions while it consumes
// tokens, so no syntax tree is ever built.
//
// # Architecture
//
// The parser consists of three main components:
//   - Lexer: Tokenizes the input expression into a stream of tokens
//   - Parser: Emits a linear Program while parsing
//   - Resolution: Variables and pipe functions are resolved at compile time
//
// # Example
//
//	expr, err := parser.ParseExpression("radius < 10.5 ? 'small' : 'large'", model, registry)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(expr.Program().Dump(expr.Addresses()))
package parser

import (
	"github.com/sandrolain/dataexpr/pkg/types"
)

// Resolver maps a variable name to a data-model address at compile time.
// [types.Binding] implementations satisfy it.
type Resolver interface {
	Resolve(name string) (types.Address, error)
}

// FunctionLookup maps a pipe-function name to its descriptor.
// [functions.Registry] satisfies it.
type FunctionLookup interface {
	Lookup(name string) (*types.Function, bool)
}

// ParseExpression compiles an expression program.
func ParseExpression(text string, resolver Resolver, funcs FunctionLookup, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(text, resolver, funcs, opts...)
	return p.Parse(false)
}

// ParseAssignment compiles an assignment program: one or more
// "name = expression" statements separated by ';'.
func ParseAssignment(text string, resolver Resolver, funcs FunctionLookup, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(text, resolver, funcs, opts...)
	return p.Parse(true)
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits recursion depth to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
