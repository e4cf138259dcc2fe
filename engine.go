package dataexpr

import (
	"log/slog"

	"github.com/sandrolain/dataexpr/pkg/cache"
	"github.com/sandrolain/dataexpr/pkg/functions"
	"github.com/sandrolain/dataexpr/pkg/interpreter"
	"github.com/sandrolain/dataexpr/pkg/parser"
	"github.com/sandrolain/dataexpr/pkg/types"
)

// Engine compiles and runs expression text against one binding.
//
// The parser and interpreter never log. An Engine logs every expression it
// rejects, at warn level, together with the error.
type Engine struct {
	binding     types.Binding
	registry    *functions.Registry
	cache       *cache.Cache
	logger      *slog.Logger
	debug       bool
	compileOpts []parser.CompileOption
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry sets the function registry. The default is
// functions.NewRegistry().
func WithRegistry(registry *functions.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = registry
	}
}

// WithCache enables a program cache of the given capacity.
func WithCache(capacity int) EngineOption {
	return func(e *Engine) {
		e.cache = cache.New(capacity)
	}
}

// WithSharedCache uses an existing program cache. Expressions are tied to
// the binding that resolved them, so share a cache only between engines
// on the same binding.
func WithSharedCache(c *cache.Cache) EngineOption {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithDebug enables instruction tracing in the interpreter.
func WithDebug(enabled bool) EngineOption {
	return func(e *Engine) {
		e.debug = enabled
	}
}

// WithCompileOptions sets options passed to the parser.
func WithCompileOptions(opts ...parser.CompileOption) EngineOption {
	return func(e *Engine) {
		e.compileOpts = append(e.compileOpts, opts...)
	}
}

// NewEngine creates an engine for binding.
func NewEngine(binding types.Binding, opts ...EngineOption) *Engine {
	e := &Engine{binding: binding}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = functions.NewRegistry()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Registry returns the function registry used for compilation.
func (e *Engine) Registry() *functions.Registry {
	return e.registry
}

// Binding returns the binding expressions are compiled against.
func (e *Engine) Binding() types.Binding {
	return e.binding
}

// Compile compiles text as an expression or, if assignment is set, as an
// assignment. Cached programs are reused when a cache is configured.
func (e *Engine) Compile(text string, assignment bool) (*types.Expression, error) {
	compile := func() (*types.Expression, error) {
		if assignment {
			return ParseAssignment(text, e.binding, e.registry, e.compileOpts...)
		}
		return ParseExpression(text, e.binding, e.registry, e.compileOpts...)
	}

	var (
		expr *types.Expression
		err  error
	)
	if e.cache != nil {
		expr, err = e.cache.GetOrCompile(text, assignment, compile)
	} else {
		expr, err = compile()
	}
	if err != nil {
		e.reject(text, assignment, err)
		return nil, err
	}
	return expr, nil
}

// Eval compiles and runs an expression.
func (e *Engine) Eval(text string) (types.Value, error) {
	expr, err := e.Compile(text, false)
	if err != nil {
		return types.Value{}, err
	}
	return e.Execute(expr)
}

// Assign compiles and runs an assignment.
func (e *Engine) Assign(text string) error {
	expr, err := e.Compile(text, true)
	if err != nil {
		return err
	}
	return e.ExecuteAssignment(expr)
}

// Execute runs a compiled expression with the engine's logger and debug
// setting.
func (e *Engine) Execute(expr *types.Expression) (types.Value, error) {
	v, err := Execute(expr, e.binding, e.interpreterOptions()...)
	if err != nil {
		e.reject(sourceOf(expr), false, err)
		return types.Value{}, err
	}
	return v, nil
}

// ExecuteAssignment runs a compiled assignment with the engine's logger and
// debug setting.
func (e *Engine) ExecuteAssignment(expr *types.Expression) error {
	if err := ExecuteAssignment(expr, e.binding, e.interpreterOptions()...); err != nil {
		e.reject(sourceOf(expr), true, err)
		return err
	}
	return nil
}

func (e *Engine) interpreterOptions() []interpreter.Option {
	return []interpreter.Option{
		interpreter.WithLogger(e.logger),
		interpreter.WithDebug(e.debug),
	}
}

func (e *Engine) reject(text string, assignment bool, err error) {
	mode := "expression"
	if assignment {
		mode = "assignment"
	}
	e.logger.Warn("rejected data expression",
		slog.String("mode", mode),
		slog.String("source", text),
		slog.Any("error", err),
	)
}

func sourceOf(expr *types.Expression) string {
	if expr == nil {
		return ""
	}
	return expr.Source()
}
