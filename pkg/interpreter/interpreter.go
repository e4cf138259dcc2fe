// Package interpreter executes compiled binding-expression programs.
//
// The interpreter is a stack machine. It runs a [types.Program] against a
// [types.Binding], reading variables through the binding for dependency
// tracking and writing assignment results back through it.
//
// # Example
//
//	in := interpreter.New(expr.Program(), expr.Addresses(), model)
//	if err := in.Run(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(in.Result())
//
// # Concurrency
//
// A Program is immutable and may be shared. Each Run allocates its own
// operand stack, so several Interpreters can execute the same Program as
// long as the host serializes access to the binding.
package interpreter

import (
	"log/slog"

	"github.com/sandrolain/dataexpr/pkg/types"
)

// Interpreter runs one program against one binding.
type Interpreter struct {
	program   *types.Program
	addresses types.AddressList
	binding   types.Binding
	opts      Options
	logger    *slog.Logger
	result    types.Value
}

// Options configures interpreter behavior.
type Options struct {
	// Debug enables per-instruction trace logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Options)

// WithDebug enables or disables instruction tracing at debug level.
func WithDebug(enabled bool) Option {
	return func(opts *Options) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// New creates an interpreter for program. addresses must be the address
// list built together with program.
func New(program *types.Program, addresses types.AddressList, binding types.Binding, opts ...Option) *Interpreter {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Interpreter{
		program:   program,
		addresses: addresses,
		binding:   binding,
		opts:      options,
		logger:    options.Logger,
	}
}

// ForExpression creates an interpreter for a compiled expression.
func ForExpression(expr *types.Expression, binding types.Binding, opts ...Option) *Interpreter {
	return New(expr.Program(), expr.Addresses(), binding, opts...)
}

// Result returns the value left by the last successful Run of an
// expression program.
func (in *Interpreter) Result() types.Value {
	return in.result
}

// DumpProgram returns a readable listing of the program.
func (in *Interpreter) DumpProgram() string {
	if in.program == nil {
		return ""
	}
	return in.program.Dump(in.addresses)
}
