// Package functions provides the registry of pipe functions available to
// binding expressions.
//
// A Registry is an explicitly constructed object owned by the host. It is
// consulted at compile time: the parser resolves every "value | name(args)"
// call against it and checks the arity, so a compiled program never refers
// to a missing function.
//
// # Example
//
//	reg := functions.NewRegistry()
//	reg.Register(&types.Function{
//	    Name:    "px",
//	    MinArgs: 1,
//	    MaxArgs: 1,
//	    Impl: func(v types.Value, _ []types.Value) types.Value {
//	        return types.NewString(v.ToString() + "px")
//	    },
//	})
//	// "width | px" now compiles
package functions

import (
	"sort"
	"sync"

	"github.com/sandrolain/dataexpr/pkg/types"
)

var (
	builtinFunctions     map[string]*types.Function
	builtinFunctionsOnce sync.Once
)

// initBuiltinFunctions initializes the built-in function table.
func initBuiltinFunctions() {
	builtinFunctionsOnce.Do(func() {
		builtinFunctions = map[string]*types.Function{
			// Numeric functions
			"format": {Name: "format", MinArgs: 2, MaxArgs: 3, Impl: fnFormat},
			"round":  {Name: "round", MinArgs: 1, MaxArgs: 1, Impl: fnRound},
			"ceil":   {Name: "ceil", MinArgs: 1, MaxArgs: 1, Impl: fnCeil},
			"floor":  {Name: "floor", MinArgs: 1, MaxArgs: 1, Impl: fnFloor},
			"abs":    {Name: "abs", MinArgs: 1, MaxArgs: 1, Impl: fnAbs},

			// String functions
			"to_upper": {Name: "to_upper", MinArgs: 1, MaxArgs: -1, Impl: fnToUpper},
			"to_lower": {Name: "to_lower", MinArgs: 1, MaxArgs: -1, Impl: fnToLower},
			"trim":     {Name: "trim", MinArgs: 1, MaxArgs: 1, Impl: fnTrim},
			"length":   {Name: "length", MinArgs: 1, MaxArgs: 1, Impl: fnLength},
		}
	})
}

// Registry maps pipe-function names to their descriptors.
//
// Safe for concurrent use by multiple goroutines.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]*types.Function
}

// NewRegistry creates a registry holding the built-in functions.
func NewRegistry() *Registry {
	initBuiltinFunctions()
	funcs := make(map[string]*types.Function, len(builtinFunctions))
	for name, fn := range builtinFunctions {
		funcs[name] = fn
	}
	return &Registry{funcs: funcs}
}

// NewEmptyRegistry creates a registry without any built-in function.
func NewEmptyRegistry() *Registry {
	return &Registry{funcs: make(map[string]*types.Function)}
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (*types.Function, bool) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	return fn, ok
}

// Register adds fn, replacing any function with the same name.
// Programs compiled earlier keep the descriptor they resolved.
func (r *Registry) Register(fn *types.Function) {
	r.mu.Lock()
	r.funcs[fn.Name] = fn
	r.mu.Unlock()
}

// Names returns the registered function names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
