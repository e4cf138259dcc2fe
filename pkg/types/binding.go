package types

// Binding is the data-model boundary consumed by the parser and the
// interpreter.
//
// Resolve is called at parse time for every variable an expression names.
// Get and Set are called at run time; implementations record them for
// dependency tracking and dirtying.
type Binding interface {
	Resolve(name string) (Address, error)
	Get(addr Address) (Value, bool)
	Set(addr Address, v Value) bool
}

// FuncImpl transforms the piped value using the explicit call arguments.
type FuncImpl func(value Value, args []Value) Value

// Function describes a pipe function. MinArgs and MaxArgs count the piped
// value; MaxArgs < 0 means unlimited.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
	Impl    FuncImpl
}

// AcceptsArgs reports whether a call with n arguments (including the piped
// value) matches the declared arity.
func (f *Function) AcceptsArgs(n int) bool {
	if n < f.MinArgs {
		return false
	}
	return f.MaxArgs < 0 || n <= f.MaxArgs
}
