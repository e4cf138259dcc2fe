// Package types defines the core type system for dataexpr.
//
// This package contains type definitions for:
//   - Value: number, string or boolean with coercion rules
//   - Address, AddressList: resolved data-model variable references
//   - Instruction, Program: compiled interpreter code
//   - Expression: a Program bundled with its AddressList and source
//   - Binding, Function: the external collaborator boundaries
//   - Error types: Structured errors with codes
package types

// Expression is a compiled binding expression or assignment.
//
// An Expression is immutable once built and can be executed any number of
// times. It stays tied to the Binding that resolved its addresses.
type Expression struct {
	program   *Program
	addresses AddressList
	source    string
}

// NewExpression bundles a program with its address list.
func NewExpression(program *Program, addresses AddressList, source string) *Expression {
	return &Expression{
		program:   program,
		addresses: addresses,
		source:    source,
	}
}

// Program returns the compiled instructions.
func (e *Expression) Program() *Program {
	return e.program
}

// Addresses returns the addresses referenced by the program.
func (e *Expression) Addresses() AddressList {
	return e.addresses
}

// Source returns the original source text.
func (e *Expression) Source() string {
	return e.source
}

// IsAssignment reports whether the program is an assignment program.
func (e *Expression) IsAssignment() bool {
	return e.program != nil && e.program.Assignment
}

// String returns the source text.
func (e *Expression) String() string {
	return e.source
}
