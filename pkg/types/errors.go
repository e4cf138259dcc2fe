package types

import "fmt"

// ErrorCode represents a binding-expression error code.
type ErrorCode string

// Error codes. The leading letter selects the error kind.
const (
	// L0xxx: Lexical errors
	ErrStringNotClosed   ErrorCode = "L0101"
	ErrInvalidCharacter  ErrorCode = "L0102"
	ErrNumberOutOfRange  ErrorCode = "L0103"
	ErrInvalidNameSuffix ErrorCode = "L0104"
	ErrMalformedNumber   ErrorCode = "L0105"

	// S0xxx: Syntax errors
	ErrSyntaxError       ErrorCode = "S0201"
	ErrExpectedToken     ErrorCode = "S0202"
	ErrUnexpectedEnd     ErrorCode = "S0203"
	ErrTrailingTokens    ErrorCode = "S0204"
	ErrInvalidAssignment ErrorCode = "S0205"
	ErrEmptyExpression   ErrorCode = "S0206"
	ErrMaxDepthExceeded  ErrorCode = "S0207"

	// B0xxx: Binding errors
	ErrUndefinedVariable     ErrorCode = "B0301"
	ErrUndefinedFunction     ErrorCode = "B0302"
	ErrArgumentCountMismatch ErrorCode = "B0303"

	// R0xxx: Runtime invariant violations
	ErrStackUnderflow   ErrorCode = "R0401"
	ErrInvalidProgram   ErrorCode = "R0402"
	ErrAssignmentFailed ErrorCode = "R0403"
	ErrStackImbalance   ErrorCode = "R0404"
	ErrProgramShape     ErrorCode = "R0405"
)

// ErrorKind groups error codes by the stage that detects them.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindLexical
	KindSyntax
	KindBinding
	KindRuntime
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindLexical:
		return "lexical"
	case KindSyntax:
		return "syntax"
	case KindBinding:
		return "binding"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Kind reports which stage raises errors with this code.
func (c ErrorCode) Kind() ErrorKind {
	if c == "" {
		return KindUnknown
	}
	switch c[0] {
	case 'L':
		return KindLexical
	case 'S':
		return KindSyntax
	case 'B':
		return KindBinding
	case 'R':
		return KindRuntime
	default:
		return KindUnknown
	}
}

// Error represents a structured expression error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new expression error.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the kind of the error code.
func (e *Error) Kind() ErrorKind {
	return e.Code.Kind()
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
