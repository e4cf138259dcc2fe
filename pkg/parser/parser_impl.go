package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandrolain/dataexpr/pkg/types"
)

// Parser implements a recursive descent parser for binding expressions.
// It uses Pratt's "Top Down Operator Precedence" algorithm to handle
// operator precedence and emits instructions as it goes.
type Parser struct {
	input    string
	lexer    *Lexer
	current  Token
	prev     Token
	opts     CompileOptions
	resolver Resolver
	funcs    FunctionLookup

	// Program under construction
	code      []types.Instruction
	functions []*types.Function
	funcIndex map[string]int
	addresses types.AddressList
	addrIndex map[string]int
	depth     int
	stack     int
	maxStack  int

	// Results awaiting release
	program *types.Program
	built   types.AddressList
}

// NewParser creates a new parser for the given input string.
// resolver and funcs may be nil, in which case every variable or pipe
// function reference fails to compile.
func NewParser(input string, resolver Resolver, funcs FunctionLookup, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Parser{
		input:    input,
		opts:     options,
		resolver: resolver,
		funcs:    funcs,
	}
}

// Parse compiles the input. In assignment mode the input must be one or
// more "name = expression" statements separated by ';'.
//
// On success the result is also held for ReleaseProgram and
// ReleaseAddresses. Parse may be called again; it restarts from the
// beginning of the input.
func (p *Parser) Parse(assignment bool) (*types.Expression, error) {
	p.reset()

	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}
	if p.current.Type == TokenEOF {
		return nil, p.error(types.ErrEmptyExpression, "Empty expression")
	}

	var err error
	if assignment {
		err = p.parseAssignments()
	} else {
		err = p.parseExpression(0)
		if err == nil && p.current.Type != TokenEOF {
			err = p.error(types.ErrTrailingTokens, fmt.Sprintf("Unexpected token: %s", p.current.Value))
		}
	}
	if err != nil {
		return nil, err
	}

	p.program = &types.Program{
		Code:       p.code,
		Functions:  p.functions,
		MaxStack:   p.maxStack,
		Assignment: assignment,
	}
	p.built = p.addresses
	return types.NewExpression(p.program, p.built, p.input), nil
}

// ReleaseProgram hands over the program built by the last successful
// Parse. Subsequent calls return nil until Parse succeeds again.
func (p *Parser) ReleaseProgram() *types.Program {
	prog := p.program
	p.program = nil
	return prog
}

// ReleaseAddresses hands over the address list built by the last
// successful Parse. Subsequent calls return nil until Parse succeeds again.
func (p *Parser) ReleaseAddresses() types.AddressList {
	addrs := p.built
	p.built = nil
	return addrs
}

func (p *Parser) reset() {
	p.lexer = NewLexer(p.input)
	p.current = Token{}
	p.prev = Token{}
	p.code = nil
	p.functions = nil
	p.funcIndex = make(map[string]int)
	p.addresses = nil
	p.addrIndex = make(map[string]int)
	p.depth = 0
	p.stack = 0
	p.maxStack = 0
	p.program = nil
	p.built = nil

	// Read the first token
	p.advance()
}

// Binding powers, lowest to highest.
const (
	bpCondition = 10 // ? :
	bpOr        = 20 // ||
	bpAnd       = 30 // &&
	bpEquality  = 40 // == !=
	bpRelation  = 50 // < <= > >=
	bpAdditive  = 60 // + -
	bpMultiply  = 70 // * /
	bpPipe      = 80 // |
	bpUnary     = 85 // ! - (operand only)
)

// Operator precedence table (binding power)
// Higher values bind more tightly
var precedence = map[TokenType]int{
	TokenCondition:    bpCondition,
	TokenOr:           bpOr,
	TokenAnd:          bpAnd,
	TokenEqual:        bpEquality,
	TokenNotEqual:     bpEquality,
	TokenLess:         bpRelation,
	TokenLessEqual:    bpRelation,
	TokenGreater:      bpRelation,
	TokenGreaterEqual: bpRelation,
	TokenPlus:         bpAdditive,
	TokenMinus:        bpAdditive,
	TokenMult:         bpMultiply,
	TokenDiv:          bpMultiply,
	TokenPipe:         bpPipe,
}

// binaryOps maps arithmetic and comparison tokens to their opcode.
var binaryOps = map[TokenType]types.Opcode{
	TokenPlus:         types.OpAdd,
	TokenMinus:        types.OpSub,
	TokenMult:         types.OpMul,
	TokenDiv:          types.OpDiv,
	TokenEqual:        types.OpEqual,
	TokenNotEqual:     types.OpNotEqual,
	TokenLess:         types.OpLess,
	TokenLessEqual:    types.OpLessEqual,
	TokenGreater:      types.OpGreater,
	TokenGreaterEqual: types.OpGreaterEqual,
}

// getPrecedence returns the precedence of a token type.
func (p *Parser) getPrecedence(tt TokenType) int {
	if prec, ok := precedence[tt]; ok {
		return prec
	}
	return 0
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		if p.current.Type == TokenEOF {
			return p.error(types.ErrUnexpectedEnd, fmt.Sprintf("Expected %s but reached end of expression", tt.String()))
		}
		return p.error(types.ErrExpectedToken, fmt.Sprintf("Expected %s but got %s", tt.String(), p.current.Type.String()))
	}
	p.advance()
	return nil
}

// error creates a parser error. A pending lexical error takes precedence
// over the syntax error it caused.
func (p *Parser) error(code types.ErrorCode, message string) error {
	if p.current.Type == TokenError {
		if err := p.lexer.Error(); err != nil {
			return err
		}
	}
	return &types.Error{
		Code:     code,
		Message:  message,
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// parseAssignments parses "name = expr (';' name = expr)* ';'?".
func (p *Parser) parseAssignments() error {
	for {
		if p.current.Type != TokenName {
			return p.error(types.ErrInvalidAssignment, "Assignment target must be a variable name")
		}
		slot, err := p.resolveAddress(p.current)
		if err != nil {
			return err
		}
		p.advance()

		if err := p.expect(TokenAssign); err != nil {
			return err
		}
		if err := p.parseExpression(0); err != nil {
			return err
		}
		p.emit(types.Instruction{Op: types.OpStore, Arg: slot})

		switch p.current.Type {
		case TokenEOF:
			return nil
		case TokenSemicolon:
			p.advance()
			if p.current.Type == TokenEOF {
				return nil
			}
		default:
			return p.error(types.ErrTrailingTokens, fmt.Sprintf("Unexpected token: %s", p.current.Value))
		}
	}
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) error {
	p.depth++
	defer func() { p.depth-- }()
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return p.error(types.ErrMaxDepthExceeded, "Expression nested too deeply")
	}

	// Parse prefix expression (nud - null denotation)
	if err := p.parsePrefix(); err != nil {
		return err
	}

	// Parse infix expressions while precedence allows (led - left denotation)
	for rbp < p.getPrecedence(p.current.Type) {
		if err := p.parseInfix(); err != nil {
			return err
		}
	}

	return nil
}

// parsePrefix parses a prefix expression (nud - null denotation).
// These are expressions that don't require a left-hand side.
func (p *Parser) parsePrefix() error {
	token := p.current

	switch token.Type {
	case TokenString:
		return p.parseString()
	case TokenNumber:
		return p.parseNumber()
	case TokenBoolean:
		return p.parseBoolean()
	case TokenName:
		return p.parseVariable()
	case TokenNot, TokenMinus:
		return p.parseUnary()
	case TokenParenOpen:
		return p.parseGrouping()
	case TokenEOF:
		return p.error(types.ErrUnexpectedEnd, "Unexpected end of expression")
	default:
		return p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected token: %s", token.Type.String()))
	}
}

// parseInfix parses an infix expression (led - left denotation).
// The left-hand side has already been emitted.
func (p *Parser) parseInfix() error {
	switch p.current.Type {
	case TokenCondition:
		return p.parseConditional()
	case TokenAnd, TokenOr:
		return p.parseLogical()
	case TokenPipe:
		return p.parsePipe()
	default:
		return p.parseBinaryOp()
	}
}

// unescapeString resolves \' \" and \\ escapes. A backslash before any
// other character is kept together with that character.
func unescapeString(s string) string {
	if !strings.Contains(s, "\\") {
		return s // Fast path: no escapes
	}

	var result strings.Builder
	result.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			result.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '\\', '"', '\'':
			result.WriteByte(s[i+1])
			i++
		default:
			result.WriteByte('\\')
		}
	}

	return result.String()
}

// parseString parses a string literal.
func (p *Parser) parseString() error {
	p.emitPush(types.NewString(unescapeString(p.current.Value)))
	p.advance()
	return nil
}

// parseNumber parses a number literal.
func (p *Parser) parseNumber() error {
	val, err := strconv.ParseFloat(p.current.Value, 64)
	if err != nil {
		return p.error(types.ErrNumberOutOfRange, fmt.Sprintf("Invalid number: %s", p.current.Value))
	}
	p.emitPush(types.NewNumber(val))
	p.advance()
	return nil
}

// parseBoolean parses a boolean literal.
func (p *Parser) parseBoolean() error {
	p.emitPush(types.NewBool(p.current.Value == "true"))
	p.advance()
	return nil
}

// parseVariable emits a load of a data-model variable.
func (p *Parser) parseVariable() error {
	slot, err := p.resolveAddress(p.current)
	if err != nil {
		return err
	}
	p.emit(types.Instruction{Op: types.OpLoad, Arg: slot})
	p.advance()
	return nil
}

// parseUnary parses ! and unary minus. The operand stops before any pipe,
// so "-x | f" applies f to -x.
func (p *Parser) parseUnary() error {
	op := types.OpNot
	if p.current.Type == TokenMinus {
		op = types.OpNegate
	}
	p.advance()

	if err := p.parseExpression(bpUnary); err != nil {
		return err
	}
	p.emit(types.Instruction{Op: op})
	return nil
}

// parseGrouping parses a parenthesized expression.
func (p *Parser) parseGrouping() error {
	p.advance() // Skip '('

	if err := p.parseExpression(0); err != nil {
		return err
	}
	return p.expect(TokenParenClose)
}

// parseBinaryOp parses a left-associative arithmetic or comparison operator.
func (p *Parser) parseBinaryOp() error {
	op := p.current
	opcode, ok := binaryOps[op.Type]
	if !ok {
		return p.error(types.ErrSyntaxError, fmt.Sprintf("Unexpected operator: %s", op.Type.String()))
	}
	prec := p.getPrecedence(op.Type)
	p.advance()

	// Parse the right-hand side with appropriate precedence
	if err := p.parseExpression(prec); err != nil {
		return err
	}
	p.emit(types.Instruction{Op: opcode})
	return nil
}

// parseLogical parses && and ||. The right-hand side is skipped at run
// time once the left-hand side decides the result, which is always a
// boolean.
func (p *Parser) parseLogical() error {
	op := types.OpAndJump
	if p.current.Type == TokenOr {
		op = types.OpOrJump
	}
	prec := p.getPrecedence(p.current.Type)
	p.advance()

	skip := p.emitJump(op)
	if err := p.parseExpression(prec); err != nil {
		return err
	}
	p.emit(types.Instruction{Op: types.OpBool})
	p.patchJump(skip)
	return nil
}

// parseConditional parses a conditional (ternary) expression.
// Syntax: condition ? then_expr : else_expr
// Only the selected branch runs.
func (p *Parser) parseConditional() error {
	p.advance() // Skip '?'

	elseJump := p.emitJump(types.OpJumpIfFalse)
	base := p.stack

	// Parse 'then' expression
	if err := p.parseExpression(0); err != nil {
		return err
	}
	if err := p.expect(TokenColon); err != nil {
		return err
	}
	endJump := p.emitJump(types.OpJump)

	// Parse 'else' expression (right-associative, so use precedence - 1)
	p.patchJump(elseJump)
	p.stack = base
	if err := p.parseExpression(bpCondition - 1); err != nil {
		return err
	}
	p.patchJump(endJump)
	return nil
}

// parsePipe parses "| name" or "| name(args...)". The left-hand side is
// the first argument of the call.
func (p *Parser) parsePipe() error {
	p.advance() // Skip '|'

	if p.current.Type != TokenName {
		if p.current.Type == TokenEOF {
			return p.error(types.ErrUnexpectedEnd, "Expected function name after '|'")
		}
		return p.error(types.ErrExpectedToken, fmt.Sprintf("Expected function name after '|' but got %s", p.current.Type.String()))
	}
	nameToken := p.current
	var fn *types.Function
	if p.funcs != nil {
		fn, _ = p.funcs.Lookup(nameToken.Value)
	}
	if fn == nil {
		return p.error(types.ErrUndefinedFunction, fmt.Sprintf("Unknown function: %s", nameToken.Value))
	}
	p.advance()

	argc := 1
	if p.current.Type == TokenParenOpen {
		p.advance() // Skip '('

		// Parse arguments
		if p.current.Type != TokenParenClose {
			for {
				if err := p.parseExpression(0); err != nil {
					return err
				}
				argc++

				if p.current.Type == TokenParenClose {
					break
				}
				if err := p.expect(TokenComma); err != nil {
					return err
				}
			}
		}

		if err := p.expect(TokenParenClose); err != nil {
			return err
		}
	}

	if !fn.AcceptsArgs(argc) {
		return (&types.Error{
			Code:     types.ErrArgumentCountMismatch,
			Message:  fmt.Sprintf("Function %s does not accept %d argument(s)", fn.Name, argc),
			Position: nameToken.Position,
		}).WithToken(nameToken.Value)
	}

	p.emit(types.Instruction{Op: types.OpCall, Arg: p.functionSlot(fn), Argc: argc})
	return nil
}

// resolveAddress returns the address-list slot for the variable named by
// token, resolving it through the resolver on first use.
func (p *Parser) resolveAddress(token Token) (int, error) {
	if p.resolver == nil {
		return 0, p.error(types.ErrUndefinedVariable, fmt.Sprintf("Unknown variable: %s", token.Value))
	}
	addr, err := p.resolver.Resolve(token.Value)
	if err != nil {
		return 0, (&types.Error{
			Code:     types.ErrUndefinedVariable,
			Message:  fmt.Sprintf("Unknown variable: %s", token.Value),
			Position: token.Position,
		}).WithToken(token.Value).WithCause(err)
	}

	key := addr.String()
	if slot, ok := p.addrIndex[key]; ok {
		return slot, nil
	}
	slot := len(p.addresses)
	p.addresses = append(p.addresses, addr)
	p.addrIndex[key] = slot
	return slot, nil
}

// functionSlot returns the program function-table index for fn.
func (p *Parser) functionSlot(fn *types.Function) int {
	if idx, ok := p.funcIndex[fn.Name]; ok {
		return idx
	}
	idx := len(p.functions)
	p.functions = append(p.functions, fn)
	p.funcIndex[fn.Name] = idx
	return idx
}

// Code emission

// stackEffect returns how an instruction changes the operand stack depth
// on its fall-through path.
func stackEffect(in types.Instruction) int {
	switch in.Op {
	case types.OpPush, types.OpLoad:
		return 1
	case types.OpStore, types.OpJumpIfFalse, types.OpAndJump, types.OpOrJump:
		return -1
	case types.OpNot, types.OpNegate, types.OpBool, types.OpJump:
		return 0
	case types.OpCall:
		return 1 - in.Argc
	default:
		return -1 // binary operators
	}
}

// emit appends an instruction and returns its index.
func (p *Parser) emit(in types.Instruction) int {
	pos := len(p.code)
	p.code = append(p.code, in)
	p.stack += stackEffect(in)
	if p.stack > p.maxStack {
		p.maxStack = p.stack
	}
	return pos
}

func (p *Parser) emitPush(v types.Value) {
	p.emit(types.Instruction{Op: types.OpPush, Value: v})
}

// emitJump emits a jump instruction and returns its index for patching.
func (p *Parser) emitJump(op types.Opcode) int {
	return p.emit(types.Instruction{Op: op, Arg: -1})
}

// patchJump points the jump at index to the next instruction emitted.
func (p *Parser) patchJump(index int) {
	p.code[index].Arg = len(p.code)
}
