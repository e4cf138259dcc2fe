package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode identifies an interpreter instruction.
type Opcode uint8

const (
	OpPush         Opcode = iota // push Value
	OpLoad                       // push variable at address Arg
	OpStore                      // pop and write to address Arg
	OpNot                        // !x
	OpNegate                     // -x
	OpBool                       // replace top with its boolean form
	OpAdd                        // l + r
	OpSub                        // l - r
	OpMul                        // l * r
	OpDiv                        // l / r
	OpEqual                      // l == r
	OpNotEqual                   // l != r
	OpLess                       // l < r
	OpLessEqual                  // l <= r
	OpGreater                    // l > r
	OpGreaterEqual               // l >= r
	OpJump                       // jump to Arg
	OpJumpIfFalse                // pop; jump to Arg when false
	OpAndJump                    // when top is false: replace with false and jump to Arg; else pop
	OpOrJump                     // when top is true: replace with true and jump to Arg; else pop
	OpCall                       // pop Argc values, call function Arg, push result
)

var opcodeNames = [...]string{
	OpPush:         "PUSH",
	OpLoad:         "LOAD",
	OpStore:        "STORE",
	OpNot:          "NOT",
	OpNegate:       "NEG",
	OpBool:         "BOOL",
	OpAdd:          "ADD",
	OpSub:          "SUB",
	OpMul:          "MUL",
	OpDiv:          "DIV",
	OpEqual:        "EQ",
	OpNotEqual:     "NE",
	OpLess:         "LT",
	OpLessEqual:    "LE",
	OpGreater:      "GT",
	OpGreaterEqual: "GE",
	OpJump:         "JMP",
	OpJumpIfFalse:  "JMPF",
	OpAndJump:      "AND",
	OpOrJump:       "OR",
	OpCall:         "CALL",
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "OP(" + strconv.Itoa(int(op)) + ")"
}

// Instruction is a single opcode with its operands. Which operands are
// meaningful depends on Op.
type Instruction struct {
	Op    Opcode
	Value Value // OpPush
	Arg   int   // address index, jump target or function index
	Argc  int   // OpCall argument count, piped value included
}

// Program is the compiled, immutable instruction sequence of one expression
// or assignment.
type Program struct {
	Code       []Instruction
	Functions  []*Function
	MaxStack   int
	Assignment bool
}

// Dump returns a readable listing of the program. Address operands are
// printed by name when addrs is non-nil.
func (p *Program) Dump(addrs AddressList) string {
	var sb strings.Builder
	for i, in := range p.Code {
		fmt.Fprintf(&sb, "%4d  %-5s", i, in.Op)
		switch in.Op {
		case OpPush:
			if in.Value.IsString() {
				fmt.Fprintf(&sb, " %q", in.Value.ToString())
			} else {
				fmt.Fprintf(&sb, " %s", in.Value.ToString())
			}
		case OpLoad, OpStore:
			if in.Arg >= 0 && in.Arg < len(addrs) {
				fmt.Fprintf(&sb, " %s", addrs[in.Arg])
			} else {
				fmt.Fprintf(&sb, " @%d", in.Arg)
			}
		case OpJump, OpJumpIfFalse, OpAndJump, OpOrJump:
			fmt.Fprintf(&sb, " -> %d", in.Arg)
		case OpCall:
			if in.Arg >= 0 && in.Arg < len(p.Functions) {
				fmt.Fprintf(&sb, " %s/%d", p.Functions[in.Arg].Name, in.Argc)
			} else {
				fmt.Fprintf(&sb, " #%d/%d", in.Arg, in.Argc)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String returns the program listing without address names.
func (p *Program) String() string {
	return p.Dump(nil)
}
