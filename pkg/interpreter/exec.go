package interpreter

import (
	"fmt"
	"log/slog"

	"github.com/sandrolain/dataexpr/pkg/types"
)

// binaryOps maps binary opcodes to their Value operator.
var binaryOps = map[types.Opcode]func(l, r types.Value) types.Value{
	types.OpAdd:          types.Add,
	types.OpSub:          types.Sub,
	types.OpMul:          types.Mul,
	types.OpDiv:          types.Div,
	types.OpEqual:        types.Equal,
	types.OpNotEqual:     types.NotEqual,
	types.OpLess:         types.Less,
	types.OpLessEqual:    types.LessEqual,
	types.OpGreater:      types.Greater,
	types.OpGreaterEqual: types.GreaterEqual,
}

// Run executes the program once on a fresh operand stack.
//
// An expression program must leave exactly one value, available from
// Result. An assignment program must leave the stack empty. Run only fails
// when the program is malformed or the binding rejects a store.
func (in *Interpreter) Run() error {
	prog := in.program
	if prog == nil {
		return types.NewError(types.ErrInvalidProgram, "no program", -1)
	}

	code := prog.Code
	stack := make([]types.Value, 0, prog.MaxStack)

	for pc := 0; pc < len(code); {
		ins := code[pc]
		next := pc + 1

		if in.opts.Debug {
			in.logger.Debug("exec",
				slog.Int("pc", pc),
				slog.String("op", ins.Op.String()),
				slog.Int("depth", len(stack)),
			)
		}

		switch ins.Op {
		case types.OpPush:
			stack = append(stack, ins.Value)

		case types.OpLoad:
			addr, err := in.address(pc, ins.Arg)
			if err != nil {
				return err
			}
			v, ok := in.binding.Get(addr)
			if !ok {
				in.logger.Debug("variable not readable, using empty string", slog.String("address", addr.String()))
				v = types.NewString("")
			}
			stack = append(stack, v)

		case types.OpStore:
			if len(stack) < 1 {
				return underflow(pc, ins.Op)
			}
			addr, err := in.address(pc, ins.Arg)
			if err != nil {
				return err
			}
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !in.binding.Set(addr, v) {
				return types.NewError(types.ErrAssignmentFailed,
					fmt.Sprintf("cannot assign to %s", addr.String()), -1).WithToken(addr.String())
			}

		case types.OpNot, types.OpNegate, types.OpBool:
			if len(stack) < 1 {
				return underflow(pc, ins.Op)
			}
			top := len(stack) - 1
			switch ins.Op {
			case types.OpNot:
				stack[top] = types.Not(stack[top])
			case types.OpNegate:
				stack[top] = types.Negate(stack[top])
			default:
				stack[top] = types.NewBool(stack[top].ToBool())
			}

		case types.OpJump:
			target, err := in.jumpTarget(pc, ins.Arg)
			if err != nil {
				return err
			}
			next = target

		case types.OpJumpIfFalse:
			if len(stack) < 1 {
				return underflow(pc, ins.Op)
			}
			target, err := in.jumpTarget(pc, ins.Arg)
			if err != nil {
				return err
			}
			cond := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !cond.ToBool() {
				next = target
			}

		case types.OpAndJump, types.OpOrJump:
			if len(stack) < 1 {
				return underflow(pc, ins.Op)
			}
			target, err := in.jumpTarget(pc, ins.Arg)
			if err != nil {
				return err
			}
			top := len(stack) - 1
			decided := stack[top].ToBool()
			if ins.Op == types.OpAndJump {
				decided = !decided
			}
			if decided {
				stack[top] = types.NewBool(ins.Op == types.OpOrJump)
				next = target
			} else {
				stack = stack[:top]
			}

		case types.OpCall:
			if ins.Arg < 0 || ins.Arg >= len(prog.Functions) {
				return invalid(pc, fmt.Sprintf("function index %d out of range", ins.Arg))
			}
			if ins.Argc < 1 {
				return invalid(pc, fmt.Sprintf("call with %d arguments", ins.Argc))
			}
			if len(stack) < ins.Argc {
				return underflow(pc, ins.Op)
			}
			fn := prog.Functions[ins.Arg]
			base := len(stack) - ins.Argc
			args := make([]types.Value, ins.Argc-1)
			copy(args, stack[base+1:])
			result := fn.Impl(stack[base], args)
			stack = append(stack[:base], result)

		default:
			op, ok := binaryOps[ins.Op]
			if !ok {
				return invalid(pc, fmt.Sprintf("unknown opcode %s", ins.Op))
			}
			if len(stack) < 2 {
				return underflow(pc, ins.Op)
			}
			top := len(stack) - 1
			stack[top-1] = op(stack[top-1], stack[top])
			stack = stack[:top]
		}

		pc = next
	}

	if prog.Assignment {
		if len(stack) != 0 {
			return types.NewError(types.ErrStackImbalance,
				fmt.Sprintf("assignment left %d value(s) on the stack", len(stack)), -1)
		}
		in.result = types.Value{}
		return nil
	}

	if len(stack) != 1 {
		return types.NewError(types.ErrStackImbalance,
			fmt.Sprintf("expression left %d value(s) on the stack", len(stack)), -1)
	}
	in.result = stack[0]
	return nil
}

// address returns the address for an address-list slot.
func (in *Interpreter) address(pc, slot int) (types.Address, error) {
	if slot < 0 || slot >= len(in.addresses) {
		return nil, invalid(pc, fmt.Sprintf("address index %d out of range", slot))
	}
	if in.binding == nil {
		return nil, invalid(pc, "no binding for variable access")
	}
	return in.addresses[slot], nil
}

// jumpTarget validates a jump. Jumps only go forward, which keeps every
// run bounded by the program length.
func (in *Interpreter) jumpTarget(pc, target int) (int, error) {
	if target <= pc || target > len(in.program.Code) {
		return 0, invalid(pc, fmt.Sprintf("invalid jump target %d", target))
	}
	return target, nil
}

func underflow(pc int, op types.Opcode) error {
	return types.NewError(types.ErrStackUnderflow,
		fmt.Sprintf("stack underflow at %d (%s)", pc, op), -1)
}

func invalid(pc int, message string) error {
	return types.NewError(types.ErrInvalidProgram,
		fmt.Sprintf("invalid instruction at %d: %s", pc, message), -1)
}
