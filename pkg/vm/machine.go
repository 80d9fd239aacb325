// Package vm executes code objects. Namespaces are name-keyed maps, jump
// operands are byte offsets over two-byte instruction words, and mixed
// bool/int/float arithmetic promotes — the semantics of the downstream
// frame consumer.
package vm

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/framelang/pyframe/pkg/bytecode"
	"github.com/framelang/pyframe/pkg/core/value"
)

var (
	ErrGasExhausted = errors.New("vm: gas exhausted")
	ErrCallDepth    = errors.New("vm: maximum call depth exceeded")
	errUnderflow    = errors.New("vm: stack underflow")
)

// MaxCallDepth bounds recursion through CALL_FUNCTION.
const MaxCallDepth = 64

// Builtin is a host function callable from bytecode.
type Builtin func(m *Machine, args []value.Value) (value.Value, error)

// Machine executes one program at a time. It is not safe for concurrent
// use; create one Machine per run.
type Machine struct {
	Output   io.Writer
	Builtins map[string]Builtin

	gas int
}

func New(output io.Writer) *Machine {
	return &Machine{
		Output:   output,
		Builtins: defaultBuiltins(),
	}
}

// Run executes a module code object with the given instruction budget.
func (m *Machine) Run(code *bytecode.Code, gasLimit int) (err error) {
	// Malformed hand-built bytecode can underflow the operand stack or
	// index outside a table; surface that as an error, not a crash.
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(runtime.Error); ok {
				err = errUnderflow
				return
			}
			panic(r)
		}
	}()

	m.gas = gasLimit
	// Module scope: locals and globals are the same namespace, so
	// functions defined at top level are visible as globals inside
	// other functions (recursion included).
	globals := make(map[string]value.Value)
	_, err = m.runFrame(code, globals, globals, 0)
	return err
}

func (m *Machine) runFrame(code *bytecode.Code, locals, globals map[string]value.Value, depth int) (value.Value, error) {
	if depth > MaxCallDepth {
		return value.Value{}, ErrCallDepth
	}

	stack := make([]value.Value, 0, 16)
	push := func(v value.Value) {
		stack = append(stack, v)
	}
	pop := func() value.Value {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	ip := 0
	for ip < len(code.Instructions) {
		if m.gas--; m.gas < 0 {
			return value.Value{}, ErrGasExhausted
		}

		in := code.Instructions[ip]
		arg := int(in.Arg)

		switch in.Op {
		case bytecode.Nop, bytecode.UnaryPositive:
			ip++

		case bytecode.LoadConst:
			push(code.Constants[arg])
			ip++

		case bytecode.StoreName:
			locals[code.Names[arg]] = pop()
			ip++

		case bytecode.LoadName:
			name := code.Names[arg]
			v, ok := locals[name]
			if !ok {
				v, ok = globals[name]
			}
			if !ok {
				if _, isBuiltin := m.Builtins[name]; isBuiltin {
					v = value.Value{Type: value.TypeBuiltin, Str: name}
					ok = true
				}
			}
			if !ok {
				return value.Value{}, fmt.Errorf("name '%s' is not defined", name)
			}
			push(v)
			ip++

		case bytecode.DeleteName:
			delete(locals, code.Names[arg])
			ip++

		case bytecode.StoreFast:
			locals[code.Varnames[arg]] = pop()
			ip++

		case bytecode.LoadFast:
			name := code.Varnames[arg]
			v, ok := locals[name]
			if !ok {
				return value.Value{}, fmt.Errorf("local variable '%s' referenced before assignment", name)
			}
			push(v)
			ip++

		case bytecode.DeleteFast:
			delete(locals, code.Varnames[arg])
			ip++

		case bytecode.StoreGlobal:
			globals[code.Names[arg]] = pop()
			ip++

		case bytecode.LoadGlobal:
			name := code.Names[arg]
			v, ok := globals[name]
			if !ok {
				if _, isBuiltin := m.Builtins[name]; isBuiltin {
					v = value.Value{Type: value.TypeBuiltin, Str: name}
					ok = true
				}
			}
			if !ok {
				return value.Value{}, fmt.Errorf("name '%s' is not defined", name)
			}
			push(v)
			ip++

		case bytecode.DeleteGlobal:
			delete(globals, code.Names[arg])
			ip++

		case bytecode.CompareOp:
			b := pop()
			a := pop()
			res, err := compare(bytecode.CmpOp(arg), a, b)
			if err != nil {
				return value.Value{}, err
			}
			push(value.NewBool(res))
			ip++

		case bytecode.JumpForward:
			ip += arg/2 + 1

		case bytecode.JumpAbsolute:
			ip = arg / 2

		case bytecode.PopJumpIfTrue:
			if pop().Truthy() {
				ip = arg / 2
			} else {
				ip++
			}

		case bytecode.PopJumpIfFalse:
			if !pop().Truthy() {
				ip = arg / 2
			} else {
				ip++
			}

		case bytecode.JumpIfTrueOrPop:
			if stack[len(stack)-1].Truthy() {
				ip = arg / 2
			} else {
				pop()
				ip++
			}

		case bytecode.JumpIfFalseOrPop:
			if !stack[len(stack)-1].Truthy() {
				ip = arg / 2
			} else {
				pop()
				ip++
			}

		case bytecode.MakeFunction:
			if arg != 0 {
				return value.Value{}, fmt.Errorf("vm: MAKE_FUNCTION flags %d not supported", arg)
			}
			qualname := pop()
			codeVal := pop()
			if qualname.Type != value.TypeStr || codeVal.Type != value.TypeCode {
				return value.Value{}, fmt.Errorf("vm: MAKE_FUNCTION expects code and qualified name")
			}
			push(value.Value{Type: value.TypeFunc, Str: qualname.Str, Code: codeVal.Code})
			ip++

		case bytecode.CallFunction:
			args := make([]value.Value, arg)
			for i := arg - 1; i >= 0; i-- {
				args[i] = pop()
			}
			callee := pop()
			result, err := m.call(callee, args, globals, depth)
			if err != nil {
				return value.Value{}, err
			}
			push(result)
			ip++

		case bytecode.ReturnValue:
			return pop(), nil

		case bytecode.BinaryAdd, bytecode.InplaceAdd:
			if err := binary(value.Add, &stack); err != nil {
				return value.Value{}, err
			}
			ip++

		case bytecode.BinarySubtract, bytecode.InplaceSubtract:
			if err := binary(value.Sub, &stack); err != nil {
				return value.Value{}, err
			}
			ip++

		case bytecode.BinaryMultiply, bytecode.InplaceMultiply:
			if err := binary(value.Mul, &stack); err != nil {
				return value.Value{}, err
			}
			ip++

		case bytecode.BinaryTrueDivide, bytecode.InplaceTrueDivide:
			if err := binary(value.TrueDiv, &stack); err != nil {
				return value.Value{}, err
			}
			ip++

		case bytecode.BinaryFloorDivide, bytecode.InplaceFloorDivide:
			if err := binary(value.FloorDiv, &stack); err != nil {
				return value.Value{}, err
			}
			ip++

		case bytecode.BinaryModulo, bytecode.InplaceModulo:
			if err := binary(value.Mod, &stack); err != nil {
				return value.Value{}, err
			}
			ip++

		case bytecode.BinaryPower:
			if err := binary(value.Pow, &stack); err != nil {
				return value.Value{}, err
			}
			ip++

		case bytecode.UnaryNegative:
			v, err := value.Negate(pop())
			if err != nil {
				return value.Value{}, err
			}
			push(v)
			ip++

		case bytecode.UnaryNot:
			push(value.NewBool(!pop().Truthy()))
			ip++

		case bytecode.PopTop:
			pop()
			ip++

		case bytecode.DupTop:
			push(stack[len(stack)-1])
			ip++

		case bytecode.DupTopTwo:
			n := len(stack)
			push(stack[n-2])
			push(stack[n-1])
			ip++

		case bytecode.RotTwo:
			n := len(stack)
			stack[n-1], stack[n-2] = stack[n-2], stack[n-1]
			ip++

		case bytecode.RotThree:
			n := len(stack)
			top := stack[n-1]
			stack[n-1] = stack[n-2]
			stack[n-2] = stack[n-3]
			stack[n-3] = top
			ip++

		case bytecode.RotFour:
			n := len(stack)
			top := stack[n-1]
			stack[n-1] = stack[n-2]
			stack[n-2] = stack[n-3]
			stack[n-3] = stack[n-4]
			stack[n-4] = top
			ip++

		default:
			return value.Value{}, fmt.Errorf("vm: unknown opcode %d", in.Op)
		}
	}

	// Compiled units always end in RETURN_VALUE; falling off the end can
	// only happen with hand-built code.
	return value.None(), nil
}

func (m *Machine) call(callee value.Value, args []value.Value, globals map[string]value.Value, depth int) (value.Value, error) {
	switch callee.Type {
	case value.TypeBuiltin:
		fn, ok := m.Builtins[callee.Str]
		if !ok {
			return value.Value{}, fmt.Errorf("name '%s' is not defined", callee.Str)
		}
		return fn(m, args)

	case value.TypeFunc:
		code, ok := callee.Code.(*bytecode.Code)
		if !ok {
			return value.Value{}, fmt.Errorf("vm: function %s has no code", callee.Str)
		}
		if len(args) != code.Argcount {
			return value.Value{}, fmt.Errorf("%s() takes %d arguments (%d given)",
				callee.Str, code.Argcount, len(args))
		}
		locals := make(map[string]value.Value, len(code.Varnames))
		for i, v := range args {
			locals[code.Varnames[i]] = v
		}
		return m.runFrame(code, locals, globals, depth+1)

	default:
		return value.Value{}, fmt.Errorf("'%s' object is not callable", callee.PyTypeName())
	}
}

func binary(op func(a, b value.Value) (value.Value, error), stack *[]value.Value) error {
	s := *stack
	b := s[len(s)-1]
	a := s[len(s)-2]
	res, err := op(a, b)
	if err != nil {
		return err
	}
	s[len(s)-2] = res
	*stack = s[:len(s)-1]
	return nil
}

func compare(op bytecode.CmpOp, a, b value.Value) (bool, error) {
	switch op {
	case bytecode.CmpEq:
		return value.Equal(a, b), nil
	case bytecode.CmpNe:
		return !value.Equal(a, b), nil
	}
	c, err := value.Compare(a, b)
	if err != nil {
		return false, err
	}
	switch op {
	case bytecode.CmpLt:
		return c < 0, nil
	case bytecode.CmpLe:
		return c <= 0, nil
	case bytecode.CmpGt:
		return c > 0, nil
	case bytecode.CmpGe:
		return c >= 0, nil
	default:
		return false, fmt.Errorf("vm: unknown comparison operand %d", op)
	}
}
