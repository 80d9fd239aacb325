// Package bytecode defines the compiled-unit representation produced by the
// compiler and consumed by the frame serializer and the VM.
package bytecode

// Opcode is an integer opcode that indicates an operation to execute.
// Numbering follows CPython 3.8's opcode table.
type Opcode uint8

const (
	PopTop    Opcode = 1
	RotTwo    Opcode = 2
	RotThree  Opcode = 3
	DupTop    Opcode = 4
	DupTopTwo Opcode = 5
	RotFour   Opcode = 6
	Nop       Opcode = 9

	UnaryPositive Opcode = 10
	UnaryNegative Opcode = 11
	UnaryNot      Opcode = 12

	BinaryPower       Opcode = 19
	BinaryMultiply    Opcode = 20
	BinaryModulo      Opcode = 22
	BinaryAdd         Opcode = 23
	BinarySubtract    Opcode = 24
	BinaryFloorDivide Opcode = 26
	BinaryTrueDivide  Opcode = 27

	InplaceFloorDivide Opcode = 28
	InplaceTrueDivide  Opcode = 29
	InplaceAdd         Opcode = 55
	InplaceSubtract    Opcode = 56
	InplaceMultiply    Opcode = 57
	InplaceModulo      Opcode = 59

	ReturnValue Opcode = 83

	// Opcodes at or above HaveArgument carry an operand.
	HaveArgument Opcode = 90

	StoreName        Opcode = 90
	DeleteName       Opcode = 91
	StoreGlobal      Opcode = 97
	DeleteGlobal     Opcode = 98
	LoadConst        Opcode = 100
	LoadName         Opcode = 101
	CompareOp        Opcode = 107
	JumpForward      Opcode = 110
	JumpIfFalseOrPop Opcode = 111
	JumpIfTrueOrPop  Opcode = 112
	JumpAbsolute     Opcode = 113
	PopJumpIfFalse   Opcode = 114
	PopJumpIfTrue    Opcode = 115
	LoadGlobal       Opcode = 116
	LoadFast         Opcode = 124
	StoreFast        Opcode = 125
	DeleteFast       Opcode = 126
	CallFunction     Opcode = 131
	MakeFunction     Opcode = 132
)

// CmpOp is a COMPARE_OP operand selecting the comparison to perform.
type CmpOp uint32

const (
	CmpLt CmpOp = iota
	CmpLe
	CmpEq
	CmpNe
	CmpGt
	CmpGe
)

// Info describes an opcode.
type Info struct {
	Op         Opcode
	Name       string
	HasOperand bool
}

var infos [256]Info

func init() {
	names := []struct {
		op   Opcode
		name string
	}{
		{PopTop, "POP_TOP"},
		{RotTwo, "ROT_TWO"},
		{RotThree, "ROT_THREE"},
		{DupTop, "DUP_TOP"},
		{DupTopTwo, "DUP_TOP_TWO"},
		{RotFour, "ROT_FOUR"},
		{Nop, "NOP"},
		{UnaryPositive, "UNARY_POSITIVE"},
		{UnaryNegative, "UNARY_NEGATIVE"},
		{UnaryNot, "UNARY_NOT"},
		{BinaryPower, "BINARY_POWER"},
		{BinaryMultiply, "BINARY_MULTIPLY"},
		{BinaryModulo, "BINARY_MODULO"},
		{BinaryAdd, "BINARY_ADD"},
		{BinarySubtract, "BINARY_SUBTRACT"},
		{BinaryFloorDivide, "BINARY_FLOOR_DIVIDE"},
		{BinaryTrueDivide, "BINARY_TRUE_DIVIDE"},
		{InplaceFloorDivide, "INPLACE_FLOOR_DIVIDE"},
		{InplaceTrueDivide, "INPLACE_TRUE_DIVIDE"},
		{InplaceAdd, "INPLACE_ADD"},
		{InplaceSubtract, "INPLACE_SUBTRACT"},
		{InplaceMultiply, "INPLACE_MULTIPLY"},
		{InplaceModulo, "INPLACE_MODULO"},
		{ReturnValue, "RETURN_VALUE"},
		{StoreName, "STORE_NAME"},
		{DeleteName, "DELETE_NAME"},
		{StoreGlobal, "STORE_GLOBAL"},
		{DeleteGlobal, "DELETE_GLOBAL"},
		{LoadConst, "LOAD_CONST"},
		{LoadName, "LOAD_NAME"},
		{CompareOp, "COMPARE_OP"},
		{JumpForward, "JUMP_FORWARD"},
		{JumpIfFalseOrPop, "JUMP_IF_FALSE_OR_POP"},
		{JumpIfTrueOrPop, "JUMP_IF_TRUE_OR_POP"},
		{JumpAbsolute, "JUMP_ABSOLUTE"},
		{PopJumpIfFalse, "POP_JUMP_IF_FALSE"},
		{PopJumpIfTrue, "POP_JUMP_IF_TRUE"},
		{LoadGlobal, "LOAD_GLOBAL"},
		{LoadFast, "LOAD_FAST"},
		{StoreFast, "STORE_FAST"},
		{DeleteFast, "DELETE_FAST"},
		{CallFunction, "CALL_FUNCTION"},
		{MakeFunction, "MAKE_FUNCTION"},
	}
	for _, n := range names {
		infos[n.op] = Info{
			Op:         n.op,
			Name:       n.name,
			HasOperand: n.op >= HaveArgument,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Opcode) Info {
	return infos[op]
}
