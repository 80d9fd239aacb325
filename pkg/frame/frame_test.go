package frame

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelang/pyframe/pkg/bytecode"
	"github.com/framelang/pyframe/pkg/core/value"
)

func TestCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LOAD_FAST", "LoadFast"},
		{"RETURN_VALUE", "ReturnValue"},
		{"POP_TOP", "PopTop"},
		{"JUMP_IF_FALSE_OR_POP", "JumpIfFalseOrPop"},
		{"DUP_TOP_TWO", "DupTopTwo"},
		{"NoneType", "Nonetype"},
		{"int", "Int"},
		{"str", "Str"},
		{"NOP", "Nop"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Camel(tt.in), "Camel(%q)", tt.in)
	}
}

func TestSerializePreservesOrder(t *testing.T) {
	code := &bytecode.Code{
		Name: "<module>",
		Instructions: []bytecode.Instruction{
			{Op: bytecode.LoadConst, Arg: 0},
			{Op: bytecode.StoreName, Arg: 1},
			{Op: bytecode.ReturnValue},
		},
		Constants: []value.Value{value.NewInt(7), value.None()},
		Names:     []string{"print", "x"},
		Varnames:  []string{"a", "b"},
	}

	f := Serialize(code)

	require.Equal(t, []string{"print", "x"}, f.Names)
	require.Equal(t, []string{"a", "b"}, f.Varnames)
	require.Len(t, f.Instructions, 3)

	require.Equal(t, "LoadConst", f.Instructions[0].Name)
	require.NotNil(t, f.Instructions[0].Operand)
	require.Equal(t, 0, *f.Instructions[0].Operand)

	require.Equal(t, "StoreName", f.Instructions[1].Name)
	require.NotNil(t, f.Instructions[1].Operand)
	require.Equal(t, 1, *f.Instructions[1].Operand)

	// RETURN_VALUE sits below the operand boundary: no operand on the wire.
	require.Equal(t, "ReturnValue", f.Instructions[2].Name)
	require.Nil(t, f.Instructions[2].Operand)

	require.Equal(t, "Int", f.Constants[0].Tag())
	require.Equal(t, "Nonetype", f.Constants[1].Tag())
}

func TestSerializeEmptyUnit(t *testing.T) {
	f := Serialize(&bytecode.Code{Name: "<module>"})
	require.NotNil(t, f.Instructions)
	require.NotNil(t, f.Constants)
	require.NotNil(t, f.Names)
	require.NotNil(t, f.Varnames)
	require.Empty(t, f.Instructions)
}

func TestSerializeRecursesIntoCodeConstants(t *testing.T) {
	inner := &bytecode.Code{
		Name: "g",
		Instructions: []bytecode.Instruction{
			{Op: bytecode.LoadConst, Arg: 0},
			{Op: bytecode.ReturnValue},
		},
		Constants: []value.Value{value.None()},
	}
	mid := &bytecode.Code{
		Name: "f",
		Instructions: []bytecode.Instruction{
			{Op: bytecode.LoadConst, Arg: 0},
			{Op: bytecode.ReturnValue},
		},
		Constants: []value.Value{value.NewCode(inner)},
	}
	outer := &bytecode.Code{
		Name:      "<module>",
		Constants: []value.Value{value.NewStr("doc"), value.NewCode(mid)},
	}

	f := Serialize(outer)
	require.Equal(t, "Str", f.Constants[0].Tag())
	require.Equal(t, "Frame", f.Constants[1].Tag())

	level1 := f.Constants[1].Frame
	require.NotNil(t, level1)
	require.Equal(t, "Frame", level1.Constants[0].Tag())

	level2 := level1.Constants[0].Frame
	require.NotNil(t, level2)
	require.Equal(t, "Nonetype", level2.Constants[0].Tag())
	require.Equal(t, "LoadConst", level2.Instructions[0].Name)

	// Each call builds a fresh tree; the inputs are untouched.
	require.Equal(t, value.TypeCode, outer.Constants[1].Type)
}

func TestSerializeTupleConstantIsVerbatim(t *testing.T) {
	code := &bytecode.Code{
		Name: "<module>",
		Constants: []value.Value{
			value.NewTuple([]value.Value{value.NewInt(1), value.NewStr("a"), value.None()}),
		},
	}
	f := Serialize(code)
	require.Equal(t, "Tuple", f.Constants[0].Tag())
	require.Nil(t, f.Constants[0].Frame)
	require.Len(t, f.Constants[0].Literal.Items, 3)
}
