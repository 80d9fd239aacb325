package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{None(), false},
		{NewInt(0), false},
		{NewInt(-3), true},
		{NewFloat(0), false},
		{NewFloat(0.5), true},
		{NewBool(false), false},
		{NewBool(true), true},
		{NewStr(""), false},
		{NewStr("x"), true},
		{NewTuple(nil), false},
		{NewTuple([]Value{NewInt(1)}), true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.v.Truthy(), "truthy of %s", tt.v.Repr())
	}
}

func TestEqualPromotesNumerics(t *testing.T) {
	require.True(t, Equal(NewInt(1), NewBool(true)))
	require.True(t, Equal(NewInt(2), NewFloat(2.0)))
	require.True(t, Equal(NewFloat(0), NewBool(false)))
	require.False(t, Equal(NewInt(1), NewStr("1")))
	require.True(t, Equal(None(), None()))
	require.True(t, Equal(
		NewTuple([]Value{NewInt(1), NewStr("a")}),
		NewTuple([]Value{NewInt(1), NewStr("a")}),
	))
	require.False(t, Equal(
		NewTuple([]Value{NewInt(1)}),
		NewTuple([]Value{NewInt(1), NewInt(2)}),
	))
}

func TestCompare(t *testing.T) {
	c, err := Compare(NewInt(1), NewFloat(1.5))
	require.NoError(t, err)
	require.Equal(t, -1, c)

	c, err = Compare(NewStr("b"), NewStr("a"))
	require.NoError(t, err)
	require.Equal(t, 1, c)

	_, err = Compare(NewStr("a"), NewInt(1))
	require.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want Value
	}{
		{"int add", Add, NewInt(2), NewInt(3), NewInt(5)},
		{"mixed add is float", Add, NewInt(2), NewFloat(0.5), NewFloat(2.5)},
		{"bool promotes", Add, NewBool(true), NewInt(1), NewInt(2)},
		{"str concat", Add, NewStr("ab"), NewStr("c"), NewStr("abc")},
		{"str repeat", Mul, NewStr("ab"), NewInt(3), NewStr("ababab")},
		{"true div is float", TrueDiv, NewInt(7), NewInt(2), NewFloat(3.5)},
		{"floor div", FloorDiv, NewInt(7), NewInt(2), NewInt(3)},
		{"floor div negative floors", FloorDiv, NewInt(-7), NewInt(2), NewInt(-4)},
		{"mod follows divisor sign", Mod, NewInt(-7), NewInt(3), NewInt(2)},
		{"pow int", Pow, NewInt(2), NewInt(10), NewInt(1024)},
		{"pow negative exponent is float", Pow, NewInt(2), NewInt(-1), NewFloat(0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := TrueDiv(NewInt(1), NewInt(0))
	require.Error(t, err)
	_, err = FloorDiv(NewInt(1), NewFloat(0))
	require.Error(t, err)
	_, err = Mod(NewInt(1), NewInt(0))
	require.Error(t, err)
}

func TestAddTypeError(t *testing.T) {
	_, err := Add(NewStr("a"), NewInt(1))
	require.EqualError(t, err, "unsupported operand types for +: 'str' and 'int'")
}

func TestReprAndFormat(t *testing.T) {
	tests := []struct {
		v    Value
		repr string
	}{
		{None(), "None"},
		{NewInt(-42), "-42"},
		{NewFloat(2), "2.0"},
		{NewFloat(2.5), "2.5"},
		{NewBool(true), "True"},
		{NewStr("hi"), "'hi'"},
		{NewTuple([]Value{NewInt(1)}), "(1,)"},
		{NewTuple([]Value{NewInt(1), NewStr("a")}), "(1, 'a')"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.repr, tt.v.Repr())
	}

	// print() shows strings raw at the top level, repr-quoted inside tuples.
	require.Equal(t, "hi", NewStr("hi").Format())
	require.Equal(t, "('a',)", NewTuple([]Value{NewStr("a")}).Format())
}

func TestPyTypeName(t *testing.T) {
	require.Equal(t, "NoneType", None().PyTypeName())
	require.Equal(t, "int", NewInt(1).PyTypeName())
	require.Equal(t, "bool", NewBool(true).PyTypeName())
	require.Equal(t, "tuple", NewTuple(nil).PyTypeName())
}
