package frame

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/framelang/pyframe/pkg/bytecode"
	"github.com/framelang/pyframe/pkg/compiler/python"
	"github.com/framelang/pyframe/pkg/core/value"
)

func operand(n int) *int { return &n }

func TestInstructionJSONShape(t *testing.T) {
	data, err := json.Marshal(Instruction{Name: "LoadFast", Operand: operand(0)})
	require.NoError(t, err)
	require.JSONEq(t, `{"LoadFast": 0}`, string(data))

	data, err = json.Marshal(Instruction{Name: "ReturnValue"})
	require.NoError(t, err)
	require.JSONEq(t, `{"ReturnValue": null}`, string(data))
}

func TestInstructionJSONRoundTrip(t *testing.T) {
	for _, in := range []Instruction{
		{Name: "LoadConst", Operand: operand(3)},
		{Name: "BinaryAdd"},
	} {
		data, err := json.Marshal(in)
		require.NoError(t, err)
		var got Instruction
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, in, got)
	}
}

func TestInstructionUnmarshalRejectsMultipleKeys(t *testing.T) {
	var in Instruction
	err := json.Unmarshal([]byte(`{"LoadFast": 0, "PopTop": null}`), &in)
	require.Error(t, err)
}

func TestConstantJSONShape(t *testing.T) {
	tests := []struct {
		c    Constant
		want string
	}{
		{Constant{Literal: value.NewInt(5)}, `{"Int": 5}`},
		{Constant{Literal: value.NewFloat(2.5)}, `{"Float": 2.5}`},
		{Constant{Literal: value.NewFloat(2)}, `{"Float": 2}`},
		{Constant{Literal: value.NewBool(true)}, `{"Bool": true}`},
		{Constant{Literal: value.NewStr("fib")}, `{"Str": "fib"}`},
		{Constant{Literal: value.None()}, `{"Nonetype": null}`},
		{
			Constant{Literal: value.NewTuple([]value.Value{
				value.NewInt(1), value.NewStr("a"), value.None(),
			})},
			`{"Tuple": [1, "a", null]}`,
		},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.c)
		require.NoError(t, err)
		require.JSONEq(t, tt.want, string(data))
	}
}

func TestConstantJSONRoundTrip(t *testing.T) {
	constants := []Constant{
		{Literal: value.NewInt(-9)},
		{Literal: value.NewFloat(0.25)},
		{Literal: value.NewBool(false)},
		{Literal: value.NewStr("")},
		{Literal: value.None()},
		{Literal: value.NewTuple([]value.Value{
			value.NewInt(1),
			value.NewFloat(2.5),
			value.NewTuple([]value.Value{value.NewStr("x")}),
		})},
		{Frame: &Frame{
			Instructions: []Instruction{{Name: "ReturnValue"}},
			Constants:    []Constant{{Literal: value.None()}},
			Names:        []string{},
			Varnames:     []string{"n"},
		}},
	}
	for _, c := range constants {
		data, err := json.Marshal(c)
		require.NoError(t, err)
		var got Constant
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, c, got)
	}
}

func TestConstantUnmarshalRejectsUnknownTag(t *testing.T) {
	var c Constant
	err := json.Unmarshal([]byte(`{"List": [1]}`), &c)
	require.Error(t, err)
}

func TestConstantUnmarshalRejectsNonArrayTuple(t *testing.T) {
	for _, payload := range []string{`{"Tuple": 5}`, `{"Tuple": "a"}`, `{"Tuple": null}`} {
		var c Constant
		err := json.Unmarshal([]byte(payload), &c)
		require.Error(t, err, "payload %s", payload)
	}
}

func TestCodeConstantIsNotALiteral(t *testing.T) {
	_, err := json.Marshal(Constant{Literal: value.NewCode(&bytecode.Code{})})
	require.Error(t, err)
}

func TestFrameJSONDocument(t *testing.T) {
	f := &Frame{
		Instructions: []Instruction{
			{Name: "LoadConst", Operand: operand(0)},
			{Name: "ReturnValue"},
		},
		Constants: []Constant{{Literal: value.None()}},
		Names:     []string{},
		Varnames:  []string{},
	}
	data, err := json.Marshal(f)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"instructions": [{"LoadConst": 0}, {"ReturnValue": null}],
		"constants": [{"Nonetype": null}],
		"co_names": [],
		"co_varnames": []
	}`, string(data))
}

func TestFrameCBORShape(t *testing.T) {
	f := &Frame{
		Instructions: []Instruction{{Name: "LoadFast", Operand: operand(1)}},
		Constants:    []Constant{{Literal: value.NewInt(3)}},
		Names:        []string{},
		Varnames:     []string{"n"},
	}
	data, err := cbor.Marshal(f)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, cbor.Unmarshal(data, &doc))
	require.Contains(t, doc, "instructions")
	require.Contains(t, doc, "constants")
	require.Contains(t, doc, "co_names")
	require.Contains(t, doc, "co_varnames")

	inst, ok := doc["instructions"].([]any)
	require.True(t, ok)
	require.Len(t, inst, 1)
}

// An integral-valued float literal must keep its Float tag on the wire.
func TestSerializedFloatKeepsTag(t *testing.T) {
	code, err := python.NewCompiler("").Compile("x = 2.0\n")
	require.NoError(t, err)

	data, err := json.Marshal(Serialize(code))
	require.NoError(t, err)
	require.Contains(t, string(data), `{"Float":2}`)
	require.NotContains(t, string(data), `"Int"`)
}

// End to end: compile a one-function module and check the serialized
// document against the fixed wire contract.
func TestCompileAndSerialize(t *testing.T) {
	code, err := python.NewCompiler("").Compile("def f(n):\n    return n + 1\n")
	require.NoError(t, err)

	root := Serialize(code)
	data, err := json.MarshalIndent(root, "", "  ")
	require.NoError(t, err)

	var doc struct {
		Instructions []map[string]*int            `json:"instructions"`
		Constants    []map[string]json.RawMessage `json:"constants"`
		Names        []string                     `json:"co_names"`
		Varnames     []string                     `json:"co_varnames"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, []string{"f"}, doc.Names)
	require.Empty(t, doc.Varnames)

	// Module prologue: LOAD_CONST code, LOAD_CONST 'f', MAKE_FUNCTION,
	// STORE_NAME, then the implicit return of None.
	names := make([]string, len(doc.Instructions))
	for i, in := range doc.Instructions {
		require.Len(t, in, 1)
		for k := range in {
			names[i] = k
		}
	}
	require.Equal(t, []string{
		"LoadConst", "LoadConst", "MakeFunction", "StoreName",
		"LoadConst", "ReturnValue",
	}, names)

	require.Len(t, doc.Constants, 3)
	var fn struct {
		Instructions []map[string]*int            `json:"instructions"`
		Constants    []map[string]json.RawMessage `json:"constants"`
		Names        []string                     `json:"co_names"`
		Varnames     []string                     `json:"co_varnames"`
	}
	require.NoError(t, json.Unmarshal(doc.Constants[0]["Frame"], &fn))
	require.Equal(t, []string{"n"}, fn.Varnames)

	fnNames := make([]string, len(fn.Instructions))
	for i, in := range fn.Instructions {
		for k := range in {
			fnNames[i] = k
		}
	}
	require.Equal(t, []string{
		"LoadFast", "LoadConst", "BinaryAdd", "ReturnValue",
		"LoadConst", "ReturnValue",
	}, fnNames)

	// Constant 0 is the reserved None slot; the literal 1 follows it.
	require.JSONEq(t, "null", string(fn.Constants[0]["Nonetype"]))
	require.JSONEq(t, "1", string(fn.Constants[1]["Int"]))
}
