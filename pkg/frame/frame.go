// Package frame converts compiled code objects into a serializable tree.
// One Frame describes one compiled unit: its instruction stream, constant
// table and name tables, with nested units (functions, lambdas) appearing
// recursively inside the constant table.
package frame

import (
	"strings"

	"github.com/framelang/pyframe/pkg/bytecode"
	"github.com/framelang/pyframe/pkg/core/value"
)

// Frame is the serialized form of one compiled unit. All four sequences
// preserve the unit's table order exactly; empty tables serialize as empty
// sequences, never as absent fields.
type Frame struct {
	Instructions []Instruction `json:"instructions" cbor:"instructions"`
	Constants    []Constant    `json:"constants" cbor:"constants"`
	Names        []string      `json:"co_names" cbor:"co_names"`
	Varnames     []string      `json:"co_varnames" cbor:"co_varnames"`
}

// Instruction pairs a normalized opcode name with its raw operand.
// A nil Operand means the instruction carries none.
type Instruction struct {
	Name    string
	Operand *int
}

// Constant is one constant-table entry: either a nested Frame (the entry
// was itself a compiled unit) or a literal value. Frame != nil is the
// discriminant.
type Constant struct {
	Frame   *Frame
	Literal value.Value
}

// Tag returns the single-key wire tag for the constant: "Frame" for
// nested units, otherwise the normalized name of the literal's type.
func (c Constant) Tag() string {
	if c.Frame != nil {
		return "Frame"
	}
	switch c.Literal.Type {
	case value.TypeNone:
		return "Nonetype"
	case value.TypeInt:
		return "Int"
	case value.TypeFloat:
		return "Float"
	case value.TypeBool:
		return "Bool"
	case value.TypeStr:
		return "Str"
	case value.TypeTuple:
		return "Tuple"
	default:
		// Not reachable for frames built by Serialize; kept as a safety
		// net for hand-built constants.
		return Camel(c.Literal.PyTypeName())
	}
}

// Serialize builds the Frame document for one compiled unit. Each call
// allocates a fresh Frame; recursion descends into constant-table entries
// that are themselves code objects. Constant tables are tree-shaped by
// construction of the compiler, so no cycle guard is needed.
func Serialize(code *bytecode.Code) *Frame {
	f := &Frame{
		Instructions: make([]Instruction, 0, len(code.Instructions)),
		Constants:    make([]Constant, 0, len(code.Constants)),
		Names:        make([]string, 0, len(code.Names)),
		Varnames:     make([]string, 0, len(code.Varnames)),
	}
	f.Names = append(f.Names, code.Names...)
	f.Varnames = append(f.Varnames, code.Varnames...)

	for _, in := range code.Instructions {
		info := bytecode.GetInfo(in.Op)
		rec := Instruction{Name: Camel(info.Name)}
		if info.HasOperand {
			arg := int(in.Arg)
			rec.Operand = &arg
		}
		f.Instructions = append(f.Instructions, rec)
	}

	for _, c := range code.Constants {
		if c.Type == value.TypeCode {
			child := Serialize(c.Code.(*bytecode.Code))
			f.Constants = append(f.Constants, Constant{Frame: child})
		} else {
			f.Constants = append(f.Constants, Constant{Literal: c})
		}
	}
	return f
}

// Camel normalizes an underscore-separated name: each word keeps its first
// byte uppercased with the remainder lowercased, and the words are joined
// with no separator. LOAD_FAST becomes LoadFast, NoneType becomes
// Nonetype. It is a pure transform with no opcode table behind it.
func Camel(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, "")
}
