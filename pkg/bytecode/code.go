package bytecode

import (
	"fmt"
	"strings"

	"github.com/framelang/pyframe/pkg/core/value"
)

// Instruction is one decoded step of the instruction stream. Arg is only
// meaningful when the opcode carries an operand (GetInfo(Op).HasOperand).
type Instruction struct {
	Op  Opcode
	Arg uint32
}

// Code is a compiled unit: the executable form of a module, function or
// lambda body. Nested units appear in Constants as value.TypeCode entries.
type Code struct {
	Name         string // "<module>", "<lambda>" or the function name
	Argcount     int    // number of positional parameters
	Instructions []Instruction
	Constants    []value.Value
	Names        []string // identifiers referenced by symbol
	Varnames     []string // local variable slots, parameters first
}

// String renders a plain listing of the instruction stream, for debugging
// and error messages.
func (c *Code) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", c.Name)
	for i, in := range c.Instructions {
		info := GetInfo(in.Op)
		if info.HasOperand {
			fmt.Fprintf(&b, "%4d %-22s %d\n", i, info.Name, in.Arg)
		} else {
			fmt.Fprintf(&b, "%4d %s\n", i, info.Name)
		}
	}
	return b.String()
}
