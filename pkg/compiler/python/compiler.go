// Package python compiles Python source into code objects. Parsing is done
// by gpython; this package lowers the AST to the instruction set in
// pkg/bytecode, producing one code object per module, function or lambda,
// with nested units stored in their parent's constant table.
package python

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/go-python/gpython/ast"
	"github.com/go-python/gpython/parser"
	"github.com/go-python/gpython/py"

	"github.com/framelang/pyframe/pkg/bytecode"
	"github.com/framelang/pyframe/pkg/core/value"
)

type loopContext struct {
	start      int   // instruction index of the loop head
	breakJumps []int // JUMP_ABSOLUTE placeholders patched to the loop end
}

// unit accumulates one code object during compilation.
type unit struct {
	code    *bytecode.Code
	module  bool
	locals  map[string]bool // names bound in this scope (fast locals)
	globals map[string]bool // explicit `global` declarations
	nameIdx map[string]uint32
	varIdx  map[string]uint32
	loops   []*loopContext
}

func newUnit(name string, module bool) *unit {
	return &unit{
		code: &bytecode.Code{
			Name:         name,
			Instructions: []bytecode.Instruction{},
			Constants:    []value.Value{},
			Names:        []string{},
			Varnames:     []string{},
		},
		module:  module,
		locals:  make(map[string]bool),
		globals: make(map[string]bool),
		nameIdx: make(map[string]uint32),
		varIdx:  make(map[string]uint32),
	}
}

func (u *unit) emit(op bytecode.Opcode, arg uint32) int {
	u.code.Instructions = append(u.code.Instructions, bytecode.Instruction{Op: op, Arg: arg})
	return len(u.code.Instructions) - 1
}

func (u *unit) here() int {
	return len(u.code.Instructions)
}

// addConst returns the constant-table index for v, re-using an existing
// entry for equal scalars. Code objects are never deduplicated.
func (u *unit) addConst(v value.Value) uint32 {
	if v.Type != value.TypeCode {
		for i, existing := range u.code.Constants {
			if existing.Type == v.Type && value.Equal(existing, v) {
				return uint32(i)
			}
		}
	}
	u.code.Constants = append(u.code.Constants, v)
	return uint32(len(u.code.Constants) - 1)
}

func (u *unit) nameIndex(name string) uint32 {
	if idx, ok := u.nameIdx[name]; ok {
		return idx
	}
	idx := uint32(len(u.code.Names))
	u.code.Names = append(u.code.Names, name)
	u.nameIdx[name] = idx
	return idx
}

func (u *unit) varIndex(name string) uint32 {
	if idx, ok := u.varIdx[name]; ok {
		return idx
	}
	idx := uint32(len(u.code.Varnames))
	u.code.Varnames = append(u.code.Varnames, name)
	u.varIdx[name] = idx
	return idx
}

// Jump operands are byte offsets over two-byte instruction words, matching
// the downstream frame consumer which decodes them as arg/2.

func (u *unit) patchAbsolute(at, target int) {
	u.code.Instructions[at].Arg = uint32(2 * target)
}

func (u *unit) patchForward(at, target int) {
	u.code.Instructions[at].Arg = uint32(2 * (target - at - 1))
}

// Every unit ends by returning None; jump placeholders patched to the end
// of a body always have the epilogue to land on.
func (u *unit) epilogue() {
	u.emit(bytecode.LoadConst, u.addConst(value.None()))
	u.emit(bytecode.ReturnValue, 0)
}

// Compiler compiles Python source text to a code object.
type Compiler struct {
	filename string
}

func NewCompiler(filename string) *Compiler {
	if filename == "" {
		filename = "<string>"
	}
	return &Compiler{filename: filename}
}

// Compile parses and lowers src, returning the module code object.
func (c *Compiler) Compile(src string) (*bytecode.Code, error) {
	mod, err := parser.Parse(strings.NewReader(src), c.filename, py.ExecMode)
	if err != nil {
		return nil, fmt.Errorf("python parse error: %w", err)
	}
	module, ok := mod.(*ast.Module)
	if !ok {
		return nil, fmt.Errorf("expected *ast.Module, got %T", mod)
	}

	u := newUnit("<module>", true)
	if err := c.compileBody(u, module.Body); err != nil {
		return nil, err
	}
	u.epilogue()
	return u.code, nil
}

func (c *Compiler) compileBody(u *unit, stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := c.compileStmt(u, stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileFunction builds the nested code object for a def or lambda body.
// Constant index 0 is always None, mirroring the reference compiler's
// docstring slot.
func (c *Compiler) compileFunction(name string, args *ast.Arguments, body []ast.Stmt, bodyExpr ast.Expr) (*bytecode.Code, error) {
	if args != nil {
		if args.Vararg != nil || args.Kwarg != nil {
			return nil, fmt.Errorf("*args/**kwargs are not supported")
		}
		if len(args.Defaults) > 0 || len(args.Kwonlyargs) > 0 {
			return nil, fmt.Errorf("default and keyword-only parameters are not supported")
		}
	}

	u := newUnit(name, false)
	u.addConst(value.None())
	if args != nil {
		u.code.Argcount = len(args.Args)
		for _, a := range args.Args {
			param := string(a.Arg)
			u.varIndex(param)
			u.locals[param] = true
		}
	}
	collectGlobals(body, u.globals)
	assigned := make(map[string]bool)
	collectAssigned(body, assigned)
	for name := range assigned {
		if !u.globals[name] {
			u.locals[name] = true
		}
	}

	if bodyExpr != nil {
		if err := c.compileExpr(u, bodyExpr); err != nil {
			return nil, err
		}
		u.emit(bytecode.ReturnValue, 0)
	} else if err := c.compileBody(u, body); err != nil {
		return nil, err
	}
	u.epilogue()
	return u.code, nil
}

func (c *Compiler) storeName(u *unit, name string) {
	switch {
	case !u.module && u.globals[name]:
		u.emit(bytecode.StoreGlobal, u.nameIndex(name))
	case !u.module && u.locals[name]:
		u.emit(bytecode.StoreFast, u.varIndex(name))
	case !u.module:
		u.emit(bytecode.StoreGlobal, u.nameIndex(name))
	default:
		u.emit(bytecode.StoreName, u.nameIndex(name))
	}
}

func (c *Compiler) loadName(u *unit, name string) {
	switch {
	case !u.module && !u.globals[name] && u.locals[name]:
		u.emit(bytecode.LoadFast, u.varIndex(name))
	case !u.module:
		u.emit(bytecode.LoadGlobal, u.nameIndex(name))
	default:
		u.emit(bytecode.LoadName, u.nameIndex(name))
	}
}

func (c *Compiler) compileStmt(u *unit, stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.Assign:
		if len(s.Targets) != 1 {
			return fmt.Errorf("only single assignment is supported")
		}
		target, ok := s.Targets[0].(*ast.Name)
		if !ok {
			return fmt.Errorf("unsupported assignment target: %T", s.Targets[0])
		}
		if err := c.compileExpr(u, s.Value); err != nil {
			return err
		}
		c.storeName(u, string(target.Id))

	case *ast.AugAssign:
		target, ok := s.Target.(*ast.Name)
		if !ok {
			return fmt.Errorf("unsupported augmented-assignment target: %T", s.Target)
		}
		name := string(target.Id)
		c.loadName(u, name)
		if err := c.compileExpr(u, s.Value); err != nil {
			return err
		}
		var op bytecode.Opcode
		switch s.Op {
		case ast.Add:
			op = bytecode.InplaceAdd
		case ast.Sub:
			op = bytecode.InplaceSubtract
		case ast.Mult:
			op = bytecode.InplaceMultiply
		case ast.Div:
			op = bytecode.InplaceTrueDivide
		case ast.FloorDiv:
			op = bytecode.InplaceFloorDivide
		case ast.Modulo:
			op = bytecode.InplaceModulo
		default:
			return fmt.Errorf("unsupported augmented assignment operator")
		}
		u.emit(op, 0)
		c.storeName(u, name)

	case *ast.ExprStmt:
		if err := c.compileExpr(u, s.Value); err != nil {
			return err
		}
		u.emit(bytecode.PopTop, 0)

	case *ast.If:
		if err := c.compileExpr(u, s.Test); err != nil {
			return err
		}
		jumpFalse := u.emit(bytecode.PopJumpIfFalse, 0)
		if err := c.compileBody(u, s.Body); err != nil {
			return err
		}
		if len(s.Orelse) > 0 {
			jumpEnd := u.emit(bytecode.JumpForward, 0)
			u.patchAbsolute(jumpFalse, u.here())
			if err := c.compileBody(u, s.Orelse); err != nil {
				return err
			}
			u.patchForward(jumpEnd, u.here())
		} else {
			u.patchAbsolute(jumpFalse, u.here())
		}

	case *ast.While:
		if len(s.Orelse) > 0 {
			return fmt.Errorf("while/else is not supported")
		}
		ctx := &loopContext{start: u.here()}
		u.loops = append(u.loops, ctx)
		if err := c.compileExpr(u, s.Test); err != nil {
			return err
		}
		jumpFalse := u.emit(bytecode.PopJumpIfFalse, 0)
		if err := c.compileBody(u, s.Body); err != nil {
			return err
		}
		u.emit(bytecode.JumpAbsolute, uint32(2*ctx.start))
		end := u.here()
		u.patchAbsolute(jumpFalse, end)
		for _, at := range ctx.breakJumps {
			u.patchAbsolute(at, end)
		}
		u.loops = u.loops[:len(u.loops)-1]

	case *ast.Break:
		if len(u.loops) == 0 {
			return fmt.Errorf("'break' outside loop")
		}
		ctx := u.loops[len(u.loops)-1]
		ctx.breakJumps = append(ctx.breakJumps, u.emit(bytecode.JumpAbsolute, 0))

	case *ast.Continue:
		if len(u.loops) == 0 {
			return fmt.Errorf("'continue' outside loop")
		}
		u.emit(bytecode.JumpAbsolute, uint32(2*u.loops[len(u.loops)-1].start))

	case *ast.FunctionDef:
		if len(s.DecoratorList) > 0 {
			return fmt.Errorf("decorators are not supported")
		}
		name := string(s.Name)
		code, err := c.compileFunction(name, s.Args, s.Body, nil)
		if err != nil {
			return err
		}
		u.emit(bytecode.LoadConst, u.addConst(value.NewCode(code)))
		u.emit(bytecode.LoadConst, u.addConst(value.NewStr(name)))
		u.emit(bytecode.MakeFunction, 0)
		c.storeName(u, name)

	case *ast.Return:
		if u.module {
			return fmt.Errorf("'return' outside function")
		}
		if s.Value != nil {
			if err := c.compileExpr(u, s.Value); err != nil {
				return err
			}
		} else {
			u.emit(bytecode.LoadConst, u.addConst(value.None()))
		}
		u.emit(bytecode.ReturnValue, 0)

	case *ast.Global:
		for _, name := range s.Names {
			u.globals[string(name)] = true
		}

	case *ast.Pass:
		// No code.

	default:
		return fmt.Errorf("unsupported statement type: %T", stmt)
	}
	return nil
}

func (c *Compiler) compileExpr(u *unit, expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.Num:
		v, err := numValue(e.N)
		if err != nil {
			return err
		}
		u.emit(bytecode.LoadConst, u.addConst(v))

	case *ast.Str:
		u.emit(bytecode.LoadConst, u.addConst(value.NewStr(string(e.S))))

	case *ast.NameConstant:
		v := value.None()
		if e.Value == py.True {
			v = value.NewBool(true)
		} else if e.Value == py.False {
			v = value.NewBool(false)
		}
		u.emit(bytecode.LoadConst, u.addConst(v))

	case *ast.Name:
		c.loadName(u, string(e.Id))

	case *ast.BinOp:
		if err := c.compileExpr(u, e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(u, e.Right); err != nil {
			return err
		}
		var op bytecode.Opcode
		switch e.Op {
		case ast.Add:
			op = bytecode.BinaryAdd
		case ast.Sub:
			op = bytecode.BinarySubtract
		case ast.Mult:
			op = bytecode.BinaryMultiply
		case ast.Div:
			op = bytecode.BinaryTrueDivide
		case ast.FloorDiv:
			op = bytecode.BinaryFloorDivide
		case ast.Modulo:
			op = bytecode.BinaryModulo
		case ast.Pow:
			op = bytecode.BinaryPower
		default:
			return fmt.Errorf("unsupported binary operator")
		}
		u.emit(op, 0)

	case *ast.BoolOp:
		jumpOp := bytecode.JumpIfFalseOrPop
		if e.Op == ast.Or {
			jumpOp = bytecode.JumpIfTrueOrPop
		}
		var jumps []int
		for i, v := range e.Values {
			if err := c.compileExpr(u, v); err != nil {
				return err
			}
			if i < len(e.Values)-1 {
				jumps = append(jumps, u.emit(jumpOp, 0))
			}
		}
		for _, at := range jumps {
			u.patchAbsolute(at, u.here())
		}

	case *ast.Compare:
		if len(e.Ops) != 1 {
			return fmt.Errorf("chained comparisons are not supported")
		}
		if err := c.compileExpr(u, e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(u, e.Comparators[0]); err != nil {
			return err
		}
		var cmp bytecode.CmpOp
		switch e.Ops[0] {
		case ast.Lt:
			cmp = bytecode.CmpLt
		case ast.LtE:
			cmp = bytecode.CmpLe
		case ast.Eq, ast.Is: // 'is' compiles as equality
			cmp = bytecode.CmpEq
		case ast.NotEq, ast.IsNot:
			cmp = bytecode.CmpNe
		case ast.Gt:
			cmp = bytecode.CmpGt
		case ast.GtE:
			cmp = bytecode.CmpGe
		default:
			return fmt.Errorf("unsupported comparison operator")
		}
		u.emit(bytecode.CompareOp, uint32(cmp))

	case *ast.UnaryOp:
		if err := c.compileExpr(u, e.Operand); err != nil {
			return err
		}
		switch e.Op {
		case ast.USub:
			u.emit(bytecode.UnaryNegative, 0)
		case ast.UAdd:
			u.emit(bytecode.UnaryPositive, 0)
		case ast.Not:
			u.emit(bytecode.UnaryNot, 0)
		default:
			return fmt.Errorf("unsupported unary operator")
		}

	case *ast.Call:
		if len(e.Keywords) > 0 {
			return fmt.Errorf("keyword arguments are not supported")
		}
		if err := c.compileExpr(u, e.Func); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := c.compileExpr(u, arg); err != nil {
				return err
			}
		}
		u.emit(bytecode.CallFunction, uint32(len(e.Args)))

	case *ast.Lambda:
		code, err := c.compileFunction("<lambda>", e.Args, nil, e.Body)
		if err != nil {
			return err
		}
		u.emit(bytecode.LoadConst, u.addConst(value.NewCode(code)))
		u.emit(bytecode.LoadConst, u.addConst(value.NewStr("<lambda>")))
		u.emit(bytecode.MakeFunction, 0)

	case *ast.IfExp:
		if err := c.compileExpr(u, e.Test); err != nil {
			return err
		}
		jumpFalse := u.emit(bytecode.PopJumpIfFalse, 0)
		if err := c.compileExpr(u, e.Body); err != nil {
			return err
		}
		jumpEnd := u.emit(bytecode.JumpForward, 0)
		u.patchAbsolute(jumpFalse, u.here())
		if err := c.compileExpr(u, e.Orelse); err != nil {
			return err
		}
		u.patchForward(jumpEnd, u.here())

	case *ast.Tuple:
		v, ok := constValue(e)
		if !ok {
			return fmt.Errorf("only tuples of literals are supported")
		}
		u.emit(bytecode.LoadConst, u.addConst(v))

	default:
		return fmt.Errorf("unsupported expression type: %T", expr)
	}
	return nil
}

// numValue converts a parsed number by its concrete type, so an
// integral-valued float literal like 2.0 stays a float constant.
func numValue(n py.Object) (value.Value, error) {
	switch num := n.(type) {
	case py.Int:
		return value.NewInt(int64(num)), nil
	case py.Float:
		return value.NewFloat(float64(num)), nil
	case *py.BigInt:
		b := (*big.Int)(num)
		if !b.IsInt64() {
			return value.Value{}, fmt.Errorf("integer literal %s overflows int64", b)
		}
		return value.NewInt(b.Int64()), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported numeric literal %v", n)
	}
}

// constValue folds a literal expression into a constant. Tuples fold only
// when every element folds; anything else is not a constant. This is the
// only path that builds container constants, so a compiled unit can never
// carry a code object buried inside one.
func constValue(expr ast.Expr) (value.Value, bool) {
	switch e := expr.(type) {
	case *ast.Num:
		v, err := numValue(e.N)
		return v, err == nil
	case *ast.Str:
		return value.NewStr(string(e.S)), true
	case *ast.NameConstant:
		if e.Value == py.True {
			return value.NewBool(true), true
		}
		if e.Value == py.False {
			return value.NewBool(false), true
		}
		return value.None(), true
	case *ast.Tuple:
		items := make([]value.Value, 0, len(e.Elts))
		for _, el := range e.Elts {
			v, ok := constValue(el)
			if !ok {
				return value.Value{}, false
			}
			items = append(items, v)
		}
		return value.NewTuple(items), true
	default:
		return value.Value{}, false
	}
}
