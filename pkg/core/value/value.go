package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type represents the tag in the Value tagged union.
type Type uint8

const (
	TypeNone Type = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeStr
	TypeTuple
	TypeCode
	TypeFunc
	TypeBuiltin
)

// Value is a tagged union. Exactly one payload field is meaningful for a
// given Type.
type Value struct {
	Type  Type
	Int   int64
	Float float64
	Bool  bool
	Str   string  // string payload; doubles as function/builtin name
	Items []Value // tuple elements
	Code  any     // *bytecode.Code, held as any so this package stays a leaf
}

func None() Value              { return Value{Type: TypeNone} }
func NewInt(i int64) Value     { return Value{Type: TypeInt, Int: i} }
func NewFloat(f float64) Value { return Value{Type: TypeFloat, Float: f} }
func NewBool(b bool) Value     { return Value{Type: TypeBool, Bool: b} }
func NewStr(s string) Value    { return Value{Type: TypeStr, Str: s} }
func NewTuple(items []Value) Value {
	return Value{Type: TypeTuple, Items: items}
}
func NewCode(code any) Value { return Value{Type: TypeCode, Code: code} }

// PyTypeName returns the Python type name for the value, as produced by
// type(x).__name__ on the reference runtime.
func (v Value) PyTypeName() string {
	switch v.Type {
	case TypeNone:
		return "NoneType"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeStr:
		return "str"
	case TypeTuple:
		return "tuple"
	case TypeCode:
		return "code"
	case TypeFunc:
		return "function"
	case TypeBuiltin:
		return "builtin_function_or_method"
	default:
		return "object"
	}
}

// Truthy reports the Python truth value.
func (v Value) Truthy() bool {
	switch v.Type {
	case TypeNone:
		return false
	case TypeInt:
		return v.Int != 0
	case TypeFloat:
		return v.Float != 0
	case TypeBool:
		return v.Bool
	case TypeStr:
		return v.Str != ""
	case TypeTuple:
		return len(v.Items) > 0
	default:
		return true
	}
}

func (v Value) isNumeric() bool {
	return v.Type == TypeInt || v.Type == TypeFloat || v.Type == TypeBool
}

func (v Value) asFloat() float64 {
	switch v.Type {
	case TypeFloat:
		return v.Float
	case TypeBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return float64(v.Int)
	}
}

func (v Value) asInt() int64 {
	switch v.Type {
	case TypeBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return v.Int
	}
}

// Equal implements Python == with bool/int/float promotion.
func Equal(a, b Value) bool {
	if a.isNumeric() && b.isNumeric() {
		if a.Type == TypeFloat || b.Type == TypeFloat {
			return a.asFloat() == b.asFloat()
		}
		return a.asInt() == b.asInt()
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeNone:
		return true
	case TypeStr:
		return a.Str == b.Str
	case TypeTuple:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare implements Python ordering, returning -1, 0 or 1. Mixed
// bool/int/float operands compare numerically; anything else errors.
func Compare(a, b Value) (int, error) {
	if a.isNumeric() && b.isNumeric() {
		af, bf := a.asFloat(), b.asFloat()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.Type == TypeStr && b.Type == TypeStr {
		return strings.Compare(a.Str, b.Str), nil
	}
	return 0, fmt.Errorf("'%s' and '%s' are not orderable", a.PyTypeName(), b.PyTypeName())
}

func binErr(op string, a, b Value) error {
	return fmt.Errorf("unsupported operand types for %s: '%s' and '%s'",
		op, a.PyTypeName(), b.PyTypeName())
}

// Add implements Python +: numeric addition or string concatenation.
func Add(a, b Value) (Value, error) {
	if a.isNumeric() && b.isNumeric() {
		if a.Type == TypeFloat || b.Type == TypeFloat {
			return NewFloat(a.asFloat() + b.asFloat()), nil
		}
		return NewInt(a.asInt() + b.asInt()), nil
	}
	if a.Type == TypeStr && b.Type == TypeStr {
		return NewStr(a.Str + b.Str), nil
	}
	return Value{}, binErr("+", a, b)
}

// Sub implements Python -.
func Sub(a, b Value) (Value, error) {
	if a.isNumeric() && b.isNumeric() {
		if a.Type == TypeFloat || b.Type == TypeFloat {
			return NewFloat(a.asFloat() - b.asFloat()), nil
		}
		return NewInt(a.asInt() - b.asInt()), nil
	}
	return Value{}, binErr("-", a, b)
}

// Mul implements Python *: numeric product or string repetition.
func Mul(a, b Value) (Value, error) {
	if a.isNumeric() && b.isNumeric() {
		if a.Type == TypeFloat || b.Type == TypeFloat {
			return NewFloat(a.asFloat() * b.asFloat()), nil
		}
		return NewInt(a.asInt() * b.asInt()), nil
	}
	if a.Type == TypeStr && b.Type == TypeInt {
		return NewStr(repeat(a.Str, b.Int)), nil
	}
	if a.Type == TypeInt && b.Type == TypeStr {
		return NewStr(repeat(b.Str, a.Int)), nil
	}
	return Value{}, binErr("*", a, b)
}

func repeat(s string, n int64) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, int(n))
}

// TrueDiv implements Python /: the result is always a float.
func TrueDiv(a, b Value) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Value{}, binErr("/", a, b)
	}
	if b.asFloat() == 0 {
		return Value{}, fmt.Errorf("division by zero")
	}
	return NewFloat(a.asFloat() / b.asFloat()), nil
}

// FloorDiv implements Python //.
func FloorDiv(a, b Value) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Value{}, binErr("//", a, b)
	}
	if b.asFloat() == 0 {
		return Value{}, fmt.Errorf("division by zero")
	}
	if a.Type == TypeFloat || b.Type == TypeFloat {
		return NewFloat(math.Floor(a.asFloat() / b.asFloat())), nil
	}
	q := a.asInt() / b.asInt()
	if (a.asInt()%b.asInt() != 0) && ((a.asInt() < 0) != (b.asInt() < 0)) {
		q--
	}
	return NewInt(q), nil
}

// Mod implements Python %, with Python's sign convention.
func Mod(a, b Value) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Value{}, binErr("%", a, b)
	}
	if b.asFloat() == 0 {
		return Value{}, fmt.Errorf("division by zero")
	}
	if a.Type == TypeFloat || b.Type == TypeFloat {
		m := math.Mod(a.asFloat(), b.asFloat())
		if m != 0 && (m < 0) != (b.asFloat() < 0) {
			m += b.asFloat()
		}
		return NewFloat(m), nil
	}
	m := a.asInt() % b.asInt()
	if m != 0 && (m < 0) != (b.asInt() < 0) {
		m += b.asInt()
	}
	return NewInt(m), nil
}

// Pow implements Python **.
func Pow(a, b Value) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Value{}, binErr("**", a, b)
	}
	if a.Type != TypeFloat && b.Type != TypeFloat && b.asInt() >= 0 {
		result := int64(1)
		base := a.asInt()
		for i := int64(0); i < b.asInt(); i++ {
			result *= base
		}
		return NewInt(result), nil
	}
	return NewFloat(math.Pow(a.asFloat(), b.asFloat())), nil
}

// Negate implements unary -.
func Negate(v Value) (Value, error) {
	switch v.Type {
	case TypeInt:
		return NewInt(-v.Int), nil
	case TypeFloat:
		return NewFloat(-v.Float), nil
	case TypeBool:
		return NewInt(-v.asInt()), nil
	default:
		return Value{}, fmt.Errorf("bad operand type for unary -: '%s'", v.PyTypeName())
	}
}

// Format returns the value as print() would show it: strings are raw at
// the top level and repr-quoted inside containers.
func (v Value) Format() string {
	if v.Type == TypeStr {
		return v.Str
	}
	return v.Repr()
}

// Repr returns the value as repr() would show it.
func (v Value) Repr() string {
	switch v.Type {
	case TypeNone:
		return "None"
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "inf") && !strings.Contains(s, "NaN") {
			s += ".0"
		}
		return s
	case TypeBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case TypeStr:
		return "'" + strings.ReplaceAll(v.Str, "'", "\\'") + "'"
	case TypeTuple:
		parts := make([]string, len(v.Items))
		for i, el := range v.Items {
			parts[i] = el.Repr()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TypeCode:
		return "<code object>"
	case TypeFunc:
		return fmt.Sprintf("<function %s>", v.Str)
	case TypeBuiltin:
		return fmt.Sprintf("<built-in function %s>", v.Str)
	default:
		return "<object>"
	}
}
