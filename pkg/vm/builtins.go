package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/framelang/pyframe/pkg/core/value"
)

func defaultBuiltins() map[string]Builtin {
	return map[string]Builtin{
		"print": builtinPrint,
		"len":   builtinLen,
		"abs":   builtinAbs,
		"str":   builtinStr,
		"repr":  builtinRepr,
		"int":   builtinInt,
		"float": builtinFloat,
		"bool":  builtinBool,
	}
}

func builtinPrint(m *Machine, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Format()
	}
	fmt.Fprintln(m.Output, strings.Join(parts, " "))
	return value.None(), nil
}

func builtinLen(_ *Machine, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("len() takes exactly one argument (%d given)", len(args))
	}
	switch args[0].Type {
	case value.TypeStr:
		return value.NewInt(int64(len(args[0].Str))), nil
	case value.TypeTuple:
		return value.NewInt(int64(len(args[0].Items))), nil
	default:
		return value.Value{}, fmt.Errorf("object of type '%s' has no len()", args[0].PyTypeName())
	}
}

func builtinAbs(_ *Machine, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("abs() takes exactly one argument (%d given)", len(args))
	}
	v := args[0]
	switch v.Type {
	case value.TypeInt:
		if v.Int < 0 {
			return value.NewInt(-v.Int), nil
		}
		return v, nil
	case value.TypeFloat:
		if v.Float < 0 {
			return value.NewFloat(-v.Float), nil
		}
		return v, nil
	case value.TypeBool:
		if v.Bool {
			return value.NewInt(1), nil
		}
		return value.NewInt(0), nil
	default:
		return value.Value{}, fmt.Errorf("bad operand type for abs(): '%s'", v.PyTypeName())
	}
}

func builtinStr(_ *Machine, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewStr(""), nil
	}
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("str() takes at most one argument (%d given)", len(args))
	}
	return value.NewStr(args[0].Format()), nil
}

func builtinRepr(_ *Machine, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("repr() takes exactly one argument (%d given)", len(args))
	}
	return value.NewStr(args[0].Repr()), nil
}

func builtinInt(_ *Machine, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewInt(0), nil
	}
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("int() takes at most one argument (%d given)", len(args))
	}
	v := args[0]
	switch v.Type {
	case value.TypeInt:
		return v, nil
	case value.TypeFloat:
		// Truncates toward zero.
		return value.NewInt(int64(v.Float)), nil
	case value.TypeBool:
		if v.Bool {
			return value.NewInt(1), nil
		}
		return value.NewInt(0), nil
	case value.TypeStr:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid literal for int(): %s", v.Repr())
		}
		return value.NewInt(i), nil
	default:
		return value.Value{}, fmt.Errorf("int() argument must be a string or a number, not '%s'", v.PyTypeName())
	}
}

func builtinFloat(_ *Machine, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewFloat(0), nil
	}
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("float() takes at most one argument (%d given)", len(args))
	}
	v := args[0]
	switch v.Type {
	case value.TypeFloat:
		return v, nil
	case value.TypeInt:
		return value.NewFloat(float64(v.Int)), nil
	case value.TypeBool:
		if v.Bool {
			return value.NewFloat(1), nil
		}
		return value.NewFloat(0), nil
	case value.TypeStr:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("could not convert string to float: %s", v.Repr())
		}
		return value.NewFloat(f), nil
	default:
		return value.Value{}, fmt.Errorf("float() argument must be a string or a number, not '%s'", v.PyTypeName())
	}
}

func builtinBool(_ *Machine, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewBool(false), nil
	}
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("bool() takes at most one argument (%d given)", len(args))
	}
	return value.NewBool(args[0].Truthy()), nil
}
