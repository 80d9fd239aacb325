package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/framelang/pyframe/pkg/core/value"
)

// Wire contract: an Instruction encodes as a single-key mapping from its
// normalized opcode name to the operand (or null), and a Constant encodes
// as a single-key mapping from its tag to a nested Frame or the literal.

// MarshalJSON implements json.Marshaler.
func (i Instruction) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]*int{i.Name: i.Operand})
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *Instruction) UnmarshalJSON(data []byte) error {
	var m map[string]*int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("frame: instruction must be a single-key mapping, got %d keys", len(m))
	}
	for name, operand := range m {
		i.Name = name
		i.Operand = operand
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Constant) MarshalJSON() ([]byte, error) {
	if c.Frame != nil {
		return json.Marshal(map[string]*Frame{"Frame": c.Frame})
	}
	lit, err := literalAny(c.Literal)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{c.Tag(): lit})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Constant) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("frame: constant must be a single-key mapping, got %d keys", len(m))
	}
	for tag, raw := range m {
		if tag == "Frame" {
			f := &Frame{}
			if err := json.Unmarshal(raw, f); err != nil {
				return err
			}
			c.Frame = f
			return nil
		}
		lit, err := decodeLiteral(tag, raw)
		if err != nil {
			return err
		}
		c.Frame = nil
		c.Literal = lit
	}
	return nil
}

// MarshalCBOR implements cbor.Marshaler with the same single-key shape.
func (i Instruction) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(map[string]*int{i.Name: i.Operand})
}

// MarshalCBOR implements cbor.Marshaler.
func (c Constant) MarshalCBOR() ([]byte, error) {
	if c.Frame != nil {
		return cbor.Marshal(map[string]*Frame{"Frame": c.Frame})
	}
	lit, err := literalAny(c.Literal)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(map[string]any{c.Tag(): lit})
}

// literalAny lowers a literal value to the encoder-neutral form both the
// JSON and CBOR encoders accept. Code objects are rejected: they must be
// wrapped as nested Frames by Serialize, never emitted as literals.
func literalAny(v value.Value) (any, error) {
	switch v.Type {
	case value.TypeNone:
		return nil, nil
	case value.TypeInt:
		return v.Int, nil
	case value.TypeFloat:
		return v.Float, nil
	case value.TypeBool:
		return v.Bool, nil
	case value.TypeStr:
		return v.Str, nil
	case value.TypeTuple:
		items := make([]any, len(v.Items))
		for i, el := range v.Items {
			lowered, err := literalAny(el)
			if err != nil {
				return nil, err
			}
			items[i] = lowered
		}
		return items, nil
	default:
		return nil, fmt.Errorf("frame: %s is not a literal constant", v.PyTypeName())
	}
}

// decodeLiteral rebuilds a literal value from its tag and raw JSON.
func decodeLiteral(tag string, raw json.RawMessage) (value.Value, error) {
	switch tag {
	case "Nonetype":
		return value.None(), nil
	case "Int":
		var i int64
		if err := json.Unmarshal(raw, &i); err != nil {
			return value.Value{}, err
		}
		return value.NewInt(i), nil
	case "Float":
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(f), nil
	case "Bool":
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return value.Value{}, err
		}
		return value.NewBool(b), nil
	case "Str":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return value.Value{}, err
		}
		return value.NewStr(s), nil
	case "Tuple":
		if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '[' {
			return value.Value{}, fmt.Errorf("frame: Tuple payload must be an array, got %s", raw)
		}
		return inferLiteral(raw)
	default:
		return value.Value{}, fmt.Errorf("frame: unknown constant tag %q", tag)
	}
}

// inferLiteral decodes an untagged JSON literal. Tuple elements are stored
// untagged on the wire, so their kinds are recovered from JSON syntax;
// integral numbers without a decimal point or exponent become ints.
func inferLiteral(raw json.RawMessage) (value.Value, error) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return value.Value{}, fmt.Errorf("frame: empty literal")
	}
	switch {
	case bytes.Equal(t, []byte("null")):
		return value.None(), nil
	case bytes.Equal(t, []byte("true")):
		return value.NewBool(true), nil
	case bytes.Equal(t, []byte("false")):
		return value.NewBool(false), nil
	case t[0] == '"':
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return value.Value{}, err
		}
		return value.NewStr(s), nil
	case t[0] == '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(t, &elems); err != nil {
			return value.Value{}, err
		}
		items := make([]value.Value, len(elems))
		for i, el := range elems {
			v, err := inferLiteral(el)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.NewTuple(items), nil
	default:
		if !bytes.ContainsAny(t, ".eE") {
			if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
				return value.NewInt(i), nil
			}
		}
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("frame: bad literal %q", t)
		}
		return value.NewFloat(f), nil
	}
}
