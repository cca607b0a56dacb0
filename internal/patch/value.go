package patch

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueKind discriminates the primitive types a patch value can carry.
type ValueKind int

const (
	ValueInt ValueKind = iota
	ValueFloat
	ValueBool
	ValueString
)

// Value is one right-hand side in a change's field map. Integers and
// booleans are stored in cells directly, floats as their 32-bit IEEE-754
// bit pattern, and strings by pool offset (the executor interns them).
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// Bits converts the value to the raw 32-bit cell representation.
// Strings have no direct representation (the caller interns them and
// stores the resulting offset). Integers outside the uint32 range are
// reported as not representable and the assignment is skipped.
func (v Value) Bits() (uint32, bool) {
	switch v.Kind {
	case ValueInt:
		if v.Int < 0 || v.Int > math.MaxUint32 {
			return 0, false
		}
		return uint32(v.Int), true
	case ValueFloat:
		return math.Float32bits(float32(v.Float)), true
	case ValueBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// String implements fmt.Stringer for warning details and logs.
func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	default:
		return strconv.Quote(v.Str)
	}
}

// decodeValue interprets a YAML scalar as a patch value based on its
// resolved tag.
func decodeValue(node *yaml.Node) (Value, error) {
	node = resolveAlias(node)
	if node.Kind != yaml.ScalarNode {
		return Value{}, fmt.Errorf("line %d: expected a scalar value, got %s", node.Line, kindName(node.Kind))
	}
	switch node.Tag {
	case "!!int":
		i, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			// Large unsigned literals overflow int64; retry unsigned.
			u, uerr := strconv.ParseUint(node.Value, 0, 64)
			if uerr != nil || u > math.MaxUint32 {
				return Value{}, fmt.Errorf("line %d: invalid integer %q", node.Line, node.Value)
			}
			return Value{Kind: ValueInt, Int: int64(u)}, nil
		}
		return Value{Kind: ValueInt, Int: i}, nil
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return Value{}, fmt.Errorf("line %d: invalid float %q", node.Line, node.Value)
		}
		return Value{Kind: ValueFloat, Float: f}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("line %d: invalid bool %q", node.Line, node.Value)
		}
		return Value{Kind: ValueBool, Bool: b}, nil
	default:
		return Value{Kind: ValueString, Str: node.Value}, nil
	}
}
