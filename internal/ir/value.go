package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface representing a coerced, unit-scaled value.
// Only String, Int, Real, Bool, Logical, List, and Reference implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// String carries Label, Text, Identifier and enumerated token values.
type String string

func (String) irValue() {}

// Int carries Integer and Count values.
type Int int64

func (Int) irValue() {}

// Real carries every double-backed measure, already in export units.
type Real float64

func (Real) irValue() {}

// Bool carries Boolean values.
type Bool bool

func (Bool) irValue() {}

// Logical is the IFC tri-state boolean.
type Logical int8

func (Logical) irValue() {}

const (
	LogicalUnknown Logical = iota
	LogicalFalse
	LogicalTrue
)

func (l Logical) String() string {
	switch l {
	case LogicalTrue:
		return "TRUE"
	case LogicalFalse:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// LogicalOf converts a two-state boolean to a Logical.
func LogicalOf(b bool) Logical {
	if b {
		return LogicalTrue
	}
	return LogicalFalse
}

// List is an ordered list of values of one kind.
type List []Value

func (List) irValue() {}

// Reference points at an external classification item.
type Reference struct {
	System string `json:"system,omitempty"`
	Code   string `json:"code"`
	Name   string `json:"name,omitempty"`
}

func (Reference) irValue() {}

func (r Reference) String() string {
	if r.System == "" {
		return r.Code
	}
	return "[" + r.System + "] " + r.Code
}

// Format renders a value for human-readable output.
func Format(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Real:
		return formatFloat(float64(val))
	case Bool:
		if val {
			return "true"
		}
		return "false"
	case Logical:
		return val.String()
	case List:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Format(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Reference:
		return val.String()
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal reports whether two values are identical in type and content.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// taggedValue is the JSON envelope for a Value.
// The tag keeps Int and Real distinguishable after a round trip.
type taggedValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

const (
	tagString    = "string"
	tagInt       = "int"
	tagReal      = "real"
	tagBool      = "bool"
	tagLogical   = "logical"
	tagList      = "list"
	tagReference = "reference"
)

// MarshalValue encodes a Value as a tagged JSON envelope.
func MarshalValue(v Value) ([]byte, error) {
	var (
		tag  string
		body []byte
		err  error
	)
	switch val := v.(type) {
	case String:
		tag = tagString
		body, err = json.Marshal(string(val))
	case Int:
		tag = tagInt
		body, err = json.Marshal(int64(val))
	case Real:
		tag = tagReal
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("non-finite real %v", float64(val))
		}
		body = []byte(formatFloat(float64(val)))
	case Bool:
		tag = tagBool
		body, err = json.Marshal(bool(val))
	case Logical:
		tag = tagLogical
		body, err = json.Marshal(val.String())
	case List:
		tag = tagList
		elems := make([]json.RawMessage, len(val))
		for i, elem := range val {
			elems[i], err = MarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		body, err = json.Marshal(elems)
	case Reference:
		tag = tagReference
		body, err = json.Marshal(val)
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(taggedValue{Type: tag, Value: body})
}

// UnmarshalValue decodes a tagged JSON envelope produced by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	var tv taggedValue
	if err := json.Unmarshal(data, &tv); err != nil {
		return nil, err
	}
	switch tv.Type {
	case tagString:
		var s string
		if err := json.Unmarshal(tv.Value, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case tagInt:
		var n int64
		if err := json.Unmarshal(tv.Value, &n); err != nil {
			return nil, err
		}
		return Int(n), nil
	case tagReal:
		var f float64
		if err := json.Unmarshal(tv.Value, &f); err != nil {
			return nil, err
		}
		return Real(f), nil
	case tagBool:
		var b bool
		if err := json.Unmarshal(tv.Value, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case tagLogical:
		var s string
		if err := json.Unmarshal(tv.Value, &s); err != nil {
			return nil, err
		}
		switch s {
		case "TRUE":
			return LogicalTrue, nil
		case "FALSE":
			return LogicalFalse, nil
		case "UNKNOWN":
			return LogicalUnknown, nil
		}
		return nil, fmt.Errorf("invalid logical %q", s)
	case tagList:
		var raw []json.RawMessage
		if err := json.Unmarshal(tv.Value, &raw); err != nil {
			return nil, err
		}
		list := make(List, len(raw))
		for i, elem := range raw {
			v, err := UnmarshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = v
		}
		return list, nil
	case tagReference:
		var ref Reference
		if err := json.Unmarshal(tv.Value, &ref); err != nil {
			return nil, err
		}
		return ref, nil
	default:
		return nil, fmt.Errorf("unknown value tag %q", tv.Type)
	}
}

// formatFloat renders the shortest representation that round-trips,
// with ECMAScript-style exponents ("1e-7", not "1e-07").
func formatFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + string(sign) + digits
}
