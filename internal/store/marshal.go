package store

import (
	"fmt"

	"github.com/roach88/ifcpset/internal/ir"
)

// marshalValue converts a property value to its tagged JSON TEXT form.
// The tag keeps Int and Real apart after a round trip.
func marshalValue(v ir.Value) (string, error) {
	data, err := ir.MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses the tagged JSON TEXT form of a property value.
func unmarshalValue(data string) (ir.Value, error) {
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}

func parseSetKind(s string) (ir.SetKind, error) {
	switch s {
	case ir.PropertySet.String():
		return ir.PropertySet, nil
	case ir.QuantitySet.String():
		return ir.QuantitySet, nil
	}
	return 0, fmt.Errorf("unknown set kind %q", s)
}
