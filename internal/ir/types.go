package ir

import (
	"encoding/json"
	"fmt"
)

// MeasureKind is the semantic unit category of a property or quantity value.
// The set is closed: ParseMeasureKind rejects anything not listed here.
type MeasureKind int

const (
	KindLabel MeasureKind = iota
	KindText
	KindBoolean
	KindLogical
	KindInteger
	KindReal
	KindPositiveLength
	KindLength
	KindRatio
	KindPositiveRatio
	KindPlaneAngle
	KindArea
	KindVolume
	KindIdentifier
	KindCount
	KindThermodynamicTemperature
	KindThermalTransmittance
	KindVolumetricFlowRate
	KindPower
	KindClassificationReference
)

var measureKindNames = [...]string{
	KindLabel:                    "Label",
	KindText:                     "Text",
	KindBoolean:                  "Boolean",
	KindLogical:                  "Logical",
	KindInteger:                  "Integer",
	KindReal:                     "Real",
	KindPositiveLength:           "PositiveLength",
	KindLength:                   "Length",
	KindRatio:                    "Ratio",
	KindPositiveRatio:            "PositiveRatio",
	KindPlaneAngle:               "PlaneAngle",
	KindArea:                     "Area",
	KindVolume:                   "Volume",
	KindIdentifier:               "Identifier",
	KindCount:                    "Count",
	KindThermodynamicTemperature: "ThermodynamicTemperature",
	KindThermalTransmittance:     "ThermalTransmittance",
	KindVolumetricFlowRate:       "VolumetricFlowRate",
	KindPower:                    "Power",
	KindClassificationReference:  "ClassificationReference",
}

// AllMeasureKinds returns every kind in declaration order.
func AllMeasureKinds() []MeasureKind {
	kinds := make([]MeasureKind, len(measureKindNames))
	for i := range measureKindNames {
		kinds[i] = MeasureKind(i)
	}
	return kinds
}

func (k MeasureKind) String() string {
	if k < 0 || int(k) >= len(measureKindNames) {
		return fmt.Sprintf("MeasureKind(%d)", int(k))
	}
	return measureKindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k MeasureKind) Valid() bool {
	return k >= 0 && int(k) < len(measureKindNames)
}

// ParseMeasureKind resolves a kind by its exact name.
func ParseMeasureKind(s string) (MeasureKind, error) {
	for i, name := range measureKindNames {
		if name == s {
			return MeasureKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown measure kind %q", s)
}

// MarshalJSON encodes the kind by name.
func (k MeasureKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid measure kind %d", int(k))
	}
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *MeasureKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMeasureKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Primitive is the storage shape underlying a measure kind.
type Primitive int

const (
	PrimitiveString Primitive = iota
	PrimitiveBool
	PrimitiveInt
	PrimitiveDouble
	PrimitiveTriState
	PrimitiveReference
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveString:
		return "string"
	case PrimitiveBool:
		return "bool"
	case PrimitiveInt:
		return "int"
	case PrimitiveDouble:
		return "double"
	case PrimitiveTriState:
		return "tristate"
	case PrimitiveReference:
		return "reference"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}

// Primitive returns the storage shape for the kind.
func (k MeasureKind) Primitive() Primitive {
	switch k {
	case KindLabel, KindText, KindIdentifier:
		return PrimitiveString
	case KindBoolean:
		return PrimitiveBool
	case KindLogical:
		return PrimitiveTriState
	case KindInteger, KindCount:
		return PrimitiveInt
	case KindClassificationReference:
		return PrimitiveReference
	default:
		return PrimitiveDouble
	}
}

// ContainerKind is the wrapper shape a value is serialized in.
type ContainerKind int

const (
	ContainerSingle ContainerKind = iota
	ContainerEnumerated
	ContainerList
	ContainerReference
)

var containerKindNames = [...]string{
	ContainerSingle:     "Single",
	ContainerEnumerated: "Enumerated",
	ContainerList:       "List",
	ContainerReference:  "Reference",
}

func (c ContainerKind) String() string {
	if c < 0 || int(c) >= len(containerKindNames) {
		return fmt.Sprintf("ContainerKind(%d)", int(c))
	}
	return containerKindNames[c]
}

// Valid reports whether c is one of the declared container kinds.
func (c ContainerKind) Valid() bool {
	return c >= 0 && int(c) < len(containerKindNames)
}

// ParseContainerKind resolves a container kind by its exact name.
func ParseContainerKind(s string) (ContainerKind, error) {
	for i, name := range containerKindNames {
		if name == s {
			return ContainerKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown container kind %q", s)
}

// MarshalJSON encodes the container kind by name.
func (c ContainerKind) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid container kind %d", int(c))
	}
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a container kind name.
func (c *ContainerKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseContainerKind(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SetKind distinguishes property sets from quantity sets.
type SetKind int

const (
	PropertySet SetKind = iota
	QuantitySet
)

func (s SetKind) String() string {
	if s == QuantitySet {
		return "QuantitySet"
	}
	return "PropertySet"
}
