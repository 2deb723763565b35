package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureKindNamesRoundTrip(t *testing.T) {
	kinds := AllMeasureKinds()
	require.Len(t, kinds, 20)

	for _, k := range kinds {
		parsed, err := ParseMeasureKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestParseMeasureKindUnknown(t *testing.T) {
	_, err := ParseMeasureKind("Luminance")
	assert.Error(t, err)
	_, err = ParseMeasureKind("label")
	assert.Error(t, err, "names are case sensitive")
}

func TestMeasureKindPrimitive(t *testing.T) {
	tests := map[MeasureKind]Primitive{
		KindLabel:                   PrimitiveString,
		KindIdentifier:              PrimitiveString,
		KindBoolean:                 PrimitiveBool,
		KindLogical:                 PrimitiveTriState,
		KindInteger:                 PrimitiveInt,
		KindCount:                   PrimitiveInt,
		KindPlaneAngle:              PrimitiveDouble,
		KindPower:                   PrimitiveDouble,
		KindClassificationReference: PrimitiveReference,
	}
	for k, want := range tests {
		assert.Equal(t, want, k.Primitive(), k.String())
	}
}

func TestMeasureKindJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Kind      MeasureKind   `json:"kind"`
		Container ContainerKind `json:"container"`
	}{KindThermalTransmittance, ContainerEnumerated})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"ThermalTransmittance","container":"Enumerated"}`, string(data))

	var back struct {
		Kind      MeasureKind   `json:"kind"`
		Container ContainerKind `json:"container"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, KindThermalTransmittance, back.Kind)
	assert.Equal(t, ContainerEnumerated, back.Container)
}

func TestInvalidKindString(t *testing.T) {
	assert.Equal(t, "MeasureKind(99)", MeasureKind(99).String())
	assert.False(t, MeasureKind(-1).Valid())
	assert.Equal(t, "ContainerKind(7)", ContainerKind(7).String())
}
