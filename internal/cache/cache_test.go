package cache

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/measure"
)

var (
	feet   = measure.ScaleContext{LinearScale: 1}
	inches = measure.ScaleContext{LinearScale: 12}
	mm     = measure.ScaleContext{LinearScale: 304.8}
	meters = measure.ScaleContext{LinearScale: 0.3048}
)

func quantizeReal(t *testing.T, kind ir.MeasureKind, v float64, sc measure.ScaleContext) (float64, bool) {
	t.Helper()
	q, ok := Quantize(kind, ir.ContainerSingle, ir.Real(v), sc)
	r, isReal := q.(ir.Real)
	require.True(t, isReal)
	return float64(r), ok
}

func TestQuantizeLengthImperial(t *testing.T) {
	tests := []struct {
		name   string
		sc     measure.ScaleContext
		in     float64
		want   float64
		cached bool
	}{
		{"zero", feet, 0, 0, true},
		{"near zero", feet, 1e-12, 0, true},
		{"half inch", feet, 1.0 / 24, 1.0 / 24, true},
		{"ten feet", feet, 10, 10, true},
		{"just past window, integral", feet, 11, 11, true},
		{"past window, fractional", feet, 10.5, 10.5, false},
		{"off grid", feet, 1.0 / 48, 1.0 / 48, false},
		{"inches on grid", inches, 6.5, 6.5, true},
		{"inches at window edge", inches, 120, 120, true},
		{"inches off grid", inches, 6.25, 6.25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := quantizeReal(t, ir.KindLength, tt.in, tt.sc)
			assert.Equal(t, tt.cached, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestQuantizeLengthMetric(t *testing.T) {
	got, ok := quantizeReal(t, ir.KindLength, 150, mm)
	assert.True(t, ok)
	assert.InDelta(t, 150, got, 1e-9)

	got, ok = quantizeReal(t, ir.KindLength, 10000, mm)
	assert.True(t, ok, "10 m is the top of the window")
	assert.InDelta(t, 10000, got, 1e-9)

	_, ok = quantizeReal(t, ir.KindLength, 125.5, mm)
	assert.False(t, ok)

	got, ok = quantizeReal(t, ir.KindLength, 0.15, meters)
	assert.True(t, ok)
	assert.InDelta(t, 0.15, got, 1e-12)

	_, ok = quantizeReal(t, ir.KindLength, 0.17, meters)
	assert.False(t, ok)
}

func TestQuantizeExactIntegralTier(t *testing.T) {
	got, ok := quantizeReal(t, ir.KindPositiveLength, 4500, feet)
	assert.True(t, ok)
	assert.Equal(t, 4500.0, got)

	_, ok = quantizeReal(t, ir.KindLength, MaxExactLength+1, feet)
	assert.False(t, ok)
}

func TestQuantizePlaneAngle(t *testing.T) {
	got, ok := quantizeReal(t, ir.KindPlaneAngle, 90, feet)
	assert.True(t, ok)
	assert.Equal(t, 90.0, got)

	got, ok = quantizeReal(t, ir.KindPlaneAngle, math.Pi/2*180/math.Pi, feet)
	assert.True(t, ok)
	assert.Equal(t, 90.0, got, "float noise around a grid angle snaps")

	raw := 1.56 * 180 / math.Pi
	got, ok = quantizeReal(t, ir.KindPlaneAngle, raw, feet)
	assert.False(t, ok)
	assert.Equal(t, raw, got, "near-grid angles keep their value")

	got, ok = quantizeReal(t, ir.KindPlaneAngle, 14.2, feet)
	assert.False(t, ok)
	assert.Equal(t, 14.2, got)

	got, ok = quantizeReal(t, ir.KindPlaneAngle, 37.5, feet)
	assert.False(t, ok)
	assert.Equal(t, 37.5, got, "off-grid angles are left untouched")

	got, ok = quantizeReal(t, ir.KindPlaneAngle, -1e-12, feet)
	assert.True(t, ok)
	assert.False(t, math.Signbit(got), "snapped zero is positive")
}

func TestQuantizeMovesValuesByAtMostTolerance(t *testing.T) {
	for _, kind := range []ir.MeasureKind{ir.KindLength, ir.KindPlaneAngle, ir.KindPower, ir.KindThermodynamicTemperature} {
		for _, raw := range []float64{0.25, 14.2, 44.9, 45, 89.38, 150.0000000001} {
			got, _ := quantizeReal(t, kind, raw, feet)
			assert.LessOrEqual(t, math.Abs(raw-got), Tolerance(kind)*math.Max(1, math.Abs(raw)),
				"%s %v moved to %v", kind, raw, got)
		}
	}
}

func TestQuantizeSteps(t *testing.T) {
	tests := []struct {
		name   string
		kind   ir.MeasureKind
		in     float64
		want   float64
		cached bool
	}{
		{"power on grid", ir.KindPower, 60, 60, true},
		{"power at max", ir.KindPower, 300, 300, true},
		{"power above max", ir.KindPower, 305, 305, false},
		{"power negative", ir.KindPower, -5, -5, false},
		{"power off grid", ir.KindPower, 62, 62, false},
		{"u-value on grid", ir.KindThermalTransmittance, 0.35, 0.35, true},
		{"u-value at max", ir.KindThermalTransmittance, 6, 6, true},
		{"u-value above max", ir.KindThermalTransmittance, 6.05, 6.05, false},
		{"u-value off grid", ir.KindThermalTransmittance, 0.33, 0.33, false},
		{"temperature half degree", ir.KindThermodynamicTemperature, 21.5, 21.5, true},
		{"temperature negative", ir.KindThermodynamicTemperature, -3, -3, true},
		{"temperature off grid", ir.KindThermodynamicTemperature, 21.3, 21.3, false},
		{"area never cached", ir.KindArea, 10, 10, false},
		{"ratio never cached", ir.KindRatio, 0.5, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := quantizeReal(t, tt.kind, tt.in, mm)
			assert.Equal(t, tt.cached, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantizeScalars(t *testing.T) {
	_, ok := Quantize(ir.KindInteger, ir.ContainerSingle, ir.Int(10), feet)
	assert.True(t, ok)
	_, ok = Quantize(ir.KindInteger, ir.ContainerSingle, ir.Int(-10), feet)
	assert.True(t, ok)
	_, ok = Quantize(ir.KindInteger, ir.ContainerSingle, ir.Int(11), feet)
	assert.False(t, ok)
	_, ok = Quantize(ir.KindCount, ir.ContainerSingle, ir.Int(1), feet)
	assert.False(t, ok)

	_, ok = Quantize(ir.KindBoolean, ir.ContainerSingle, ir.Bool(true), feet)
	assert.True(t, ok)
	_, ok = Quantize(ir.KindLogical, ir.ContainerSingle, ir.LogicalUnknown, feet)
	assert.True(t, ok)

	_, ok = Quantize(ir.KindLabel, ir.ContainerSingle, ir.String(""), feet)
	assert.True(t, ok)
	_, ok = Quantize(ir.KindLabel, ir.ContainerEnumerated, ir.String("Operable"), feet)
	assert.False(t, ok)
	_, ok = Quantize(ir.KindText, ir.ContainerSingle, ir.String(""), feet)
	assert.True(t, ok)
	_, ok = Quantize(ir.KindIdentifier, ir.ContainerSingle, ir.String("W-01"), feet)
	assert.True(t, ok)

	_, ok = Quantize(ir.KindLabel, ir.ContainerList, ir.List{ir.String("")}, feet)
	assert.False(t, ok)
	_, ok = Quantize(ir.KindClassificationReference, ir.ContainerReference, ir.Reference{Code: "x"}, feet)
	assert.False(t, ok)
}

func TestCacheFindInsert(t *testing.T) {
	c := New()
	key, err := NewKey("Span", ir.ContainerSingle, ir.Real(4500))
	require.NoError(t, err)

	_, ok := c.Find(ir.KindPositiveLength, key)
	assert.False(t, ok)

	assert.Equal(t, emit.Handle(7), c.Insert(ir.KindPositiveLength, key, 7))
	assert.Equal(t, emit.Handle(7), c.Insert(ir.KindPositiveLength, key, 9), "insert never overwrites")

	h, ok := c.Find(ir.KindPositiveLength, key)
	require.True(t, ok)
	assert.Equal(t, emit.Handle(7), h)

	_, ok = c.Find(ir.KindReal, key)
	assert.False(t, ok, "Real has its own store")
}

func TestCacheKindsNeverShareHandles(t *testing.T) {
	c := New()
	key, err := NewKey("Width", ir.ContainerSingle, ir.Real(2))
	require.NoError(t, err)

	c.Insert(ir.KindLength, key, 3)
	_, ok := c.Find(ir.KindPositiveLength, key)
	assert.False(t, ok, "a Length handle must not serve a PositiveLength entry")

	assert.Equal(t, emit.Handle(5), c.Insert(ir.KindPositiveLength, key, 5))
	assert.Equal(t, 2, c.Stats().Stores)
}

func TestCacheKeysSeparateContainers(t *testing.T) {
	c := New()
	single, _ := NewKey("Status", ir.ContainerSingle, ir.String(""))
	enum, _ := NewKey("Status", ir.ContainerEnumerated, ir.String(""))
	c.Insert(ir.KindLabel, single, 1)

	_, ok := c.Find(ir.KindLabel, enum)
	assert.False(t, ok)
}

func TestCacheLazyStores(t *testing.T) {
	c := New()
	assert.Equal(t, 0, c.Stats().Stores)

	k1, _ := NewKey("IsExternal", ir.ContainerSingle, ir.Bool(true))
	k2, _ := NewKey("Count", ir.ContainerSingle, ir.Int(3))
	c.Insert(ir.KindBoolean, k1, 1)
	c.Insert(ir.KindInteger, k2, 2)
	c.Insert(ir.KindBoolean, k1, 3)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Stores)
	assert.Equal(t, 2, stats.Entries)
}

func TestCacheIgnoresNullHandle(t *testing.T) {
	c := New()
	k, _ := NewKey("x", ir.ContainerSingle, ir.Bool(true))
	c.Insert(ir.KindBoolean, k, 0)
	_, ok := c.Find(ir.KindBoolean, k)
	assert.False(t, ok)
}

func TestCacheDisabled(t *testing.T) {
	c := New(Disabled())
	assert.False(t, c.Enabled())

	k, _ := NewKey("x", ir.ContainerSingle, ir.Bool(true))
	c.Insert(ir.KindBoolean, k, 5)
	_, ok := c.Find(ir.KindBoolean, k)
	assert.False(t, ok)
	assert.Equal(t, Stats{}, c.Stats())
}

func TestCacheClear(t *testing.T) {
	c := New()
	k, _ := NewKey("x", ir.ContainerSingle, ir.Bool(true))
	c.Insert(ir.KindBoolean, k, 5)
	c.Find(ir.KindBoolean, k)

	c.Clear()
	assert.Equal(t, Stats{}, c.Stats())
	_, ok := c.Find(ir.KindBoolean, k)
	assert.False(t, ok)
}

func TestNewKeyRejectsComposite(t *testing.T) {
	_, err := NewKey("Zones", ir.ContainerList, ir.List{ir.String("A")})
	assert.Error(t, err)
	_, err = NewKey("Ref", ir.ContainerReference, ir.Reference{Code: "x"})
	assert.Error(t, err)
}
