package cache

import (
	"math"

	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/measure"
)

// Length family (Real, Length, PositiveLength) windows.
//
// Imperial exports (feet or inches) cache multiples of 1/2 inch up to
// 10 feet. Every other export scale caches multiples of 50 mm up to 10 m.
const (
	HalfInchesPerFoot   = 24.0
	MaxCachedHalfInches = 240
	MillimetersPerFoot  = 304.8
	MetricStepMM        = 50.0
	MaxCached50mm       = 200

	// MaxExactLength bounds the exact tier: integral length values outside
	// the snapping window are cached under their exact value up to this
	// magnitude in export units. Nothing is snapped in this tier.
	MaxExactLength = 100000.0
)

// PlaneAngleStepDegrees is the plane angle grid. Only angles equal to a
// multiple of it within measure.Eps are cached; others are emitted as is.
const PlaneAngleStepDegrees = 15.0

// Power caches multiples of PowerStep in [0, MaxCachedPower].
const (
	PowerStep      = 5.0
	MaxCachedPower = 300.0
)

// ThermalTransmittance caches multiples of ThermalTransmittanceStep in
// [0, MaxCachedThermalTransmittance].
const (
	ThermalTransmittanceStep      = 0.05
	MaxCachedThermalTransmittance = 6.0
)

// TemperatureStep is the thermodynamic temperature grid (half degrees).
const TemperatureStep = 0.5

// Integer values in [MinCachedInteger, MaxCachedInteger] are cached exactly.
const (
	MinCachedInteger = -10
	MaxCachedInteger = 10
)

// Tolerance returns the largest amount Quantize may move a value of the
// given kind.
func Tolerance(kind ir.MeasureKind) float64 {
	return measure.Eps
}

// Quantize normalizes a coerced value onto its kind's cache grid.
//
// The returned value is what gets serialized, whether or not the cache is
// enabled, so that switching the cache off never changes logical output.
// cacheable reports whether the value may be shared through the cache.
func Quantize(kind ir.MeasureKind, container ir.ContainerKind, v ir.Value, sc measure.ScaleContext) (normalized ir.Value, cacheable bool) {
	if container == ir.ContainerList || container == ir.ContainerReference {
		return v, false
	}

	switch val := v.(type) {
	case ir.Real:
		q, ok := quantizeDouble(kind, float64(val), sc)
		return ir.Real(q), ok
	case ir.Int:
		if kind != ir.KindInteger {
			return v, false
		}
		return v, val >= MinCachedInteger && val <= MaxCachedInteger
	case ir.Bool, ir.Logical:
		return v, true
	case ir.String:
		switch kind {
		case ir.KindIdentifier:
			return v, true
		case ir.KindLabel, ir.KindText:
			return v, val == ""
		}
		return v, false
	default:
		return v, false
	}
}

func quantizeDouble(kind ir.MeasureKind, v float64, sc measure.ScaleContext) (float64, bool) {
	switch kind {
	case ir.KindReal, ir.KindLength, ir.KindPositiveLength:
		return quantizeLength(v, sc)
	case ir.KindPlaneAngle:
		return quantizePlaneAngle(v)
	case ir.KindPower:
		return quantizeStep(v, PowerStep, 0, MaxCachedPower)
	case ir.KindThermalTransmittance:
		return quantizeStep(v, ThermalTransmittanceStep, 0, MaxCachedThermalTransmittance)
	case ir.KindThermodynamicTemperature:
		return quantizeStep(v, TemperatureStep, math.Inf(-1), math.Inf(1))
	default:
		return v, false
	}
}

// quantizeLength expects v in export units.
func quantizeLength(v float64, sc measure.ScaleContext) (float64, bool) {
	if measure.IsAlmostZero(v) {
		return 0, true
	}

	scale := sc.LinearScale
	if scale == 0 {
		scale = 1
	}

	var multiplier, limit float64
	if sc.Imperial() {
		multiplier = HalfInchesPerFoot / scale
		limit = MaxCachedHalfInches
	} else {
		multiplier = (MillimetersPerFoot / scale) / MetricStepMM
		limit = MaxCached50mm
	}

	count := math.Floor(v*multiplier + 0.5)
	if count > 0 && count <= limit && measure.IsAlmostZero(v*multiplier-count) {
		return count / multiplier, true
	}

	if v == math.Trunc(v) && math.Abs(v) <= MaxExactLength {
		return v, true
	}
	return v, false
}

func quantizePlaneAngle(v float64) (float64, bool) {
	snapped := math.Floor(v/PlaneAngleStepDegrees+0.5) * PlaneAngleStepDegrees
	if measure.IsAlmostEqual(v, snapped) {
		return snapped + 0, true // + 0 turns -0 into 0
	}
	return v, false
}

// quantizeStep caches on-grid values of step within [lo, hi].
func quantizeStep(v, step, lo, hi float64) (float64, bool) {
	if v < lo-measure.Eps || v > hi+measure.Eps {
		return v, false
	}
	n := math.Round(v / step)
	if !measure.IsAlmostEqual(v/step, n) {
		return v, false
	}
	if step < 1 {
		// divide by the whole inverse so 7 * 0.05 lands on 0.35 exactly
		return n / math.Round(1/step), true
	}
	return n * step, true
}
