// Package measure converts raw host values into typed, unit-scaled IFC
// measure values.
//
// Every function here is pure. Coerce is the single entry point used by the
// engine: it applies the kind's scale function, then its validity predicate,
// and reports Rejected (ok == false) for values that must produce no output.
package measure

import (
	"math"

	"github.com/roach88/ifcpset/internal/ir"
)

// Eps is the relative tolerance used for every zero and equality test in
// the engine. It doubles as the absolute floor for values near zero.
const Eps = 1e-9

// IsAlmostZero reports whether v is within Eps of zero.
func IsAlmostZero(v float64) bool {
	return math.Abs(v) < Eps
}

// IsAlmostEqual reports whether a and b differ by at most Eps relative to
// the larger magnitude, with an absolute floor of Eps.
func IsAlmostEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= Eps*scale
}

// RadiansToDegrees converts unconditionally. The interchange layer always
// carries degrees regardless of any persisted unit metadata.
const RadiansToDegrees = 180 / math.Pi

// FeetPerMeter is used by the power conversion.
const FeetPerMeter = 1 / 0.3048

// ScaleContext carries the unit context of one export.
type ScaleContext struct {
	// LinearScale converts one internal length unit (feet) to export units.
	// 1.0 exports feet, 12.0 inches, 304.8 millimeters, 0.3048 meters.
	LinearScale float64
}

// DefaultScale exports in internal units.
var DefaultScale = ScaleContext{LinearScale: 1.0}

// Imperial reports whether the export length unit is feet or inches.
// Approximate tests for the common scales are good enough here.
func (s ScaleContext) Imperial() bool {
	return IsAlmostEqual(s.LinearScale, 1.0) || IsAlmostEqual(s.LinearScale, 12.0)
}

func (s ScaleContext) linear() float64 {
	if s.LinearScale == 0 {
		return 1.0
	}
	return s.LinearScale
}

// Scale applies the kind's raw-to-export conversion.
// Kinds without a unit dimension pass through unchanged.
func Scale(kind ir.MeasureKind, v float64, sc ScaleContext) float64 {
	s := sc.linear()
	switch kind {
	case ir.KindLength, ir.KindPositiveLength:
		return v * s
	case ir.KindArea:
		return v * s * s
	case ir.KindVolume, ir.KindVolumetricFlowRate:
		return v * s * s * s
	case ir.KindPlaneAngle:
		return v * RadiansToDegrees
	case ir.KindPower:
		return v * FeetPerMeter * FeetPerMeter
	default:
		return v
	}
}

// Valid applies the kind's validity predicate to an already scaled value.
func Valid(kind ir.MeasureKind, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	switch kind {
	case ir.KindPositiveLength, ir.KindPositiveRatio:
		return v > Eps
	case ir.KindCount:
		return v >= -Eps
	default:
		return true
	}
}
