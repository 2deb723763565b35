package calc

import (
	"fmt"
	"math"

	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/measure"
)

var (
	lengthKinds  = []ir.MeasureKind{ir.KindPositiveLength, ir.KindLength}
	areaKinds    = []ir.MeasureKind{ir.KindArea}
	volumeKinds  = []ir.MeasureKind{ir.KindVolume}
	angleKinds   = []ir.MeasureKind{ir.KindPlaneAngle}
	countKinds   = []ir.MeasureKind{ir.KindCount, ir.KindInteger}
	booleanKinds = []ir.MeasureKind{ir.KindBoolean, ir.KindLogical}
	textKinds    = []ir.MeasureKind{ir.KindLabel, ir.KindText}
)

// Builtins returns a registry with every built-in calculator.
func Builtins() *Registry {
	r, err := NewRegistry(builtinCalculators()...)
	if err != nil {
		panic(fmt.Sprintf("calc: builtin registry: %v", err))
	}
	return r
}

func builtinCalculators() []Calculator {
	return []Calculator{
		shape("BeamSpan", "length", lengthKinds),
		shape("Slope", "slope", angleKinds),
		shape("RampFlightSlope", "slope", angleKinds),
		shape("RailingHeight", "height", lengthKinds),
		shape("RoofProjectedArea", "projected_area", areaKinds),
		shape("SpaceArea", "area", areaKinds),
		shape("SpaceHeight", "height", lengthKinds),
		shape("SpacePerimeter", "perimeter", lengthKinds),
		shape("SpaceVolume", "volume", volumeKinds),
		shape("SpaceLevelArea", "level_area", areaKinds),
		shape("SlabGrossArea", "gross_area", areaKinds),
		shape("SlabGrossVolume", "gross_volume", volumeKinds),
		shape("SlabPerimeter", "perimeter", lengthKinds),
		shape("SlabWidth", "width", lengthKinds),
		shape("WindowArea", "area", areaKinds),
		shape("DoorArea", "area", areaKinds),
		&countCalculator{name: "NumberOfStoreys", key: "storey_count"},
		StairRiserTreads{},
		LoadBearing{},
		constant("SlabLoadBearing", true),
		constant("BeamLoadBearing", true),
		constant("ColumnLoadBearing", true),
		SpecificZone{},
		SpaceLevelDescription{},
	}
}

// ShapeCalculator reads one named number from the shape context.
type ShapeCalculator struct {
	name  string
	key   string
	kinds []ir.MeasureKind
}

func shape(name, key string, kinds []ir.MeasureKind) *ShapeCalculator {
	return &ShapeCalculator{name: name, key: key, kinds: kinds}
}

func (c *ShapeCalculator) Name() string { return c.name }

func (c *ShapeCalculator) Capabilities() Capabilities {
	return Capabilities{Kinds: c.kinds}
}

func (c *ShapeCalculator) Calculate(ctx Context) (Result, bool, error) {
	v, ok := ctx.Shape.Get(c.key)
	if !ok {
		return Result{}, false, nil
	}
	return Double(v), true, nil
}

type countCalculator struct {
	name string
	key  string
}

func (c *countCalculator) Name() string { return c.name }

func (c *countCalculator) Capabilities() Capabilities {
	return Capabilities{Kinds: countKinds}
}

func (c *countCalculator) Calculate(ctx Context) (Result, bool, error) {
	v, ok := ctx.Shape.Get(c.key)
	if !ok || v < 0 {
		return Result{}, false, nil
	}
	n := math.Round(v)
	if !measure.IsAlmostEqual(v, n) {
		return Result{}, false, nil
	}
	return Int(int64(n)), true, nil
}

// ConstantCalculator always produces the same boolean.
type ConstantCalculator struct {
	name  string
	value bool
}

func constant(name string, v bool) *ConstantCalculator {
	return &ConstantCalculator{name: name, value: v}
}

func (c *ConstantCalculator) Name() string { return c.name }

func (c *ConstantCalculator) Capabilities() Capabilities {
	return Capabilities{Kinds: booleanKinds}
}

func (c *ConstantCalculator) Calculate(Context) (Result, bool, error) {
	return Bool(c.value), true, nil
}

// StairRiserTreads produces the stair flight quantities as named
// parameters, keyed by output property name.
type StairRiserTreads struct{}

// stairParams maps output names to shape keys. Counts are integral.
var stairParams = []struct {
	name  string
	key   string
	count bool
}{
	{"NumberOfRiser", "riser_count", true},
	{"NumberOfTreads", "tread_count", true},
	{"RiserHeight", "riser_height", false},
	{"TreadLength", "tread_length", false},
	{"NosingLength", "nosing_length", false},
	{"WaistThickness", "waist_thickness", false},
	{"WalkingLineOffset", "walking_line_offset", false},
	{"TreadLengthAtOffset", "tread_length_at_offset", false},
	{"TreadLengthAtInnerSide", "tread_length_at_inner_side", false},
}

func (StairRiserTreads) Name() string { return "StairRiserTreads" }

func (StairRiserTreads) Capabilities() Capabilities {
	return Capabilities{
		Kinds:              []ir.MeasureKind{ir.KindCount, ir.KindInteger, ir.KindPositiveLength, ir.KindLength},
		MultipleParameters: true,
	}
}

func (StairRiserTreads) Calculate(ctx Context) (Result, bool, error) {
	params := make(map[string]any)
	for _, p := range stairParams {
		v, ok := ctx.Shape.Get(p.key)
		if !ok {
			continue
		}
		if p.count {
			params[p.name] = int64(math.Round(v))
		} else {
			params[p.name] = v
		}
	}
	if len(params) == 0 {
		return Result{}, false, nil
	}
	return Params(params), true, nil
}

// LoadBearing reads the wall's structural flag, from the instance first and
// then from its type.
type LoadBearing struct{}

// StructuralBuiltIn is the built-in parameter that marks structural walls.
const StructuralBuiltIn = "WALL_STRUCTURAL_SIGNIFICANT"

func (LoadBearing) Name() string { return "LoadBearing" }

func (LoadBearing) Capabilities() Capabilities {
	return Capabilities{Kinds: booleanKinds}
}

func (LoadBearing) Calculate(ctx Context) (Result, bool, error) {
	v, ok, err := ctx.Entity.BuiltIn(StructuralBuiltIn)
	if err != nil {
		return Result{}, false, err
	}
	if !ok && ctx.Type != nil {
		v, ok, err = ctx.Type.BuiltIn(StructuralBuiltIn)
		if err != nil {
			return Result{}, false, err
		}
	}
	if !ok {
		return Result{}, false, nil
	}
	return Result{single: v}, true, nil
}

// SpecificZone lists the zones a space belongs to, read from the
// parameters "ZoneName", "ZoneName 2", "ZoneName 3" and so on until the
// first missing one.
type SpecificZone struct{}

// ZoneParam is the base name of the zone parameters.
const ZoneParam = "ZoneName"

const maxZones = 100

func (SpecificZone) Name() string { return "SpecificZone" }

func (SpecificZone) Capabilities() Capabilities {
	return Capabilities{Kinds: textKinds, MultipleValues: true}
}

func (SpecificZone) Calculate(ctx Context) (Result, bool, error) {
	var zones []string
	for i := 1; i <= maxZones; i++ {
		name := ZoneParam
		if i > 1 {
			name = fmt.Sprintf("%s %d", ZoneParam, i)
		}
		v, ok, err := ctx.Entity.Param(name)
		if err != nil {
			return Result{}, false, err
		}
		if !ok {
			break
		}
		if s := fmt.Sprint(v); s != "" {
			zones = append(zones, s)
		}
	}
	if len(zones) == 0 {
		return Result{}, false, nil
	}
	return Strings(zones...), true, nil
}

// SpaceLevelDescription describes a space set by the name of its level.
type SpaceLevelDescription struct{}

// LevelNameBuiltIn is the built-in parameter holding a space's level name.
const LevelNameBuiltIn = "LEVEL_NAME"

func (SpaceLevelDescription) Name() string { return "SpaceLevelDescription" }

func (SpaceLevelDescription) Capabilities() Capabilities {
	return Capabilities{Kinds: textKinds}
}

func (SpaceLevelDescription) Calculate(ctx Context) (Result, bool, error) {
	v, ok, err := ctx.Entity.BuiltIn(LevelNameBuiltIn)
	if err != nil || !ok {
		return Result{}, false, err
	}
	s, isString := v.(string)
	if !isString || s == "" {
		return Result{}, false, nil
	}
	return String(s), true, nil
}
