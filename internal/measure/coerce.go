package measure

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/ifcpset/internal/classification"
	"github.com/roach88/ifcpset/internal/ir"
)

// Coerce converts a raw host value into a typed value of the given kind.
//
// Accepted raw shapes: string, bool, int, int64, float64, ir.Logical,
// ir.Reference and []string (string kinds only, producing an ir.List).
// A false second result means Rejected: the caller treats it as "no value",
// never as an error.
func Coerce(kind ir.MeasureKind, raw any, sc ScaleContext) (ir.Value, bool) {
	if raw == nil {
		return nil, false
	}
	switch kind.Primitive() {
	case ir.PrimitiveString:
		return coerceString(raw)
	case ir.PrimitiveBool:
		b, ok := toBool(raw)
		if !ok {
			return nil, false
		}
		return ir.Bool(b), true
	case ir.PrimitiveTriState:
		return coerceLogical(raw)
	case ir.PrimitiveInt:
		n, ok := toInt(raw)
		if !ok {
			return nil, false
		}
		if kind == ir.KindCount && n < 0 {
			return nil, false
		}
		return ir.Int(n), true
	case ir.PrimitiveDouble:
		f, ok := toFloat(raw)
		if !ok {
			return nil, false
		}
		scaled := Scale(kind, f, sc)
		if !Valid(kind, scaled) {
			return nil, false
		}
		return ir.Real(scaled), true
	case ir.PrimitiveReference:
		return coerceReference(raw)
	default:
		return nil, false
	}
}

func coerceString(raw any) (ir.Value, bool) {
	switch v := raw.(type) {
	case string:
		return ir.String(v), true
	case []string:
		list := make(ir.List, len(v))
		for i, s := range v {
			list[i] = ir.String(s)
		}
		return list, true
	case int:
		return ir.String(strconv.Itoa(v)), true
	case int64:
		return ir.String(strconv.FormatInt(v, 10)), true
	case float64:
		return ir.String(ir.Format(ir.Real(v))), true
	case bool:
		return ir.String(strconv.FormatBool(v)), true
	default:
		return nil, false
	}
}

func coerceLogical(raw any) (ir.Value, bool) {
	switch v := raw.(type) {
	case ir.Logical:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "unknown", "u", ".u.":
			return ir.LogicalUnknown, true
		}
	}
	b, ok := toBool(raw)
	if !ok {
		return nil, false
	}
	return ir.LogicalOf(b), true
}

func coerceReference(raw any) (ir.Value, bool) {
	switch v := raw.(type) {
	case ir.Reference:
		if v.Code == "" {
			return nil, false
		}
		return v, true
	case string:
		ref, ok := classification.ParseReference(v)
		if !ok {
			return nil, false
		}
		return ref, true
	default:
		return nil, false
	}
}

// toBool follows host integer storage: any nonzero integer is true.
func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		return !IsAlmostZero(v), true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "t", ".t.":
			return true, true
		case "false", "no", "f", ".f.":
			return false, true
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n != 0, true
		}
	}
	return false, false
}

func toInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		r := math.Round(v)
		if math.IsNaN(v) || math.IsInf(v, 0) || !IsAlmostEqual(v, r) {
			return 0, false
		}
		return int64(r), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
