package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/ifcpset/internal/cache"
	"github.com/roach88/ifcpset/internal/calc"
	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ifcguid"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/model"
	"github.com/roach88/ifcpset/internal/schema"
)

// PropertyValue is one resolved entry.
type PropertyValue struct {
	Entry *schema.Entry
	// Name is the entry's output name.
	Name  string
	Value ir.Value
}

// SetResult is one applicable set with its resolved values. A set whose
// entries all resolved to nothing still matched and has no Values.
type SetResult struct {
	Set         *schema.SetDescription
	Description string
	Values      []PropertyValue
}

// Empty reports whether no entry produced a value.
func (r SetResult) Empty() bool {
	return len(r.Values) == 0
}

// EmittedSet describes one set passed to the emitter.
type EmittedSet struct {
	Name     string
	Kind     ir.SetKind
	GlobalID string
	Handle   emit.Handle
	Members  []emit.Handle
}

// ExportAllApplicable resolves every set that applies to target, in
// registry order. Nothing is emitted.
func (s *Session) ExportAllApplicable(target model.Element) ([]SetResult, error) {
	sets := s.registry.Applicable(target.EntityType(), target.ObjectType())
	results := make([]SetResult, 0, len(sets))
	for _, set := range sets {
		res := SetResult{Set: set}
		for _, e := range set.Entries() {
			v, ok, err := s.ResolveEntry(e, target)
			if err != nil {
				return nil, locate(err, set.Name(), e.OutputName())
			}
			if ok {
				res.Values = append(res.Values, PropertyValue{Entry: e, Name: e.OutputName(), Value: v})
			}
		}

		if dc := set.DescriptionCalculator(); dc != nil && !res.Empty() {
			desc, err := s.describe(dc, target)
			if err != nil {
				return nil, locate(err, set.Name(), "")
			}
			res.Description = desc
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Session) describe(dc calc.Calculator, target model.Element) (string, error) {
	ctx := calc.Context{Entity: target, Shape: target.Shape(), Scale: s.scale}
	if typ, ok := target.Type(); ok {
		ctx.Type = typ
	}
	res, ok, err := dc.Calculate(ctx)
	if err != nil {
		return "", NewCalculatorError(target.ID(), dc.Name(), err)
	}
	if !ok {
		return "", nil
	}
	v, found := res.Single()
	if !found {
		return "", NewMissingAccessorError(target.ID(), dc.Name(), "description")
	}
	return fmt.Sprint(v), nil
}

// Export resolves and emits every applicable set of target. Properties go
// through the cache; each non-empty set is emitted with a fresh GlobalId
// and target as its only related object.
func (s *Session) Export(ctx context.Context, target model.Element) ([]EmittedSet, error) {
	results, err := s.ExportAllApplicable(target)
	if err != nil {
		return nil, err
	}
	s.stats.Entities++

	occurrences := make(map[string]int)
	var out []EmittedSet
	for _, res := range results {
		if res.Empty() {
			s.stats.EmptySets++
			continue
		}
		set := res.Set

		members := make([]emit.Handle, 0, len(res.Values))
		for _, pv := range res.Values {
			h, err := s.emitValue(ctx, set, pv)
			if err != nil {
				err := NewEmitError(target.ID(), "property", err)
				err.Set, err.Entry = set.Name(), pv.Name
				return out, err
			}
			members = append(members, h)
		}

		slot := ifcguid.Slot{
			SetName:         set.Name(),
			SubElementIndex: set.SubElementIndex(),
			Occurrence:      occurrences[set.Name()],
		}
		occurrences[set.Name()]++
		guid := s.guids.SetGUID(target, slot)

		h, err := s.emitter.EmitPropertySet(ctx, emit.SetRecord{
			GlobalID:    guid,
			Name:        set.Name(),
			Kind:        set.Kind(),
			Description: res.Description,
			Members:     members,
			Owner:       s.owner,
			Targets:     []emit.Handle{emit.Handle(target.Handle())},
		})
		if err != nil {
			err := NewEmitError(target.ID(), "set", err)
			err.Set = set.Name()
			return out, err
		}
		s.stats.Sets++

		s.logger.Debug("set emitted",
			zap.String("entity", target.ID()),
			zap.String("set", set.Name()),
			zap.String("global_id", guid),
			zap.Int("members", len(members)))
		out = append(out, EmittedSet{
			Name:     set.Name(),
			Kind:     set.Kind(),
			GlobalID: guid,
			Handle:   h,
			Members:  members,
		})
	}
	return out, nil
}

// emitValue emits one property through the cache. The quantized value is
// emitted whether or not the cache is enabled. Quantities are never shared.
func (s *Session) emitValue(ctx context.Context, set *schema.SetDescription, pv PropertyValue) (emit.Handle, error) {
	e := pv.Entry
	value, cacheable := cache.Quantize(e.Kind(), e.Container(), pv.Value, s.scale)
	cacheable = cacheable && !e.IsQuantity()

	var key cache.Key
	if cacheable {
		k, err := cache.NewKey(pv.Name, e.Container(), value)
		if err != nil {
			cacheable = false
		} else {
			key = k
			if h, ok := s.cache.Find(e.Kind(), key); ok {
				return h, nil
			}
		}
	}

	h, err := s.emitter.EmitProperty(ctx, emit.PropertyRecord{
		SetName:             set.Name(),
		Name:                pv.Name,
		Container:           e.Container(),
		Kind:                e.Kind(),
		Value:               value,
		Quantity:            e.IsQuantity(),
		MethodOfMeasurement: e.MethodOfMeasurement(),
	})
	if err != nil {
		return 0, err
	}
	s.stats.Properties++

	if cacheable {
		h = s.cache.Insert(e.Kind(), key, h)
	}
	return h, nil
}
