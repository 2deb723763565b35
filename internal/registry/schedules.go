package registry

import (
	"errors"
	"fmt"

	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/model"
	"github.com/roach88/ifcpset/internal/schema"
)

// ScheduleSets turns host schedules into property sets, one per schedule,
// all added to group. Fields read the host parameter named by Param (or
// the field name) and default to Label.
func ScheduleSets(group string, schedules []model.Schedule) Initializer {
	return func(b *Builder) error {
		var (
			sets []*schema.SetDescription
			errs []error
		)
		for _, sc := range schedules {
			set, err := scheduleSet(sc)
			if err != nil {
				errs = append(errs, fmt.Errorf("schedule %q: %w", sc.Name, err))
				continue
			}
			sets = append(sets, set)
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
		b.Add(group, sets...)
		return nil
	}
}

func scheduleSet(sc model.Schedule) (*schema.SetDescription, error) {
	sb := schema.PropertySet(sc.Name).AppliesTo(sc.AppliesTo...)
	for _, f := range sc.Fields {
		kind := ir.KindLabel
		if f.Kind != "" {
			k, err := ir.ParseMeasureKind(f.Kind)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			kind = k
		}
		eb := schema.Property(f.Name).Kind(kind)
		if f.Param != "" {
			eb = eb.Source(f.Param)
		}
		e, err := eb.Build()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		sb = sb.Add(e)
	}
	return sb.Build()
}
