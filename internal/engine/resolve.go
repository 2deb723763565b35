package engine

import (
	"github.com/roach88/ifcpset/internal/calc"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/measure"
	"github.com/roach88/ifcpset/internal/model"
	"github.com/roach88/ifcpset/internal/schema"
)

// ResolveEntry resolves one entry against target. The value is coerced and
// scaled but not quantized. ok is false when no source yields a value.
func (s *Session) ResolveEntry(e *schema.Entry, target model.Element) (ir.Value, bool, error) {
	if !e.CalculatorOnly() {
		v, ok, err := s.resolveDirect(e, target)
		if err != nil || ok {
			return v, ok, err
		}
		if typ, hasType := target.Type(); hasType {
			v, ok, err := s.resolveDirect(e, typ)
			if err != nil || ok {
				return v, ok, err
			}
		}
	}

	if c := e.Calculator(); c != nil {
		return s.resolveCalculated(e, c, target)
	}
	return nil, false, nil
}

// resolveDirect probes the localized name, the primary name and the
// built-in identifier of one element, in that order.
func (s *Session) resolveDirect(e *schema.Entry, el model.Element) (ir.Value, bool, error) {
	if name, ok := e.LocalizedSource(s.locale); ok {
		v, ok, err := s.probe(e, el, name, el.Param)
		if err != nil || ok {
			return v, ok, err
		}
	}

	v, ok, err := s.probe(e, el, e.Source(), el.Param)
	if err != nil || ok {
		return v, ok, err
	}

	if id := e.BuiltIn(); id != "" {
		return s.probe(e, el, id, el.BuiltIn)
	}
	return nil, false, nil
}

func (s *Session) probe(e *schema.Entry, el model.Element, name string, read func(string) (any, bool, error)) (ir.Value, bool, error) {
	raw, ok, err := read(name)
	if err != nil {
		return nil, false, NewHostAccessError(el.ID(), name, err)
	}
	if !ok {
		return nil, false, nil
	}
	return s.accept(e, raw)
}

func (s *Session) resolveCalculated(e *schema.Entry, c calc.Calculator, target model.Element) (ir.Value, bool, error) {
	ctx := calc.Context{
		Entity: target,
		Shape:  target.Shape(),
		Scale:  s.scale,
	}
	if typ, ok := target.Type(); ok {
		ctx.Type = typ
	}

	res, ok, err := c.Calculate(ctx)
	if err != nil {
		return nil, false, NewCalculatorError(target.ID(), c.Name(), err)
	}
	if !ok {
		return nil, false, nil
	}

	caps := c.Capabilities()
	var raw any
	switch {
	case caps.MultipleParameters:
		// A calculator producing several quantities may skip some of them.
		p, found := res.Param(e.OutputName())
		if !found {
			return nil, false, nil
		}
		raw = p
	case caps.MultipleValues:
		vals := res.Values()
		if vals == nil {
			return nil, false, NewMissingAccessorError(target.ID(), c.Name(), "list")
		}
		raw = vals
	default:
		single, found := res.Single()
		if !found {
			return nil, false, NewMissingAccessorError(target.ID(), c.Name(), e.Kind().String())
		}
		raw = single
	}
	return s.accept(e, raw)
}

// accept coerces a raw value for the entry and applies enumeration
// matching and classification qualification. Rejection is not an error.
func (s *Session) accept(e *schema.Entry, raw any) (ir.Value, bool, error) {
	v, ok := measure.Coerce(e.Kind(), raw, s.scale)
	if !ok {
		return nil, false, nil
	}
	if str, isString := v.(ir.String); isString && e.Container() == ir.ContainerList {
		v = ir.List{str}
	}

	switch val := v.(type) {
	case ir.String:
		if enum := e.Enumeration(); enum != nil {
			canonical, matched := enum.Match(string(val))
			if !matched {
				return nil, false, nil
			}
			return ir.String(canonical), true, nil
		}
	case ir.List:
		if e.Container() != ir.ContainerList {
			return nil, false, nil
		}
		if len(val) == 0 {
			return nil, false, nil
		}
	case ir.Reference:
		return s.classification.Qualify(val), true, nil
	}
	return v, true, nil
}
