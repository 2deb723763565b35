// Package calc defines the Calculator contract: fallback strategies that
// compute a property or quantity value from entity, type and shape context
// when no direct source provides one.
//
// A calculator states up front, in its Capabilities, which measure kinds it
// can produce and whether it yields a list of strings or a set of named
// parameters. Schema construction checks an entry's kind against those
// capabilities, so resolution never has to discover a missing accessor.
//
// Calculators are stateless: Calculate returns a Result per call and never
// stores per-entity data, so a single instance serves a whole export.
package calc

import (
	"fmt"
	"slices"

	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/measure"
	"github.com/roach88/ifcpset/internal/model"
)

// Capabilities describes what a calculator produces.
type Capabilities struct {
	// Kinds lists the measure kinds the calculator has values for.
	Kinds []ir.MeasureKind

	// MultipleValues means the result is a list of strings (List container).
	MultipleValues bool

	// MultipleParameters means the result holds several named values, looked
	// up by the entry's output name.
	MultipleParameters bool
}

// Supports reports whether kind is one of the declared kinds.
func (c Capabilities) Supports(kind ir.MeasureKind) bool {
	return slices.Contains(c.Kinds, kind)
}

// Context is the input to a calculation.
type Context struct {
	Entity model.Element
	// Type is the entity's type object, nil when the entity is untyped.
	Type  model.Element
	Shape model.Shape
	Scale measure.ScaleContext
}

// Calculator computes values for one or more entries.
//
// Calculate returns ok=false when it declines to produce a value. A non-nil
// error is reserved for host data-access faults and is propagated.
// Values are in host units; the engine scales and validates them.
type Calculator interface {
	Name() string
	Capabilities() Capabilities
	Calculate(ctx Context) (Result, bool, error)
}

// Result carries a calculator's output: one value, a list of strings, or
// named parameters.
type Result struct {
	single any
	values []string
	params map[string]any
}

// Double returns a single real result.
func Double(v float64) Result { return Result{single: v} }

// Int returns a single integer result.
func Int(v int64) Result { return Result{single: v} }

// Bool returns a single boolean result.
func Bool(v bool) Result { return Result{single: v} }

// Logical returns a single tri-state result.
func Logical(v ir.Logical) Result { return Result{single: v} }

// String returns a single string result.
func String(v string) Result { return Result{single: v} }

// Strings returns a multi-value result.
func Strings(vs ...string) Result { return Result{values: slices.Clone(vs)} }

// Params returns a multi-parameter result.
func Params(p map[string]any) Result { return Result{params: p} }

// Single returns the single value.
func (r Result) Single() (any, bool) {
	return r.single, r.single != nil
}

// Values returns the multi-value list.
func (r Result) Values() []string {
	return slices.Clone(r.values)
}

// Param returns a named value of a multi-parameter result.
func (r Result) Param(key string) (any, bool) {
	v, ok := r.params[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Registry maps calculator names to instances. Table files refer to
// calculators by name.
type Registry struct {
	byName map[string]Calculator
	order  []string
}

// NewRegistry creates a registry holding calcs.
func NewRegistry(calcs ...Calculator) (*Registry, error) {
	r := &Registry{byName: make(map[string]Calculator, len(calcs))}
	for _, c := range calcs {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a calculator. Names must be unique.
func (r *Registry) Register(c Calculator) error {
	name := c.Name()
	if name == "" {
		return fmt.Errorf("calculator has no name")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("calculator %q registered twice", name)
	}
	r.byName[name] = c
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the calculator registered under name.
func (r *Registry) Lookup(name string) (Calculator, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}
