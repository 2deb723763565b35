// Package schema describes property and quantity sets: the entries each
// set carries, where each entry's value comes from, and which entities a
// set applies to.
//
// Entries and sets are built through fluent builders and validated once,
// at construction. A built Entry or SetDescription is immutable; the
// engine only reads it.
package schema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/ifcpset/internal/calc"
	"github.com/roach88/ifcpset/internal/ir"
)

// Entry describes one property or quantity.
type Entry struct {
	name           string
	outputName     string
	kind           ir.MeasureKind
	container      ir.ContainerKind
	enum           *Enumeration
	source         string
	localized      map[string]string
	builtIn        string
	calculator     calc.Calculator
	calculatorOnly bool
	quantity       bool
	method         string
}

// Name returns the entry name.
func (e *Entry) Name() string { return e.name }

// OutputName returns the emitted property name, the entry name unless
// overridden.
func (e *Entry) OutputName() string {
	if e.outputName != "" {
		return e.outputName
	}
	return e.name
}

// Kind returns the measure kind values are coerced into.
func (e *Entry) Kind() ir.MeasureKind { return e.kind }

// Container returns how the value is wrapped when emitted.
func (e *Entry) Container() ir.ContainerKind { return e.container }

// Enumeration returns the allowed tokens, or nil for non-enumerated entries.
func (e *Entry) Enumeration() *Enumeration { return e.enum }

// BuiltIn returns the host built-in parameter id, or "".
func (e *Entry) BuiltIn() string { return e.builtIn }

// Calculator returns the bound calculator, or nil.
func (e *Entry) Calculator() calc.Calculator { return e.calculator }

// CalculatorOnly reports whether direct sources are skipped.
func (e *Entry) CalculatorOnly() bool { return e.calculatorOnly }

// IsQuantity reports whether the entry belongs to a quantity set.
func (e *Entry) IsQuantity() bool { return e.quantity }

// MethodOfMeasurement is recorded on quantities only.
func (e *Entry) MethodOfMeasurement() string { return e.method }

// Source returns the primary data-source name. It defaults to the entry
// name, the way host parameters are usually named after the property.
func (e *Entry) Source() string {
	if e.source != "" {
		return e.source
	}
	return e.name
}

// LocalizedSource returns the data-source name for locale, if any.
func (e *Entry) LocalizedSource(locale string) (string, bool) {
	if locale == "" {
		return "", false
	}
	s, ok := e.localized[locale]
	return s, ok
}

// Describe returns a canonical-JSON-ready description, used for registry
// fingerprints.
func (e *Entry) Describe() map[string]any {
	d := map[string]any{
		"name":      e.name,
		"output":    e.OutputName(),
		"kind":      e.kind.String(),
		"container": e.container.String(),
		"source":    e.Source(),
		"quantity":  e.quantity,
	}
	if e.enum != nil {
		d["enum"] = map[string]any{"name": e.enum.Name(), "tokens": e.enum.Tokens()}
	}
	if len(e.localized) > 0 {
		loc := make(map[string]any, len(e.localized))
		for k, v := range e.localized {
			loc[k] = v
		}
		d["localized"] = loc
	}
	if e.builtIn != "" {
		d["builtin"] = e.builtIn
	}
	if e.calculator != nil {
		d["calculator"] = e.calculator.Name()
		d["calculator_only"] = e.calculatorOnly
	}
	if e.method != "" {
		d["method"] = e.method
	}
	return d
}

// Builder constructs an Entry.
type Builder struct {
	e Entry
}

// Property starts a property entry. Kind defaults to Label, container to
// Single.
func Property(name string) *Builder {
	return &Builder{e: Entry{name: name, kind: ir.KindLabel, container: ir.ContainerSingle}}
}

// Quantity starts a quantity entry. Kind defaults to Length.
func Quantity(name string) *Builder {
	return &Builder{e: Entry{name: name, kind: ir.KindLength, container: ir.ContainerSingle, quantity: true}}
}

// Kind sets the measure kind. Properties default to Label.
func (b *Builder) Kind(k ir.MeasureKind) *Builder {
	b.e.kind = k
	return b
}

// Container sets the container kind explicitly.
func (b *Builder) Container(c ir.ContainerKind) *Builder {
	b.e.container = c
	return b
}

// Enumerated binds an enumeration and sets the Enumerated container.
func (b *Builder) Enumerated(enum *Enumeration) *Builder {
	b.e.enum = enum
	b.e.container = ir.ContainerEnumerated
	return b
}

// Source overrides the primary data-source name.
func (b *Builder) Source(name string) *Builder {
	b.e.source = name
	return b
}

// LocalizedSource adds a data-source name used when exporting for locale.
func (b *Builder) LocalizedSource(locale, name string) *Builder {
	if b.e.localized == nil {
		b.e.localized = make(map[string]string)
	}
	b.e.localized[locale] = name
	return b
}

// BuiltIn sets the built-in parameter probed after the named sources.
func (b *Builder) BuiltIn(id string) *Builder {
	b.e.builtIn = id
	return b
}

// Calculator binds the fallback calculator.
func (b *Builder) Calculator(c calc.Calculator) *Builder {
	b.e.calculator = c
	return b
}

// CalculatorOnly skips the direct-source chain entirely.
func (b *Builder) CalculatorOnly() *Builder {
	b.e.calculatorOnly = true
	return b
}

// OutputName sets the emitted name when it differs from the entry name.
func (b *Builder) OutputName(name string) *Builder {
	b.e.outputName = name
	return b
}

// MethodOfMeasurement records how a quantity was measured.
func (b *Builder) MethodOfMeasurement(m string) *Builder {
	b.e.method = m
	return b
}

// Build validates and returns the entry. Validation collects every
// violation into one *SchemaError.
func (b *Builder) Build() (*Entry, error) {
	e := b.e
	e.localized = maps.Clone(e.localized)
	if err := newSchemaError(fmt.Sprintf("entry %q", e.name), e.validate()); err != nil {
		return nil, err
	}
	return &e, nil
}

// MustBuild is Build for literal tables. It panics on error.
func (b *Builder) MustBuild() *Entry {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

var quantityKinds = []ir.MeasureKind{
	ir.KindLength, ir.KindPositiveLength, ir.KindArea, ir.KindVolume, ir.KindCount,
}

func (e *Entry) validate() []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if e.name == "" {
		add("name", ErrEmptyName, "name is required")
	}
	if !e.kind.Valid() {
		add("kind", ErrInvalidKind, "invalid measure kind %d", int(e.kind))
		return errs
	}
	if !e.container.Valid() {
		add("container", ErrInvalidContainer, "invalid container kind %d", int(e.container))
		return errs
	}

	isRefKind := e.kind == ir.KindClassificationReference
	if isRefKind != (e.container == ir.ContainerReference) {
		add("container", ErrReferenceKindMismatch,
			"%s container cannot hold %s values", e.container, e.kind)
	}

	stringKind := e.kind.Primitive() == ir.PrimitiveString
	switch e.container {
	case ir.ContainerList:
		if !stringKind {
			add("container", ErrListKind, "list entries must have a string kind, got %s", e.kind)
		}
	case ir.ContainerEnumerated:
		if e.enum == nil {
			add("enumeration", ErrContainerWithoutEnum, "enumerated entry has no enumeration")
		}
		if !stringKind {
			add("kind", ErrEnumKind, "enumerated entries must have a string kind, got %s", e.kind)
		}
	}
	if e.enum != nil && e.container != ir.ContainerEnumerated {
		add("enumeration", ErrEnumWithoutContainer,
			"enumeration %q bound to a %s entry", e.enum.Name(), e.container)
	}

	if e.calculator != nil {
		caps := e.calculator.Capabilities()
		if !caps.Supports(e.kind) {
			add("calculator", ErrMissingAccessor,
				"calculator %q has no %s accessor", e.calculator.Name(), e.kind)
		}
		if caps.MultipleValues != (e.container == ir.ContainerList) {
			add("calculator", ErrMultiValueContainer,
				"calculator %q multi-value=%t does not fit a %s entry",
				e.calculator.Name(), caps.MultipleValues, e.container)
		}
	} else if e.calculatorOnly {
		add("calculator", ErrCalculatorOnlyNoCalc, "calculator-only entry has no calculator")
	}

	if e.quantity && !slices.Contains(quantityKinds, e.kind) {
		add("kind", ErrQuantityKind, "%s is not a quantity kind", e.kind)
	}
	if !e.quantity && e.method != "" {
		add("method", ErrMethodOnProperty, "method of measurement applies to quantities only")
	}
	return errs
}
