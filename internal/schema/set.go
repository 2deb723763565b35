package schema

import (
	"fmt"
	"slices"

	"github.com/roach88/ifcpset/internal/calc"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/model"
)

// SetDescription is a named, ordered collection of entries bound to the
// entity types it applies to.
type SetDescription struct {
	name            string
	kind            ir.SetKind
	entityTypes     []string
	objectType      string
	subElementIndex int
	entries         []*Entry
	description     calc.Calculator
}

// Name returns the set name as emitted.
func (s *SetDescription) Name() string { return s.name }

// Kind reports whether this is a property set or a quantity set.
func (s *SetDescription) Kind() ir.SetKind { return s.kind }

// ObjectType returns the object-type filter; "" matches every object type.
func (s *SetDescription) ObjectType() string { return s.objectType }

// SubElementIndex is the stable numeric handle hosts use to let users
// override a set; 0 means none.
func (s *SetDescription) SubElementIndex() int { return s.subElementIndex }

// EntityTypes returns the applicable entity-type tags.
func (s *SetDescription) EntityTypes() []string { return slices.Clone(s.entityTypes) }

// Entries returns entries in declaration order.
func (s *SetDescription) Entries() []*Entry { return slices.Clone(s.entries) }

// DescriptionCalculator returns the calculator producing the set's
// description, or nil.
func (s *SetDescription) DescriptionCalculator() calc.Calculator { return s.description }

// Applies reports whether the set applies to an entity with the given type
// tag and object type. A set bound to a supertype applies to its subtypes.
// The object-type filter, when present, must match exactly.
func (s *SetDescription) Applies(entityType, objectType string) bool {
	if s.objectType != "" && s.objectType != objectType {
		return false
	}
	for _, tag := range s.entityTypes {
		if model.IsA(entityType, tag) {
			return true
		}
	}
	return false
}

// BoundTo reports whether tag is one of the set's declared entity types.
func (s *SetDescription) BoundTo(tag string) bool {
	return slices.Contains(s.entityTypes, tag)
}

// Describe returns a canonical-JSON-ready description.
func (s *SetDescription) Describe() map[string]any {
	entries := make([]any, len(s.entries))
	for i, e := range s.entries {
		entries[i] = e.Describe()
	}
	d := map[string]any{
		"name":         s.name,
		"kind":         s.kind.String(),
		"entity_types": slices.Clone(s.entityTypes),
		"entries":      entries,
	}
	if s.objectType != "" {
		d["object_type"] = s.objectType
	}
	if s.subElementIndex != 0 {
		d["sub_element_index"] = s.subElementIndex
	}
	if s.description != nil {
		d["description_calculator"] = s.description.Name()
	}
	return d
}

// SetBuilder constructs a SetDescription.
type SetBuilder struct {
	s SetDescription
}

// PropertySet starts a property set description.
func PropertySet(name string) *SetBuilder {
	return &SetBuilder{s: SetDescription{name: name, kind: ir.PropertySet}}
}

// QuantitySet starts a quantity set description.
func QuantitySet(name string) *SetBuilder {
	return &SetBuilder{s: SetDescription{name: name, kind: ir.QuantitySet}}
}

// AppliesTo adds applicable entity-type tags.
func (b *SetBuilder) AppliesTo(tags ...string) *SetBuilder {
	b.s.entityTypes = append(b.s.entityTypes, tags...)
	return b
}

// ObjectType restricts the set to entities with this object type.
func (b *SetBuilder) ObjectType(objectType string) *SetBuilder {
	b.s.objectType = objectType
	return b
}

// SubElementIndex sets the host override slot of the set.
func (b *SetBuilder) SubElementIndex(idx int) *SetBuilder {
	b.s.subElementIndex = idx
	return b
}

// Add appends entries in order.
func (b *SetBuilder) Add(entries ...*Entry) *SetBuilder {
	b.s.entries = append(b.s.entries, entries...)
	return b
}

// Description binds a calculator producing the set description.
func (b *SetBuilder) Description(c calc.Calculator) *SetBuilder {
	b.s.description = c
	return b
}

// Build validates and returns the set.
func (b *SetBuilder) Build() (*SetDescription, error) {
	s := b.s
	s.entityTypes = slices.Clone(s.entityTypes)
	s.entries = slices.Clone(s.entries)
	if err := newSchemaError(fmt.Sprintf("set %q", s.name), s.validate()); err != nil {
		return nil, err
	}
	return &s, nil
}

// MustBuild is Build for literal tables. It panics on error.
func (b *SetBuilder) MustBuild() *SetDescription {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func (s *SetDescription) validate() []ValidationError {
	var errs []ValidationError
	if s.name == "" {
		errs = append(errs, ValidationError{Field: "name", Code: ErrEmptyName, Message: "set name is required"})
	}
	if len(s.entityTypes) == 0 {
		errs = append(errs, ValidationError{Field: "entity_types", Code: ErrNoEntityTypes, Message: "set applies to no entity type"})
	}
	if s.subElementIndex < 0 {
		errs = append(errs, ValidationError{
			Field:   "sub_element_index",
			Code:    ErrInvalidSubElementIndex,
			Message: fmt.Sprintf("sub-element index %d is negative", s.subElementIndex),
		})
	}
	if s.description != nil {
		caps := s.description.Capabilities()
		if !caps.Supports(ir.KindText) && !caps.Supports(ir.KindLabel) {
			errs = append(errs, ValidationError{
				Field:   "description",
				Code:    ErrDescriptionCalculator,
				Message: fmt.Sprintf("calculator %q cannot produce text", s.description.Name()),
			})
		}
	}

	seen := make(map[string]bool, len(s.entries))
	for i, e := range s.entries {
		field := fmt.Sprintf("entries[%d]", i)
		if e == nil {
			errs = append(errs, ValidationError{Field: field, Code: ErrEmptyName, Message: "entry is nil"})
			continue
		}
		if e.quantity != (s.kind == ir.QuantitySet) {
			errs = append(errs, ValidationError{
				Field:   field,
				Code:    ErrSetKindMismatch,
				Message: fmt.Sprintf("entry %q does not belong in a %s", e.name, s.kind),
			})
		}
		out := e.OutputName()
		if seen[out] {
			errs = append(errs, ValidationError{
				Field:   field,
				Code:    ErrDuplicateOutputName,
				Message: fmt.Sprintf("output name %q used twice", out),
			})
		}
		seen[out] = true
	}
	return errs
}
