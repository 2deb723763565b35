// Package model is the host element access layer: the entities, their
// types and parameters that the engine reads property values from.
//
// The engine depends only on the Element interface. Entity is the in-memory
// implementation, loaded from YAML by Load.
package model

import (
	"fmt"
	"maps"
	"slices"
)

// Element is the read-only view of a host entity or entity type.
//
// Param and BuiltIn return (value, true, nil) when populated, (nil, false,
// nil) when absent, and a non-nil error only for a host data-access fault.
// Callers must propagate faults rather than treat them as absence.
type Element interface {
	ID() string
	Handle() int64
	GUID() string
	EntityType() string
	ObjectType() string
	Param(name string) (any, bool, error)
	BuiltIn(id string) (any, bool, error)
	// Type returns the element's type object. Types themselves have none.
	Type() (Element, bool)
	Shape() Shape
}

// Shape is the opaque extrusion and geometry context produced by geometry
// extraction. Calculators read named numbers from it.
type Shape map[string]float64

// Get returns a named shape value.
func (s Shape) Get(key string) (float64, bool) {
	v, ok := s[key]
	return v, ok
}

// Entity is an in-memory Element.
type Entity struct {
	IDValue     string         `yaml:"id"`
	GUIDValue   string         `yaml:"guid,omitempty"`
	Entity      string         `yaml:"entity"`
	Object      string         `yaml:"object_type,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`
	BuiltIns    map[string]any `yaml:"builtins,omitempty"`
	TypeID      string         `yaml:"type,omitempty"`
	ShapeValues Shape          `yaml:"shape,omitempty"`

	handle int64
	typ    *Entity
}

var _ Element = (*Entity)(nil)

// ID returns the document id of the entity.
func (e *Entity) ID() string { return e.IDValue }

// Handle returns the handle assigned on load; 0 before.
func (e *Entity) Handle() int64 { return e.handle }

// GUID returns the host GUID, which may be empty.
func (e *Entity) GUID() string { return e.GUIDValue }

// EntityType returns the IFC entity tag, e.g. IfcWall.
func (e *Entity) EntityType() string { return e.Entity }

// ObjectType returns the user-defined object type.
func (e *Entity) ObjectType() string { return e.Object }

// Shape returns the geometry values passed to calculators.
func (e *Entity) Shape() Shape { return e.ShapeValues }

// Param returns a named parameter.
func (e *Entity) Param(name string) (any, bool, error) {
	v, ok := e.Params[name]
	if !ok || v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

// BuiltIn returns a built-in parameter by identifier.
func (e *Entity) BuiltIn(id string) (any, bool, error) {
	v, ok := e.BuiltIns[id]
	if !ok || v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

// Type returns the resolved type object.
func (e *Entity) Type() (Element, bool) {
	if e.typ == nil {
		return nil, false
	}
	return e.typ, true
}

// SetType links a type object. Types cannot themselves be typed.
func (e *Entity) SetType(t *Entity) error {
	if t != nil && t.typ != nil {
		return fmt.Errorf("type %q of %q has a type of its own", t.IDValue, e.IDValue)
	}
	e.typ = t
	if t != nil {
		e.TypeID = t.IDValue
	}
	return nil
}

// SetHandle assigns the numeric handle used as an emission target.
func (e *Entity) SetHandle(h int64) {
	e.handle = h
}

// ParamNames returns parameter names in sorted order.
func (e *Entity) ParamNames() []string {
	return slices.Sorted(maps.Keys(e.Params))
}
