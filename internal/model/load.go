package model

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Model is a host model snapshot: entity types, the entities that
// reference them and the host schedules.
type Model struct {
	Name        string     `yaml:"name"`
	LinearScale float64    `yaml:"linear_scale,omitempty"`
	Types       []*Entity  `yaml:"types,omitempty"`
	Entities    []*Entity  `yaml:"entities"`
	Schedules   []Schedule `yaml:"schedules,omitempty"`

	byID map[string]*Entity
}

// Load reads a model from a YAML file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a YAML model, links entities to their types and assigns
// handles. Handles are assigned in document order, types first.
func Parse(data []byte) (*Model, error) {
	var m Model
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := m.link(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) link() error {
	m.byID = make(map[string]*Entity, len(m.Types)+len(m.Entities))
	var errs []error

	var handle int64
	add := func(e *Entity, isType bool) {
		if e.IDValue == "" {
			errs = append(errs, fmt.Errorf("entity #%d: id is required", handle+1))
			return
		}
		if e.Entity == "" {
			errs = append(errs, fmt.Errorf("entity %q: entity tag is required", e.IDValue))
		}
		if _, dup := m.byID[e.IDValue]; dup {
			errs = append(errs, fmt.Errorf("duplicate entity id %q", e.IDValue))
			return
		}
		if isType && e.TypeID != "" {
			errs = append(errs, fmt.Errorf("type %q cannot reference a type", e.IDValue))
		}
		normalizeValues(e.Params)
		normalizeValues(e.BuiltIns)
		handle++
		e.SetHandle(handle)
		m.byID[e.IDValue] = e
	}

	for _, t := range m.Types {
		add(t, true)
	}
	for _, e := range m.Entities {
		add(e, false)
	}

	for _, e := range m.Entities {
		if e.TypeID == "" {
			continue
		}
		t, ok := m.byID[e.TypeID]
		if !ok {
			errs = append(errs, fmt.Errorf("entity %q: unknown type %q", e.IDValue, e.TypeID))
			continue
		}
		if err := e.SetType(t); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// normalizeValues turns YAML sequences of scalars into []string so that
// list-valued parameters reach the engine in one shape.
func normalizeValues(values map[string]any) {
	for k, v := range values {
		seq, ok := v.([]any)
		if !ok {
			continue
		}
		strs := make([]string, 0, len(seq))
		for _, item := range seq {
			strs = append(strs, fmt.Sprint(item))
		}
		values[k] = strs
	}
}

// Lookup returns an entity or type by id.
func (m *Model) Lookup(id string) (*Entity, bool) {
	e, ok := m.byID[id]
	return e, ok
}

// Scale returns the model's linear scale, defaulting to 1 (feet).
func (m *Model) Scale() float64 {
	if m.LinearScale == 0 {
		return 1
	}
	return m.LinearScale
}
