package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a model exported under one
// configuration, with assertions on what was emitted.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the path to a model YAML file.
	// Paths are relative to the scenario file location.
	Model string `yaml:"model"`

	// Config is an optional path to an ifcpset.yaml configuration.
	Config string `yaml:"config,omitempty"`

	// Version overrides the configured format version.
	Version string `yaml:"version,omitempty"`

	// Profiles replaces the profiles derived from the configuration.
	Profiles []string `yaml:"profiles,omitempty"`

	// Cache overrides the configured cache switch.
	Cache *bool `yaml:"cache,omitempty"`

	// Assertions validate the emitted sets and the final store.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates emitted sets or final store state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "set_emitted": entity carries set, with the given values (subset)
	// - "set_absent": entity does not carry set
	// - "property_absent": set is emitted for entity without property
	// - "set_order": entity's sets appear in this order
	// - "set_count": number of emitted sets, optionally per entity or name
	// - "property_count": number of stored property rows
	// - "final_state": Query table and verify expected values
	Type string `yaml:"type"`

	// Entity is a model entity id.
	Entity string `yaml:"entity,omitempty"`

	// Set is a set name.
	Set string `yaml:"set,omitempty"`

	// Property is a property output name (property_absent).
	Property string `yaml:"property,omitempty"`

	// Values are expected property values in their formatted form
	// (ir.Format), e.g. "4500", "true", "[North, East]".
	Values map[string]string `yaml:"values,omitempty"`

	// Description is the expected set description (set_emitted).
	Description string `yaml:"description,omitempty"`

	// Sets is the expected set order (set_order).
	Sets []string `yaml:"sets,omitempty"`

	// Count is the expected number (set_count, property_count).
	Count int `yaml:"count,omitempty"`

	// Table is the store table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertSetEmitted     = "set_emitted"
	AssertSetAbsent      = "set_absent"
	AssertPropertyAbsent = "property_absent"
	AssertSetOrder       = "set_order"
	AssertSetCount       = "set_count"
	AssertPropertyCount  = "property_count"
	AssertFinalState     = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Model and config paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Model = resolve(base, scenario.Model)
	scenario.Config = resolve(base, scenario.Config)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// FindScenarios lists the scenario files (*.yaml, *.yml) directly under dir,
// sorted by path. filter is an optional glob on the base name.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.Model)
	}
	if s.Config != "" {
		if _, err := os.Stat(s.Config); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", s.Config)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("assertions[%d]: %s is required for %s", index, field, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertSetEmitted, AssertSetAbsent:
		if err := need("entity", a.Entity); err != nil {
			return err
		}
		return need("set", a.Set)
	case AssertPropertyAbsent:
		if err := need("entity", a.Entity); err != nil {
			return err
		}
		if err := need("set", a.Set); err != nil {
			return err
		}
		return need("property", a.Property)
	case AssertSetOrder:
		if err := need("entity", a.Entity); err != nil {
			return err
		}
		if len(a.Sets) == 0 {
			return fmt.Errorf("assertions[%d]: sets list is required for set_order", index)
		}
	case AssertSetCount, AssertPropertyCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
