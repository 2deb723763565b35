package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ifcpset/internal/ir"
)

// TraceSnapshot captures the emitted sets and store counts of a scenario.
// Snapshots are serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Property values keep their stored type.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	sets := make([]any, len(s.Result.Trace))
	for i, ev := range s.Result.Trace {
		props := make([]any, len(ev.Properties))
		for j, p := range ev.Properties {
			pm := map[string]any{
				"handle": p.Handle,
				"name":   p.Name,
				"kind":   p.Kind,
			}
			if p.raw != nil {
				pm["value"] = p.raw
			} else {
				pm["value"] = p.Value
			}
			if p.Quantity {
				pm["quantity"] = true
			}
			props[j] = pm
		}

		em := map[string]any{
			"handle":     ev.Handle,
			"entity":     ev.Entity,
			"name":       ev.Set,
			"kind":       ev.Kind,
			"global_id":  ev.GlobalID,
			"properties": props,
		}
		if ev.Description != "" {
			em["description"] = ev.Description
		}
		sets[i] = em
	}

	c := s.Result.Counts
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"sets":          sets,
		"counts": map[string]any{
			"properties": c.Properties,
			"sets":       c.Sets,
			"members":    c.Members,
			"targets":    c.Targets,
		},
	}
}

// Marshal renders the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: scenarioName, Result: result}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
