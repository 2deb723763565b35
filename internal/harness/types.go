package harness

import (
	"github.com/roach88/ifcpset/internal/engine"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/store"
)

// TraceEvent is one emitted set as read back from the store.
// Events are ordered by set handle, which is emission order.
type TraceEvent struct {
	Handle      int64           `json:"handle"`
	Entity      string          `json:"entity"`
	Set         string          `json:"set"`
	Kind        string          `json:"kind"`
	GlobalID    string          `json:"global_id"`
	Description string          `json:"description,omitempty"`
	Properties  []TraceProperty `json:"properties"`
}

// TraceProperty is one member of an emitted set.
type TraceProperty struct {
	Handle   int64  `json:"handle"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Quantity bool   `json:"quantity,omitempty"`

	// raw is the stored value, used for golden snapshots.
	raw ir.Value
}

// Property returns the member named name.
func (e TraceEvent) Property(name string) (TraceProperty, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return TraceProperty{}, false
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Trace contains every emitted set in emission order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Counts are the final store row counts.
	Counts store.Counts `json:"counts"`

	// Stats are the session counters, including cache hits.
	Stats engine.Stats `json:"stats"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// EntitySets returns the events of one entity, in emission order.
func (r *Result) EntitySets(entity string) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Entity == entity {
			out = append(out, e)
		}
	}
	return out
}
