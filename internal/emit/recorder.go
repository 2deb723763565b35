package emit

import (
	"context"
	"slices"
)

// Recorder is an in-memory Emitter. Handles are assigned sequentially from
// 1 in call order, shared between properties and sets, so two runs that
// make the same calls produce identical handles.
//
// Recorder is not safe for concurrent use; sessions are single-threaded.
type Recorder struct {
	next       Handle
	properties []RecordedProperty
	sets       []RecordedSet
}

// RecordedProperty pairs a property record with its handle.
type RecordedProperty struct {
	Handle Handle
	PropertyRecord
}

// RecordedSet pairs a set record with its handle.
type RecordedSet struct {
	Handle Handle
	SetRecord
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// EmitProperty records rec and returns a fresh handle.
func (r *Recorder) EmitProperty(ctx context.Context, rec PropertyRecord) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.next++
	r.properties = append(r.properties, RecordedProperty{Handle: r.next, PropertyRecord: rec})
	return r.next, nil
}

// EmitPropertySet records rec and returns a fresh handle.
// Member and target slices are copied.
func (r *Recorder) EmitPropertySet(ctx context.Context, rec SetRecord) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rec.Members = slices.Clone(rec.Members)
	rec.Targets = slices.Clone(rec.Targets)
	r.next++
	r.sets = append(r.sets, RecordedSet{Handle: r.next, SetRecord: rec})
	return r.next, nil
}

// Properties returns recorded properties in emission order.
func (r *Recorder) Properties() []RecordedProperty {
	return slices.Clone(r.properties)
}

// Sets returns recorded sets in emission order.
func (r *Recorder) Sets() []RecordedSet {
	return slices.Clone(r.sets)
}

// Property looks up a recorded property by handle.
func (r *Recorder) Property(h Handle) (RecordedProperty, bool) {
	for _, p := range r.properties {
		if p.Handle == h {
			return p, true
		}
	}
	return RecordedProperty{}, false
}

// Reset discards everything recorded and restarts handle numbering.
func (r *Recorder) Reset() {
	r.next = 0
	r.properties = nil
	r.sets = nil
}
