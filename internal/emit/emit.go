// Package emit defines the outbound serialization boundary of the engine.
//
// The engine never writes bytes. It produces EmitProperty and
// EmitPropertySet calls in deterministic order and receives opaque handles
// back. Implementations: Recorder (in memory) and store.Store (SQLite).
package emit

import (
	"context"
	"fmt"

	"github.com/roach88/ifcpset/internal/ir"
)

// Handle is an opaque reference to an emitted object. The zero handle is
// the null handle and never refers to anything.
type Handle int64

// Valid reports whether h refers to an emitted object.
func (h Handle) Valid() bool {
	return h > 0
}

func (h Handle) String() string {
	return fmt.Sprintf("#%d", int64(h))
}

// PropertyRecord is one resolved property or quantity. SetName is the set
// that first emitted it; cached properties are shared by later sets.
type PropertyRecord struct {
	SetName   string
	Name      string
	Container ir.ContainerKind
	Kind      ir.MeasureKind
	Value     ir.Value

	// Quantity marks an element quantity rather than a property.
	Quantity bool

	// MethodOfMeasurement is only meaningful for quantities.
	MethodOfMeasurement string
}

// OwnerContext identifies who produced a set (owner history in IFC terms).
type OwnerContext struct {
	Application string
	Author      string
	Session     string
}

// SetRecord is one property or quantity set attached to target entities.
type SetRecord struct {
	GlobalID    string
	Name        string
	Kind        ir.SetKind
	Description string
	Members     []Handle
	Owner       OwnerContext
	Targets     []Handle
}

// Emitter is the serialization target.
type Emitter interface {
	EmitProperty(ctx context.Context, rec PropertyRecord) (Handle, error)
	EmitPropertySet(ctx context.Context, rec SetRecord) (Handle, error)
}
