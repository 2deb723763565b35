package engine

import (
	"sync"

	"github.com/google/uuid"
)

// SessionIDGenerator names export sessions. The id is recorded as the
// owner session of every emitted set, and (session, GlobalId) is unique in
// a store.
type SessionIDGenerator interface {
	Generate() string
}

// UUIDv7SessionIDs generates time-sortable UUIDv7 session ids, so sessions
// in one store list in the order they ran.
//
// Stateless and safe for concurrent use.
type UUIDv7SessionIDs struct{}

// Generate returns a hyphenated UUIDv7.
// Panics if the random source fails.
func (UUIDv7SessionIDs) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedSessionIDs returns predetermined session ids, for tests that
// compare traces across runs.
type FixedSessionIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedSessionIDs creates a generator that returns ids in order.
func NewFixedSessionIDs(ids ...string) *FixedSessionIDs {
	return &FixedSessionIDs{ids: ids}
}

// Generate returns the next id. Panics once every id has been used: a
// test started more sessions than it expected.
func (g *FixedSessionIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedSessionIDs: all ids used")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
