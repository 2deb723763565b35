package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/ifcpset/internal/ifcguid"
	"github.com/roach88/ifcpset/internal/model"
)

// SequentialGUIDs hands out set GlobalIds 0000000000000000000001,
// 0000000000000000000002 and so on, ignoring the owner.
//
// Golden snapshots stay stable across runs, and the ids remain valid
// compressed IFC GUIDs (digits are part of the IFC base64 alphabet).
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialGUIDs struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialGUIDs creates a generator whose first id ends in 1.
func NewSequentialGUIDs() *SequentialGUIDs {
	return &SequentialGUIDs{}
}

// SetGUID returns the next id. Implements engine.GUIDGenerator.
func (g *SequentialGUIDs) SetGUID(model.Element, ifcguid.Slot) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%022d", g.seq)
}

// Reset restarts the sequence.
func (g *SequentialGUIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
