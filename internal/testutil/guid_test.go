package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ifcpset/internal/ifcguid"
)

func TestSequentialGUIDs(t *testing.T) {
	gen := NewSequentialGUIDs()

	assert.Equal(t, "0000000000000000000001", gen.SetGUID(nil, ifcguid.Slot{SetName: "Pset_WallCommon"}))
	assert.Equal(t, "0000000000000000000002", gen.SetGUID(nil, ifcguid.Slot{SetName: "Pset_WallCommon"}))

	gen.Reset()
	assert.Equal(t, "0000000000000000000001", gen.SetGUID(nil, ifcguid.Slot{}))
}

func TestSequentialGUIDs_ThreadSafe(t *testing.T) {
	gen := NewSequentialGUIDs()

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.SetGUID(nil, ifcguid.Slot{})
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
	for id := range seen {
		assert.True(t, ifcguid.IsValid(id), id)
	}
}
