package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProperty builds a single Length property of the given set.
func createTestProperty(set, name string, v float64) emit.PropertyRecord {
	return emit.PropertyRecord{
		SetName:   set,
		Name:      name,
		Container: ir.ContainerSingle,
		Kind:      ir.KindLength,
		Value:     ir.Real(v),
	}
}

// emitSet emits properties and a set holding them, attached to target.
func emitSet(t *testing.T, s *Store, guid, name string, target emit.Handle, props ...emit.PropertyRecord) emit.Handle {
	t.Helper()
	ctx := context.Background()
	members := make([]emit.Handle, 0, len(props))
	for _, p := range props {
		h, err := s.EmitProperty(ctx, p)
		require.NoError(t, err)
		members = append(members, h)
	}
	h, err := s.EmitPropertySet(ctx, emit.SetRecord{
		GlobalID: guid,
		Name:     name,
		Members:  members,
		Owner:    emit.OwnerContext{Application: "test", Session: "s1"},
		Targets:  []emit.Handle{target},
	})
	require.NoError(t, err)
	return h
}
