package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ifcpset/internal/ir"
)

func TestRecorderAssignsSequentialHandles(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	h1, err := r.EmitProperty(ctx, PropertyRecord{SetName: "Pset_WallCommon", Name: "IsExternal", Kind: ir.KindBoolean, Value: ir.Bool(true)})
	require.NoError(t, err)
	h2, err := r.EmitProperty(ctx, PropertyRecord{SetName: "Pset_WallCommon", Name: "Reference", Kind: ir.KindIdentifier, Value: ir.String("W1")})
	require.NoError(t, err)
	h3, err := r.EmitPropertySet(ctx, SetRecord{Name: "Pset_WallCommon", Members: []Handle{h1, h2}, Targets: []Handle{100}})
	require.NoError(t, err)

	assert.Equal(t, Handle(1), h1)
	assert.Equal(t, Handle(2), h2)
	assert.Equal(t, Handle(3), h3)

	require.Len(t, r.Properties(), 2)
	require.Len(t, r.Sets(), 1)
	assert.Equal(t, []Handle{1, 2}, r.Sets()[0].Members)

	p, ok := r.Property(h2)
	require.True(t, ok)
	assert.Equal(t, "Reference", p.Name)

	_, ok = r.Property(h3)
	assert.False(t, ok, "set handles are not properties")
}

func TestRecorderCopiesSlices(t *testing.T) {
	r := NewRecorder()
	members := []Handle{1, 2}
	_, err := r.EmitPropertySet(context.Background(), SetRecord{Name: "S", Members: members})
	require.NoError(t, err)

	members[0] = 99
	assert.Equal(t, Handle(1), r.Sets()[0].Members[0])
}

func TestRecorderHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRecorder()
	_, err := r.EmitProperty(ctx, PropertyRecord{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.Properties())
}

func TestRecorderReset(t *testing.T) {
	r := NewRecorder()
	_, _ = r.EmitProperty(context.Background(), PropertyRecord{Name: "x"})
	r.Reset()

	h, err := r.EmitProperty(context.Background(), PropertyRecord{Name: "y"})
	require.NoError(t, err)
	assert.Equal(t, Handle(1), h)
}

func TestHandleValid(t *testing.T) {
	assert.False(t, Handle(0).Valid())
	assert.True(t, Handle(1).Valid())
	assert.Equal(t, "#7", Handle(7).String())
}
