package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ifcpset/internal/calc"
	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/engine"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/model"
	"github.com/roach88/ifcpset/internal/registry"
	"github.com/roach88/ifcpset/internal/schema"
	"github.com/roach88/ifcpset/internal/testutil"
)

func TestListSets_EmptyStore(t *testing.T) {
	s := createTestStore(t)

	sets, err := s.ListSets(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sets)
	assert.Empty(t, sets)
}

func TestListSets_MembersAndTargetsInOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	wall := emitSet(t, s, "g1", "Pset_WallCommon", 1001,
		createTestProperty("Pset_WallCommon", "Width", 0.2),
		createTestProperty("Pset_WallCommon", "Height", 3),
	)
	// The second set reuses the first set's Height property.
	_, err := s.EmitPropertySet(ctx, emit.SetRecord{
		GlobalID:    "g2",
		Name:        "BaseQuantities",
		Kind:        ir.QuantitySet,
		Description: "Level 1",
		Members:     []emit.Handle{2},
		Owner:       emit.OwnerContext{Application: "test", Author: "me", Session: "s1"},
		Targets:     []emit.Handle{1001, 1002},
	})
	require.NoError(t, err)

	sets, err := s.ListSets(ctx)
	require.NoError(t, err)

	want := []StoredSet{
		{Handle: wall, SetRecord: emit.SetRecord{
			GlobalID: "g1",
			Name:     "Pset_WallCommon",
			Kind:     ir.PropertySet,
			Members:  []emit.Handle{1, 2},
			Owner:    emit.OwnerContext{Application: "test", Session: "s1"},
			Targets:  []emit.Handle{1001},
		}},
		{Handle: 4, SetRecord: emit.SetRecord{
			GlobalID:    "g2",
			Name:        "BaseQuantities",
			Kind:        ir.QuantitySet,
			Description: "Level 1",
			Members:     []emit.Handle{2},
			Owner:       emit.OwnerContext{Application: "test", Author: "me", Session: "s1"},
			Targets:     []emit.Handle{1001, 1002},
		}},
	}
	if diff := cmp.Diff(want, sets); diff != "" {
		t.Errorf("ListSets() mismatch (-want +got):\n%s", diff)
	}
}

func TestSetProperties_RoundTripsValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	records := []emit.PropertyRecord{
		{SetName: "Pset_WallCommon", Name: "Reference", Container: ir.ContainerSingle, Kind: ir.KindIdentifier, Value: ir.String("Basic Wall")},
		{SetName: "Pset_WallCommon", Name: "IsExternal", Container: ir.ContainerSingle, Kind: ir.KindBoolean, Value: ir.Bool(true)},
		{SetName: "Pset_WallCommon", Name: "LoadBearing", Container: ir.ContainerSingle, Kind: ir.KindLogical, Value: ir.LogicalUnknown},
		{SetName: "Pset_WallCommon", Name: "Storeys", Container: ir.ContainerSingle, Kind: ir.KindCount, Value: ir.Int(3)},
		{SetName: "Pset_WallCommon", Name: "Zones", Container: ir.ContainerList, Kind: ir.KindLabel, Value: ir.List{ir.String("North"), ir.String("East")}},
		{SetName: "Pset_WallCommon", Name: "Assembly", Container: ir.ContainerReference, Kind: ir.KindClassificationReference, Value: ir.Reference{System: "Uniformat", Code: "B2010"}},
		{SetName: "Pset_WallCommon", Name: "Width", Container: ir.ContainerSingle, Kind: ir.KindLength, Value: ir.Real(200), Quantity: true, MethodOfMeasurement: "measured"},
	}
	set := emitSet(t, s, "g1", "Pset_WallCommon", 1001, records...)

	props, err := s.SetProperties(ctx, set)
	require.NoError(t, err)
	require.Len(t, props, len(records))

	for i, p := range props {
		assert.Equal(t, emit.Handle(i+1), p.Handle)
		if diff := cmp.Diff(records[i], p.PropertyRecord); diff != "" {
			t.Errorf("property %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestSetProperties_UnknownSet(t *testing.T) {
	s := createTestStore(t)

	props, err := s.SetProperties(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestProperty_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Property(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestCounts(t *testing.T) {
	s := createTestStore(t)

	emitSet(t, s, "g1", "Pset_WallCommon", 1001,
		createTestProperty("Pset_WallCommon", "Width", 0.2),
		createTestProperty("Pset_WallCommon", "Height", 3),
	)
	emitSet(t, s, "g2", "Pset_BeamCommon", 1002,
		createTestProperty("Pset_BeamCommon", "Span", 4500),
	)

	c, err := s.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Properties: 3, Sets: 2, Members: 3, Targets: 2}, c)
}

// A session writing into the store produces the same sets it reports.
func TestStoreAsSessionEmitter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	span, ok := calc.Builtins().Lookup("BeamSpan")
	require.True(t, ok)
	beamCommon := schema.PropertySet("Pset_BeamCommon").AppliesTo("IfcBeam").Add(
		schema.Property("Span").Kind(ir.KindPositiveLength).Calculator(span).MustBuild(),
	).MustBuild()

	cat := registry.NewCatalog()
	cat.Register("test", func(b *registry.Builder) error {
		b.Add("framing", beamCommon)
		return nil
	})
	reg, err := cat.Build(registry.Options{Profiles: []string{"test"}})
	require.NoError(t, err)

	sess := engine.NewSession(reg, s, engine.WithGUIDGenerator(testutil.NewSequentialGUIDs()))
	for i, id := range []string{"b1", "b2"} {
		b := &model.Entity{IDValue: id, Entity: "IfcBeam", ShapeValues: model.Shape{"length": 4500.0}}
		b.SetHandle(int64(2001 + i))
		_, err := sess.Export(ctx, b)
		require.NoError(t, err)
	}
	sess.Close()

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{Properties: 1, Sets: 2, Members: 2, Targets: 2}, c, "the cached span is stored once")

	sets, err := s.ListSets(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, sets[0].Members, sets[1].Members)
	assert.Equal(t, []emit.Handle{2001}, sets[0].Targets)
	assert.Equal(t, []emit.Handle{2002}, sets[1].Targets)

	props, err := s.SetProperties(ctx, sets[1].Handle)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, ir.Real(4500), props[0].Value)
}

func TestListProperties(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	emitSet(t, s, "g1", "Pset_WallCommon", 1001, createTestProperty("Pset_WallCommon", "Width", 0.2))
	emitSet(t, s, "g2", "Pset_BeamCommon", 1002, createTestProperty("Pset_BeamCommon", "Span", 4500))

	props, err := s.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, emit.Handle(1), props[0].Handle)
	assert.Equal(t, "Width", props[0].Name)
	assert.Equal(t, emit.Handle(3), props[1].Handle)
	assert.Equal(t, "Span", props[1].Name)
}

func TestQuery(t *testing.T) {
	s := createTestStore(t)
	emitSet(t, s, "g1", "Pset_WallCommon", 1001, createTestProperty("Pset_WallCommon", "Width", 0.2))

	rows, err := s.Query(context.Background(), "SELECT name FROM property_sets WHERE global_id = ?", "g1")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	var name string
	require.NoError(t, rows.Scan(&name))
	assert.Equal(t, "Pset_WallCommon", name)
}
