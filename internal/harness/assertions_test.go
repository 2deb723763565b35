package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/store"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Handle: 4, Entity: "d1", Set: "Pset_DoorCommon", Kind: "PropertySet", Properties: []TraceProperty{
			{Handle: 1, Name: "Reference", Kind: "Identifier", Value: "D-01"},
			{Handle: 2, Name: "IsExternal", Kind: "Boolean", Value: "true"},
		}},
		{Handle: 6, Entity: "d1", Set: "Pset_ManufacturerTypeInformation", Kind: "PropertySet", Properties: []TraceProperty{
			{Handle: 5, Name: "Manufacturer", Kind: "Label", Value: "Acme"},
		}},
		{Handle: 7, Entity: "d2", Set: "Pset_DoorCommon", Kind: "PropertySet", Description: "Leaf", Properties: []TraceProperty{
			{Handle: 1, Name: "Reference", Kind: "Identifier", Value: "D-01"},
		}},
	}
}

func TestAssertSetEmitted(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{
			name: "values subset",
			a:    Assertion{Entity: "d1", Set: "Pset_DoorCommon", Values: map[string]string{"IsExternal": "true"}},
		},
		{
			name: "description",
			a:    Assertion{Entity: "d2", Set: "Pset_DoorCommon", Description: "Leaf"},
		},
		{
			name:    "missing set",
			a:       Assertion{Entity: "d2", Set: "Pset_ManufacturerTypeInformation"},
			wantErr: "not emitted",
		},
		{
			name:    "wrong value",
			a:       Assertion{Entity: "d1", Set: "Pset_DoorCommon", Values: map[string]string{"Reference": "D-02"}},
			wantErr: "Pset_DoorCommon.Reference = D-01",
		},
		{
			name:    "missing property",
			a:       Assertion{Entity: "d2", Set: "Pset_DoorCommon", Values: map[string]string{"IsExternal": "true"}},
			wantErr: "property not in set",
		},
		{
			name:    "wrong description",
			a:       Assertion{Entity: "d1", Set: "Pset_DoorCommon", Description: "Leaf"},
			wantErr: `description ""`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.Type = AssertSetEmitted
			err := assertSetEmitted(trace, tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertSetAbsent(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertSetAbsent(trace, Assertion{Entity: "d2", Set: "Pset_ManufacturerTypeInformation"}))

	err := assertSetAbsent(trace, Assertion{Entity: "d1", Set: "Pset_ManufacturerTypeInformation"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set emitted")
	assert.Contains(t, err.Error(), "Acme", "the offending set is dumped")
}

func TestAssertPropertyAbsent(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertPropertyAbsent(trace, Assertion{Entity: "d2", Set: "Pset_DoorCommon", Property: "IsExternal"}))

	err := assertPropertyAbsent(trace, Assertion{Entity: "d1", Set: "Pset_DoorCommon", Property: "IsExternal"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IsExternal = true")

	err = assertPropertyAbsent(trace, Assertion{Entity: "d3", Set: "Pset_DoorCommon", Property: "IsExternal"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set not emitted")
}

func TestAssertSetOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertSetOrder(trace, Assertion{Entity: "d1", Sets: []string{"Pset_DoorCommon", "Pset_ManufacturerTypeInformation"}}))

	err := assertSetOrder(trace, Assertion{Entity: "d1", Sets: []string{"Pset_ManufacturerTypeInformation", "Pset_DoorCommon"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appears before")

	err = assertSetOrder(trace, Assertion{Entity: "d2", Sets: []string{"Pset_DoorCommon", "Pset_ManufacturerTypeInformation"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not emitted")
}

func TestAssertSetCount(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		a    Assertion
		pass bool
	}{
		{Assertion{Count: 3}, true},
		{Assertion{Entity: "d1", Count: 2}, true},
		{Assertion{Set: "Pset_DoorCommon", Count: 2}, true},
		{Assertion{Entity: "d2", Set: "Pset_ManufacturerTypeInformation", Count: 0}, true},
		{Assertion{Entity: "d2", Count: 2}, false},
	}
	for _, tt := range tests {
		err := assertSetCount(trace, tt.a)
		if tt.pass {
			assert.NoError(t, err, "%+v", tt.a)
		} else {
			require.Error(t, err)
			assert.Contains(t, err.Error(), "entity=d2")
		}
	}
}

func TestAssertPropertyCount(t *testing.T) {
	counts := store.Counts{Properties: 4, Sets: 3}
	assert.NoError(t, assertPropertyCount(counts, Assertion{Count: 4}))

	err := assertPropertyCount(counts, Assertion{Count: 6})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 stored properties")
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	result := &Result{Trace: sampleTrace(), Counts: store.Counts{Properties: 4}}

	msgs := EvaluateAssertions(result, []Assertion{
		{Type: AssertSetEmitted, Entity: "d1", Set: "Pset_DoorCommon"},
		{Type: AssertSetAbsent, Entity: "d1", Set: "Pset_DoorCommon"},
		{Type: AssertPropertyCount, Count: 4},
		{Type: "bogus"},
	}, nil)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "set_absent")
	assert.Contains(t, msgs[1], `unknown assertion type "bogus"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertSetEmitted,
		Expected: `set "Pset_WallCommon" on w1`,
		Actual:   "not emitted",
		Trace:    sampleTrace(),
	}

	errorStr := err.Error()
	assert.Contains(t, errorStr, "Assertion failed: set_emitted")
	assert.Contains(t, errorStr, `Expected: set "Pset_WallCommon" on w1`)
	assert.Contains(t, errorStr, "Actual: not emitted")
	assert.Contains(t, errorStr, "Full trace:")
	assert.Contains(t, errorStr, "[3] d2 Pset_DoorCommon (1 properties)")
	assert.NotContains(t, errorStr, "Detail:")
}

// Final state assertions

func TestBuildWhereClause_Empty(t *testing.T) {
	sql, args, err := buildWhereClause(nil)
	require.NoError(t, err)
	assert.Equal(t, "", sql)
	assert.Nil(t, args)
}

func TestBuildWhereClause_MultipleKeys_SortedDeterministic(t *testing.T) {
	where := map[string]interface{}{
		"session":   "s1",
		"global_id": "g1",
	}
	sql, args, err := buildWhereClause(where)
	require.NoError(t, err)
	assert.Equal(t, "global_id = ? AND session = ?", sql)
	assert.Equal(t, []interface{}{"g1", "s1"}, args)
}

func TestBuildWhereClause_NoInterpolation(t *testing.T) {
	where := map[string]interface{}{
		"name": "x'; DROP TABLE property_sets; --",
	}
	sql, args, err := buildWhereClause(where)
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP TABLE")
	assert.Contains(t, args, "x'; DROP TABLE property_sets; --")
}

func TestBuildWhereClause_InvalidColumnName(t *testing.T) {
	tests := []struct {
		name   string
		column string
	}{
		{"sql_injection", "name; DROP TABLE users; --"},
		{"starts_with_number", "1column"},
		{"contains_space", "set name"},
		{"contains_hyphen", "set-name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildWhereClause(map[string]interface{}{tt.column: "value"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid column name")
		})
	}
}

func TestAssertFinalState_InvalidTableName(t *testing.T) {
	err := assertFinalState(context.Background(), nil, Assertion{
		Type:  AssertFinalState,
		Table: "users; DROP TABLE users; --",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestFormatWhereClause(t *testing.T) {
	assert.Equal(t, "(no conditions)", formatWhereClause(nil))
	assert.Equal(t, "global_id=g1 AND name=Pset_WallCommon",
		formatWhereClause(map[string]interface{}{"name": "Pset_WallCommon", "global_id": "g1"}))
}

func TestStateValuesEqual(t *testing.T) {
	tests := []struct {
		expected, actual interface{}
		want             bool
	}{
		{"hello", "hello", true},
		{"hello", []byte("hello"), true},
		{"hello", "world", false},
		{"hello", int64(42), false},
		{42, int64(42), true},
		{int64(42), int64(43), false},
		{int64(42), "42", false},
		{4.5, 4.5, true},
		{4500, 4500.0, true},
		{true, int64(1), true},
		{false, int64(0), true},
		{true, false, false},
		{nil, nil, true},
		{nil, "value", false},
		{"value", nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stateValuesEqual(tt.expected, tt.actual), "%#v vs %#v", tt.expected, tt.actual)
	}
}

// seedStore writes one wall set with two properties through the store API.
func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	var members []emit.Handle
	for _, rec := range []emit.PropertyRecord{
		{SetName: "Pset_WallCommon", Name: "IsExternal", Kind: ir.KindBoolean, Value: ir.Bool(true)},
		{SetName: "Pset_WallCommon", Name: "Width", Kind: ir.KindLength, Value: ir.Real(200)},
	} {
		h, err := st.EmitProperty(ctx, rec)
		require.NoError(t, err)
		members = append(members, h)
	}
	_, err = st.EmitPropertySet(ctx, emit.SetRecord{
		GlobalID: "g1",
		Name:     "Pset_WallCommon",
		Kind:     ir.PropertySet,
		Members:  members,
		Owner:    emit.OwnerContext{Application: "test", Session: "s1"},
		Targets:  []emit.Handle{1001},
	})
	require.NoError(t, err)
	return st
}

func TestAssertFinalState_RowFound_Pass(t *testing.T) {
	st := seedStore(t)

	err := assertFinalState(context.Background(), st, Assertion{
		Type:   AssertFinalState,
		Table:  "property_sets",
		Where:  map[string]interface{}{"global_id": "g1"},
		Expect: map[string]interface{}{"name": "Pset_WallCommon", "kind": "PropertySet", "handle": 3},
	})
	assert.NoError(t, err)
}

func TestAssertFinalState_RowNotFound_Fail(t *testing.T) {
	st := seedStore(t)

	err := assertFinalState(context.Background(), st, Assertion{
		Type:   AssertFinalState,
		Table:  "property_sets",
		Where:  map[string]interface{}{"global_id": "missing"},
		Expect: map[string]interface{}{"name": "Pset_WallCommon"},
	})
	require.Error(t, err)

	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, AssertFinalState, assertErr.Type)
	assert.Contains(t, assertErr.Actual, "row not found")
}

func TestAssertFinalState_ValueMismatch_Fail(t *testing.T) {
	st := seedStore(t)

	err := assertFinalState(context.Background(), st, Assertion{
		Type:   AssertFinalState,
		Table:  "properties",
		Where:  map[string]interface{}{"name": "Width"},
		Expect: map[string]interface{}{"kind": "Area"},
	})
	require.Error(t, err)

	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Contains(t, assertErr.Expected, "Area")
	assert.Contains(t, assertErr.Actual, "Length")
	assert.Contains(t, err.Error(), "Detail:")
}

func TestAssertFinalState_AmbiguousWhere_Fail(t *testing.T) {
	st := seedStore(t)

	err := assertFinalState(context.Background(), st, Assertion{
		Type:   AssertFinalState,
		Table:  "set_members",
		Where:  map[string]interface{}{"set_handle": 3},
		Expect: map[string]interface{}{"position": 0},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple rows matched")
}

func TestAssertFinalState_MissingColumn_Fail(t *testing.T) {
	st := seedStore(t)

	err := assertFinalState(context.Background(), st, Assertion{
		Type:   AssertFinalState,
		Table:  "property_sets",
		Where:  map[string]interface{}{"global_id": "g1"},
		Expect: map[string]interface{}{"nonexistent_column": "value"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_column")
}

func TestAssertFinalState_TableNotFound_Fail(t *testing.T) {
	st := seedStore(t)

	err := assertFinalState(context.Background(), st, Assertion{
		Type:   AssertFinalState,
		Table:  "nonexistent_table",
		Expect: map[string]interface{}{"value": "test"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_table")
}

func TestEvaluateAssertions_FinalStateWithoutContext_Fail(t *testing.T) {
	result := &Result{Trace: []TraceEvent{}}

	msgs := EvaluateAssertions(result, []Assertion{
		{Type: AssertFinalState, Table: "properties", Expect: map[string]interface{}{"name": "Width"}},
	}, nil)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "requires database context")
}

func TestEvaluateAssertions_FinalStateWithContext_Pass(t *testing.T) {
	st := seedStore(t)

	msgs := EvaluateAssertions(&Result{}, []Assertion{
		{Type: AssertFinalState, Table: "set_targets", Where: map[string]interface{}{"set_handle": 3}, Expect: map[string]interface{}{"target_handle": 1001}},
	}, &AssertionContext{Store: st, Ctx: context.Background()})
	assert.Empty(t, msgs)
}
