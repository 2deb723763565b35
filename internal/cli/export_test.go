package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_InMemory(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--config", f.config, "--format", "json", "export", "--model", f.model)
	require.NoError(t, err)

	var result ExportResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, result.Counts, "no store without --db")
	assert.Equal(t, 2, result.Stats.Entities)
	assert.Equal(t, 3, result.Stats.Sets)

	require.Len(t, result.Sets, 3)
	assert.Equal(t, "d1", result.Sets[0].Entity)
	assert.Equal(t, "Pset_DoorCommon", result.Sets[0].Name)
	assert.Equal(t, "PropertySet", result.Sets[0].Kind)
	assert.Equal(t, 3, result.Sets[0].Members)
	assert.Equal(t, "d2", result.Sets[2].Entity)
	for _, s := range result.Sets {
		assert.Len(t, s.GlobalID, 22)
	}
}

func TestExport_ToDatabase(t *testing.T) {
	f := newFixture(t)
	db := filepath.Join(f.dir, "psets.db")

	out, err := execute(t, "--config", f.config, "--format", "json",
		"export", "--model", f.model, "--db", db, "--session", "run-1")
	require.NoError(t, err)

	var result ExportResult
	decode(t, out, &result)
	require.NotNil(t, result.Counts)
	assert.Equal(t, 3, result.Counts.Sets)
	assert.Equal(t, 5, result.Counts.Properties)
	assert.Equal(t, 2, result.Stats.Cache.Hits)
}

func TestExport_NoCache(t *testing.T) {
	f := newFixture(t)
	db := filepath.Join(f.dir, "psets.db")

	out, err := execute(t, "--config", f.config, "--format", "json",
		"export", "--model", f.model, "--db", db, "--no-cache")
	require.NoError(t, err)

	var result ExportResult
	decode(t, out, &result)
	require.NotNil(t, result.Counts)
	assert.Equal(t, 7, result.Counts.Properties)
	assert.Zero(t, result.Stats.Cache.Hits)
}

func TestExport_EntitySelection(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--config", f.config, "--format", "json",
		"export", "--model", f.model, "--entity", "d2")
	require.NoError(t, err)

	var result ExportResult
	decode(t, out, &result)
	require.Len(t, result.Sets, 1)
	assert.Equal(t, "d2", result.Sets[0].Entity)
	assert.Equal(t, 1, result.Stats.Entities)
}

func TestExport_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"missing model", []string{"export", "--model", filepath.Join(f.dir, "absent.yaml")}, ErrCodeModel},
		{"unknown entity", []string{"export", "--model", f.model, "--entity", "d9"}, ErrCodeModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", f.config, "--format", "json"}, tt.args...)
			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			resp := decode(t, out, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestExport_ModelFlagRequired(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, "--config", f.config, "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
}

func TestExport_TextOutput(t *testing.T) {
	f := newFixture(t)

	out, err := execute(t, "--config", f.config, "export", "--model", f.model)
	require.NoError(t, err)
	assert.Contains(t, out, "Pset_ManufacturerTypeInformation")
	assert.Contains(t, out, "✓ 2 entities, 3 sets")
}
