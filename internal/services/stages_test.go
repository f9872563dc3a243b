package services

import (
	"context"
	"testing"

	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStages(t *testing.T) {
	stages := DefaultStages()
	require.Len(t, stages, 4)
	assert.NoError(t, ValidateOrdering(stages))

	var enrolling []string
	for _, s := range stages {
		if s.TriggersEnrollment {
			enrolling = append(enrolling, s.Name)
		}
	}
	assert.Equal(t, []string{"Enrolled"}, enrolling)
}

func TestValidateOrdering(t *testing.T) {
	gap := []models.PipelineStage{
		{FormID: "f", Name: "New", Position: 0},
		{FormID: "f", Name: "Done", Position: 2},
	}
	assert.Error(t, ValidateOrdering(gap))

	mixed := []models.PipelineStage{
		{FormID: "f", Name: "New", Position: 0},
		{FormID: "g", Name: "Done", Position: 1},
	}
	assert.Error(t, ValidateOrdering(mixed))

	assert.NoError(t, ValidateOrdering(nil))
}

func TestStageRegistry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	registry := NewStageRegistry(e.store)

	initial, err := registry.Initial(ctx, e.fx.Form.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", initial.Name)

	list, err := registry.List(ctx, e.fx.Form.ID)
	require.NoError(t, err)
	assert.NoError(t, ValidateOrdering(list))

	other := testutil.SeedForm(t, e.db, e.fx.Workspace, "Design Course", "Applied", "Hired")
	byForm, err := registry.ForForms(ctx, []string{e.fx.Form.ID, other.Form.ID})
	require.NoError(t, err)
	assert.Len(t, byForm[e.fx.Form.ID], 3)
	require.Len(t, byForm[other.Form.ID], 2)
	assert.Equal(t, "Applied", byForm[other.Form.ID][0].Name)

	empty := testutil.SeedForm(t, e.db, e.fx.Workspace, "No Stages")
	_, err = registry.Initial(ctx, empty.Form.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
