package services

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddManual(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := e.activity.AddManual(ctx, sub.ID, text, reviewer)
		assert.ErrorIs(t, err, ErrValidation, "text %q", text)
	}
	assert.Zero(t, e.store.activityWrites)

	entry, err := e.activity.AddManual(ctx, sub.ID, "  Called about funding  ", reviewer)
	require.NoError(t, err)
	assert.Equal(t, "Called about funding", entry.Description)
	assert.Equal(t, models.ActivityManual, entry.Type)
	require.NotNil(t, entry.CreatedBy)
	assert.Equal(t, "user-7", *entry.CreatedBy)
}

func TestAppendRejectsUnknownType(t *testing.T) {
	e := newEnv(t)
	_, err := e.activity.Append(context.Background(), "sub-1", models.ActivityType("promoted"), "x", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestActivityListNewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	for _, text := range []string{"first", "second", "third"} {
		_, err := e.activity.AddManual(ctx, sub.ID, text, nil)
		require.NoError(t, err)
	}

	list := e.activities(t, sub.ID)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Description)
	assert.Equal(t, "first", list[2].Description)
	assert.Nil(t, list[0].CreatedBy)
}

func TestRecordSwallowsFailures(t *testing.T) {
	e := newEnv(t)
	e.store.failActivity = errors.New("disk full")

	assert.NotPanics(t, func() {
		e.activity.Record(context.Background(), "sub-1", models.ActivityNote, "Updated notes", nil, reviewer)
	})
	assert.Equal(t, 1, e.store.activityWrites)
}
