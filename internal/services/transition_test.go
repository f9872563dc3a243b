package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/notify"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"github.com/localnerve/enrol-pipeline/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var reviewer = &Actor{ID: "user-7", Email: "reviewer@example.com"}

func TestTransitionSameStageWritesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	res, err := e.engine.Transition(ctx, sub.ID, e.fx.Stage("New").ID, reviewer)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, e.fx.Stage("New").ID, res.Submission.StageID)

	assert.Zero(t, e.store.stageUpdates)
	assert.Zero(t, e.store.historyWrites)
	assert.Zero(t, e.store.activityWrites)

	history, err := e.engine.History(ctx, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, e.activities(t, sub.ID))
}

func TestTransitionHistoryChains(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	e.publisher.On("PublishEnrollment", mock.Anything, mock.Anything).Return(nil)

	path := []string{"Reviewing", "New", "Reviewing", "Enrolled"}
	for _, name := range path {
		_, err := e.engine.Transition(ctx, sub.ID, e.fx.Stage(name).ID, reviewer)
		require.NoError(t, err)
	}

	history, err := e.engine.History(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, history, len(path))

	// newest first: each entry starts where the next older one ended
	for i := 0; i < len(history)-1; i++ {
		require.NotNil(t, history[i].FromStageID)
		assert.Equal(t, history[i+1].ToStageID, *history[i].FromStageID)
		assert.True(t, history[i].ChangedAt.After(history[i+1].ChangedAt))
	}
	assert.Equal(t, e.fx.Stage("New").ID, *history[len(history)-1].FromStageID)

	stored, err := e.store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.StageID, history[0].ToStageID)
	assert.Equal(t, "user-7", *history[0].ChangedBy)
}

func TestTransitionDescribesMoves(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	e.publisher.On("PublishEnrollment", mock.Anything, mock.MatchedBy(func(ev notify.EnrollmentEvent) bool {
		return ev.Stage.Name == "Enrolled" && ev.Submission.ID == sub.ID && ev.ActorID == "user-7"
	})).Return(nil).Once()

	res, err := e.engine.Transition(ctx, sub.ID, e.fx.Stage("Reviewing").ID, reviewer)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "New", res.From.Name)
	assert.Equal(t, "Reviewing", res.To.Name)

	_, err = e.engine.Transition(ctx, sub.ID, e.fx.Stage("Enrolled").ID, reviewer)
	require.NoError(t, err)

	activities := e.activities(t, sub.ID)
	require.Len(t, activities, 2)
	assert.Equal(t, models.ActivityStageChange, activities[0].Type)
	assert.Equal(t, "Moved from Reviewing to Enrolled", activities[0].Description)
	assert.Equal(t, "Moved from New to Reviewing", activities[1].Description)
	assert.Equal(t, e.fx.Stage("Reviewing").ID, activities[0].Metadata.Lookup("from_stage_id"))
	assert.Equal(t, e.fx.Stage("Enrolled").ID, activities[0].Metadata.Lookup("to_stage_id"))

	e.engine.Drain()
	e.publisher.AssertExpectations(t)

	expected := `
# HELP enrol_enrollment_events_total Transitions that landed on an enrollment-triggering stage.
# TYPE enrol_enrollment_events_total counter
enrol_enrollment_events_total 1
`
	assert.NoError(t, promtest.GatherAndCompare(e.registry, strings.NewReader(expected), "enrol_enrollment_events_total"))
}

func TestTransitionRejectsOtherFormStage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	other := testutil.SeedForm(t, e.db, e.fx.Workspace, "Design Course", "New", "Hired")
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	_, err := e.engine.Transition(ctx, sub.ID, other.Stage("Hired").ID, reviewer)
	assert.ErrorIs(t, err, ErrCrossFormStage)
	assert.Zero(t, e.store.stageUpdates)

	stored, err := e.store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, e.fx.Stage("New").ID, stored.StageID)
}

func TestTransitionUnknownTargets(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	_, err := e.engine.Transition(ctx, sub.ID, "missing-stage", reviewer)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.engine.Transition(ctx, "missing-submission", e.fx.Stage("Reviewing").ID, reviewer)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTransitionPrimaryFailureWritesNothingElse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")
	e.store.failStage = errors.New("connection reset")

	_, err := e.engine.Transition(ctx, sub.ID, e.fx.Stage("Enrolled").ID, reviewer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, 1, e.store.stageUpdates)
	assert.Zero(t, e.store.historyWrites)
	assert.Zero(t, e.store.activityWrites)
	e.engine.Drain()
	e.publisher.AssertNotCalled(t, "PublishEnrollment", mock.Anything, mock.Anything)
}

func TestTransitionAdvisoryFailuresAreNotReturned(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")
	e.store.failHistory = errors.New("history table locked")
	e.store.failActivity = errors.New("activity table locked")
	e.publisher.On("PublishEnrollment", mock.Anything, mock.Anything).Return(errors.New("webhook down")).Once()

	res, err := e.engine.Transition(ctx, sub.ID, e.fx.Stage("Enrolled").ID, reviewer)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	stored, err := e.store.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, e.fx.Stage("Enrolled").ID, stored.StageID)

	assert.Equal(t, 1, e.store.historyWrites)
	assert.Equal(t, 1, e.store.activityWrites)
	e.engine.Drain()
	e.publisher.AssertExpectations(t)

	n, err := promtest.GatherAndCount(e.registry, "enrol_advisory_write_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestTransitionDoesNotWaitForEnrollment(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	release := make(chan struct{})
	type seen struct {
		err         error
		hasDeadline bool
	}
	published := make(chan seen, 1)
	e.publisher.On("PublishEnrollment", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-release
			bg := args.Get(0).(context.Context)
			_, ok := bg.Deadline()
			published <- seen{err: bg.Err(), hasDeadline: ok}
		}).
		Return(nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := e.engine.Transition(ctx, sub.ID, e.fx.Stage("Enrolled").ID, reviewer)
		assert.NoError(t, err)
		assert.True(t, res.Changed)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		close(release)
		t.Fatal("transition waited on the enrollment publisher")
	}

	// the request ending does not cancel the publish
	cancel()
	close(release)
	e.engine.Drain()

	got := <-published
	assert.NoError(t, got.err)
	assert.True(t, got.hasDeadline)
	e.publisher.AssertExpectations(t)

	n, err := promtest.GatherAndCount(e.registry, "enrol_advisory_write_failures_total")
	require.NoError(t, err)
	assert.Zero(t, n)
}
