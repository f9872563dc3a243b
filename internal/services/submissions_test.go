package services

import (
	"context"
	"errors"
	"testing"

	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/notify"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"github.com/localnerve/enrol-pipeline/internal/testutil"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSubmissions(e *env, notifier notify.Notifier) *Submissions {
	s := NewSubmissions(e.store, NewStageRegistry(e.store), e.activity, notifier, "https://enrol.example.com/", zap.NewNop(), e.metrics)
	s.now = tickingClock()
	return s
}

func graceAnswers() types.Answers {
	return types.Answers{
		"full_name": types.TextValue("Grace Hopper"),
		"email":     types.TextValue("grace@example.com"),
	}
}

func TestSubmitPlacesInInitialStage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	notifier := &mockNotifier{}
	notifier.On("NotifySubmission", mock.Anything, mock.MatchedBy(func(n notify.SubmissionNotice) bool {
		return n.To == "owner@example.com" &&
			n.ApplicantName == "Grace Hopper" &&
			n.FormTitle == "Data Bootcamp" &&
			n.ViewURL == "https://enrol.example.com/dashboard/pipeline" &&
			len(n.Fields) == 2
	})).Return(nil).Once()
	subs := newSubmissions(e, notifier)

	sub, err := subs.Submit(ctx, SubmitInput{FormID: e.fx.Form.ID, Data: graceAnswers()})
	require.NoError(t, err)
	subs.Drain()

	assert.Equal(t, e.fx.Stage("New").ID, sub.StageID)
	assert.Equal(t, "grace@example.com", sub.Email)
	assert.Equal(t, "Grace Hopper", sub.Name)

	activities := e.activities(t, sub.ID)
	require.Len(t, activities, 1)
	assert.Equal(t, models.ActivityCreated, activities[0].Type)
	assert.Equal(t, "Grace Hopper submitted an application", activities[0].Description)

	history, err := e.engine.History(ctx, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	notifier.AssertExpectations(t)
}

func TestSubmitExplicitFieldsWin(t *testing.T) {
	e := newEnv(t)
	subs := newSubmissions(e, nil)

	sub, err := subs.Submit(context.Background(), SubmitInput{
		FormID:  e.fx.Form.ID,
		StageID: e.fx.Stage("Reviewing").ID,
		Data:    graceAnswers(),
		Email:   "g.hopper@navy.example",
		Name:    "Rear Admiral Hopper",
	})
	require.NoError(t, err)
	assert.Equal(t, e.fx.Stage("Reviewing").ID, sub.StageID)
	assert.Equal(t, "g.hopper@navy.example", sub.Email)
	assert.Equal(t, "Rear Admiral Hopper", sub.Name)
}

func TestSubmitRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	subs := newSubmissions(e, nil)
	other := testutil.SeedForm(t, e.db, e.fx.Workspace, "Design Course", "Applied")

	_, err := subs.Submit(ctx, SubmitInput{Data: graceAnswers()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = subs.Submit(ctx, SubmitInput{FormID: e.fx.Form.ID})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = subs.Submit(ctx, SubmitInput{FormID: "no-such-form", Data: graceAnswers()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = subs.Submit(ctx, SubmitInput{FormID: e.fx.Form.ID, StageID: other.Stage("Applied").ID, Data: graceAnswers()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = subs.Submit(ctx, SubmitInput{FormID: e.fx.Form.ID, Data: types.Answers{
		"full_name": types.TextValue("Grace Hopper"),
		"email":     types.TextValue("not-an-email"),
	}})
	require.ErrorIs(t, err, ErrValidation)
	var fieldErrs types.FieldErrors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Contains(t, fieldErrs, "email")

	list, err := subs.List(ctx, e.fx.Workspace.ID, repository.SubmissionQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitNotificationFallsBackToOwner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.UpdateFormDefinition(ctx, e.fx.Form.ID, e.fx.Form.FieldList(), models.FormSettings{}))
	require.NoError(t, e.db.Model(&models.Workspace{}).Where("id = ?", e.fx.Workspace.ID).Update("owner_email", "boss@example.com").Error)

	notifier := &mockNotifier{}
	notifier.On("NotifySubmission", mock.Anything, mock.MatchedBy(func(n notify.SubmissionNotice) bool {
		return n.To == "boss@example.com"
	})).Return(errors.New("smtp unavailable")).Once()
	subs := newSubmissions(e, notifier)

	sub, err := subs.Submit(ctx, SubmitInput{FormID: e.fx.Form.ID, Data: graceAnswers()})
	require.NoError(t, err, "notification failure never fails the submission")
	subs.Drain()

	assert.NotEmpty(t, sub.ID)
	notifier.AssertExpectations(t)
}

func TestSubmissionsWorkspaceScope(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	subs := newSubmissions(e, nil)
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	otherWs := testutil.SeedWorkspace(t, e.db, "owner-2")
	foreign := testutil.SeedForm(t, e.db, otherWs, "Other Program", "New")
	testutil.SeedSubmission(t, e.db, foreign.Stage("New"), "Mallory", "mallory@example.com")

	list, err := subs.List(ctx, e.fx.Workspace.ID, repository.SubmissionQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sub.ID, list[0].ID)

	// a foreign form id in the filter is dropped, not honored
	list, err = subs.List(ctx, e.fx.Workspace.ID, repository.SubmissionQuery{FormIDs: []string{foreign.Form.ID}})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = subs.Get(ctx, otherWs.ID, sub.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateNotes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	subs := newSubmissions(e, nil)
	sub := testutil.SeedSubmission(t, e.db, e.fx.Stage("New"), "Ada Lovelace", "ada@example.com")

	updated, err := subs.UpdateNotes(ctx, e.fx.Workspace.ID, sub.ID, "Strong portfolio", reviewer)
	require.NoError(t, err)
	assert.Equal(t, "Strong portfolio", updated.Notes)

	_, err = subs.UpdateNotes(ctx, e.fx.Workspace.ID, sub.ID, "Strong portfolio", reviewer)
	require.NoError(t, err)

	activities := e.activities(t, sub.ID)
	require.Len(t, activities, 1)
	assert.Equal(t, models.ActivityNote, activities[0].Type)

	stored, err := subs.Get(ctx, e.fx.Workspace.ID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Strong portfolio", stored.Notes)
}

func TestExtractNameAndEmail(t *testing.T) {
	fields := []types.FormField{
		{ID: "q1", Type: types.FieldText, Label: "Why this course?"},
		{ID: "q2", Type: types.FieldText, Label: "Your Name"},
		{ID: "q3", Type: types.FieldEmail, Label: "Contact"},
	}
	answers := types.Answers{
		"q1": types.TextValue("Curiosity"),
		"q2": types.TextValue(" Katherine Johnson "),
		"q3": types.TextValue("kj@example.com"),
	}
	assert.Equal(t, "Katherine Johnson", extractName(fields, answers))
	assert.Equal(t, "kj@example.com", extractEmail(fields, answers))
	assert.Empty(t, extractName(fields[:1], answers))
}
