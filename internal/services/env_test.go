package services

import (
	"context"
	"testing"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/metrics"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/notify"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"github.com/localnerve/enrol-pipeline/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishEnrollment(ctx context.Context, event notify.EnrollmentEvent) error {
	return m.Called(ctx, event).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifySubmission(ctx context.Context, notice notify.SubmissionNotice) error {
	return m.Called(ctx, notice).Error(0)
}

// countingStore wraps the real store to count and optionally fail writes
type countingStore struct {
	*repository.GormStore
	stageUpdates   int
	historyWrites  int
	activityWrites int
	renames        int
	staleFinds     int
	failStage      error
	failHistory    error
	failActivity   error
}

func (s *countingStore) UpdateSubmissionStage(ctx context.Context, id, stageID string, at time.Time) error {
	s.stageUpdates++
	if s.failStage != nil {
		return s.failStage
	}
	return s.GormStore.UpdateSubmissionStage(ctx, id, stageID, at)
}

func (s *countingStore) AppendHistory(ctx context.Context, h *models.StageHistory) error {
	s.historyWrites++
	if s.failHistory != nil {
		return s.failHistory
	}
	return s.GormStore.AppendHistory(ctx, h)
}

func (s *countingStore) AppendActivity(ctx context.Context, a *models.Activity) error {
	s.activityWrites++
	if s.failActivity != nil {
		return s.failActivity
	}
	return s.GormStore.AppendActivity(ctx, a)
}

func (s *countingStore) RenameTag(ctx context.Context, id, name string) error {
	s.renames++
	return s.GormStore.RenameTag(ctx, id, name)
}

// FindTagByName misses while staleFinds is positive, as a read racing a
// concurrent insert would
func (s *countingStore) FindTagByName(ctx context.Context, workspaceID, name string) (*models.Tag, error) {
	if s.staleFinds > 0 {
		s.staleFinds--
		return nil, repository.ErrNotFound
	}
	return s.GormStore.FindTagByName(ctx, workspaceID, name)
}

// tickingClock returns strictly increasing instants
func tickingClock() func() time.Time {
	t := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type env struct {
	db        *gorm.DB
	store     *countingStore
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	activity  *ActivityLog
	tags      *TagManager
	engine    *Engine
	publisher *mockPublisher
	fx        testutil.Fixture
}

// newEnv seeds one workspace with a New/Reviewing/Enrolled form
func newEnv(t *testing.T) *env {
	db := testutil.NewTestDB(t)
	store := &countingStore{GormStore: repository.NewGormStore(db)}
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	log := zap.NewNop()
	clock := tickingClock()

	activity := NewActivityLog(store, log, m)
	activity.now = clock

	publisher := &mockPublisher{}
	engine := NewEngine(store, activity, publisher, log, m)
	engine.now = clock
	t.Cleanup(engine.Drain)

	ws := testutil.SeedWorkspace(t, db, "owner-1")
	fx := testutil.SeedForm(t, db, ws, "Data Bootcamp", "New", "Reviewing", "Enrolled")

	return &env{
		db:        db,
		store:     store,
		metrics:   m,
		registry:  registry,
		activity:  activity,
		tags:      NewTagManager(store, activity, log),
		engine:    engine,
		publisher: publisher,
		fx:        fx,
	}
}

func (e *env) activities(t *testing.T, submissionID string) []models.Activity {
	t.Helper()
	list, err := e.activity.List(context.Background(), submissionID)
	if err != nil {
		t.Fatalf("Failed to list activities: %v", err)
	}
	return list
}
