// transition.go
//
// Applicant pipeline and activity service for training-provider application forms
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of enrol-pipeline.
// enrol-pipeline is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// enrol-pipeline is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with enrol-pipeline.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/logger"
	"github.com/localnerve/enrol-pipeline/internal/metrics"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/notify"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"go.uber.org/zap"
)

// TransitionStore is what the engine needs from persistence
type TransitionStore interface {
	repository.SubmissionStore
	repository.StageStore
	repository.HistoryStore
}

// TransitionResult describes a completed transition call
type TransitionResult struct {
	Submission models.Submission    `json:"submission"`
	From       models.PipelineStage `json:"from"`
	To         models.PipelineStage `json:"to"`
	Changed    bool                 `json:"changed"`
}

// Engine moves submissions between the stages of their form
type Engine struct {
	store      TransitionStore
	activity   *ActivityLog
	enrollment notify.EnrollmentPublisher
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	pending    sync.WaitGroup
}

func NewEngine(store TransitionStore, activity *ActivityLog, enrollment notify.EnrollmentPublisher, log *zap.Logger, m *metrics.Metrics) *Engine {
	if enrollment == nil {
		enrollment = notify.Publishers{}
	}
	return &Engine{
		store:      store,
		activity:   activity,
		enrollment: enrollment,
		log:        logger.OrNop(log),
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Transition moves the submission to targetStageID.
//
// Moving to the current stage is a no-op with no writes. A target stage of
// another form is rejected with ErrCrossFormStage. Only the stage update is
// authoritative: when it fails nothing else is written and the error is
// returned. History and the stage_change activity follow as advisory
// writes. The enrollment event is published in the background; see Drain.
func (e *Engine) Transition(ctx context.Context, submissionID, targetStageID string, actor *Actor) (*TransitionResult, error) {
	submission, err := e.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if submission.StageID == targetStageID {
		e.metrics.Transition("noop")
		return &TransitionResult{Submission: *submission, Changed: false}, nil
	}

	to, err := e.store.GetStage(ctx, targetStageID)
	if err != nil {
		e.metrics.Transition("rejected")
		return nil, fmt.Errorf("target stage %s: %w", targetStageID, err)
	}
	if to.FormID != submission.FormID {
		e.metrics.Transition("rejected")
		return nil, ErrCrossFormStage
	}

	from, err := e.store.GetStage(ctx, submission.StageID)
	if err != nil {
		from = &models.PipelineStage{ID: submission.StageID, FormID: submission.FormID, Name: "Unknown"}
	}

	at := e.now()
	if err := e.store.UpdateSubmissionStage(ctx, submission.ID, to.ID, at); err != nil {
		e.metrics.Transition("failed")
		e.log.Error("stage transition failed",
			zap.String("submission_id", submission.ID),
			zap.String("to_stage_id", to.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to update submission stage: %w", err)
	}
	e.metrics.Transition("applied")

	updated := *submission
	updated.StageID = to.ID
	updated.UpdatedAt = at

	fromID := from.ID
	side := advisory{submissionID: submission.ID}
	side.add("history", func(ctx context.Context) error {
		return e.store.AppendHistory(ctx, &models.StageHistory{
			SubmissionID: submission.ID,
			FromStageID:  &fromID,
			ToStageID:    to.ID,
			ChangedBy:    actorID(actor),
			ChangedAt:    at,
		})
	})
	side.add("activity", func(ctx context.Context) error {
		_, err := e.activity.Append(ctx, submission.ID, models.ActivityStageChange,
			fmt.Sprintf("Moved from %s to %s", from.Name, to.Name),
			map[string]any{
				"from_stage_id": from.ID,
				"to_stage_id":   to.ID,
			}, actor)
		return err
	})
	side.flush(ctx, e.log, e.metrics)

	if to.TriggersEnrollment {
		event := notify.EnrollmentEvent{Submission: updated, Stage: *to, At: at}
		if actor != nil {
			event.ActorID = actor.ID
		}
		e.publishEnrollment(ctx, event)
	}

	return &TransitionResult{
		Submission: updated,
		From:       *from,
		To:         *to,
		Changed:    true,
	}, nil
}

// publishEnrollment hands the event to the publisher in the background so a
// slow receiver never holds the transition's response
func (e *Engine) publishEnrollment(ctx context.Context, event notify.EnrollmentEvent) {
	e.metrics.EnrollmentEvent()

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		defer cancel()
		if err := e.enrollment.PublishEnrollment(bg, event); err != nil {
			e.metrics.AdvisoryFailure("enrollment")
			e.log.Warn("enrollment event failed",
				zap.String("submission_id", event.Submission.ID),
				zap.String("stage_id", event.Stage.ID),
				zap.Error(err),
			)
		}
	}()
}

// Drain waits for in-flight enrollment events
func (e *Engine) Drain() {
	e.pending.Wait()
}

// History returns the submission's transitions, most recent first
func (e *Engine) History(ctx context.Context, submissionID string) ([]models.StageHistory, error) {
	return e.store.ListHistory(ctx, submissionID)
}
