// submissions.go
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
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/logger"
	"github.com/localnerve/enrol-pipeline/internal/metrics"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/notify"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SubmissionStore is what the submission service needs from persistence
type SubmissionStore interface {
	repository.WorkspaceStore
	repository.FormStore
	repository.StageStore
	repository.SubmissionStore
}

// SubmitInput is the public ingestion payload
type SubmitInput struct {
	FormID  string        `json:"form_id"`
	StageID string        `json:"stage_id,omitempty"`
	Data    types.Answers `json:"data"`
	Email   string        `json:"email,omitempty"`
	Name    string        `json:"name,omitempty"`
}

// Submissions ingests public submissions and manages applicant records
type Submissions struct {
	store    SubmissionStore
	stages   *StageRegistry
	activity *ActivityLog
	notifier notify.Notifier
	appURL   string
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	pending  sync.WaitGroup
}

func NewSubmissions(store SubmissionStore, stages *StageRegistry, activity *ActivityLog, notifier notify.Notifier, appURL string, log *zap.Logger, m *metrics.Metrics) *Submissions {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Submissions{
		store:    store,
		stages:   stages,
		activity: activity,
		notifier: notifier,
		appURL:   strings.TrimSuffix(appURL, "/"),
		log:      logger.OrNop(log),
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates and stores a public submission. The owner notification
// is sent in the background; its outcome never affects the result.
func (s *Submissions) Submit(ctx context.Context, in SubmitInput) (*models.Submission, error) {
	if strings.TrimSpace(in.FormID) == "" || in.Data == nil {
		return nil, invalid("Missing required fields")
	}

	form, err := s.store.GetForm(ctx, in.FormID)
	if err != nil {
		return nil, err
	}

	answers, err := types.ValidateAnswers(form.FieldList(), in.Data)
	if err != nil {
		return nil, &ValidationError{Message: err.Error(), Cause: err}
	}

	stageID := in.StageID
	if stageID == "" {
		initial, err := s.stages.Initial(ctx, form.ID)
		if err != nil {
			return nil, err
		}
		stageID = initial.ID
	} else {
		stage, err := s.store.GetStage(ctx, stageID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && stage.FormID != form.ID) {
			return nil, invalid("Stage does not belong to this form")
		}
		if err != nil {
			return nil, err
		}
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = extractEmail(form.FieldList(), answers)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = extractName(form.FieldList(), answers)
	}

	now := s.now()
	submission := &models.Submission{
		FormID:    form.ID,
		StageID:   stageID,
		Data:      datatypes.NewJSONType(answers),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSubmission(ctx, submission); err != nil {
		s.log.Error("submission insert failed", zap.String("form_id", form.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	s.metrics.SubmissionCreated()

	who := name
	if who == "" {
		who = "Someone"
	}
	s.activity.Record(ctx, submission.ID, models.ActivityCreated, who+" submitted an application", nil, nil)

	s.notifyOwner(ctx, form, submission)

	return submission, nil
}

// notifyOwner resolves the recipient and sends the notice in the background
func (s *Submissions) notifyOwner(ctx context.Context, form *models.Form, submission *models.Submission) {
	to := form.Settings.Data().NotifyEmail
	if to == "" {
		ws, err := s.store.GetWorkspace(ctx, form.WorkspaceID)
		if err != nil {
			s.log.Warn("notification skipped, workspace lookup failed", zap.String("form_id", form.ID), zap.Error(err))
			return
		}
		to = ws.OwnerEmail
	}
	if to == "" {
		return
	}

	notice := notify.SubmissionNotice{
		To:             to,
		ApplicantName:  submission.Name,
		ApplicantEmail: submission.Email,
		FormTitle:      form.Title,
		Fields:         notify.FieldLines(form.FieldList(), submission.Answers()),
		ViewURL:        s.appURL + "/dashboard/pipeline",
	}

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.notifier.NotifySubmission(bg, notice); err != nil {
			s.metrics.Notification("failed")
			s.log.Warn("submission notification failed",
				zap.String("submission_id", submission.ID),
				zap.Error(err),
			)
			return
		}
		s.metrics.Notification("sent")
	}()
}

// Drain waits for in-flight notifications
func (s *Submissions) Drain() {
	s.pending.Wait()
}

// formIDs returns the workspace's form ids, restricted to want when given
func (s *Submissions) formIDs(ctx context.Context, workspaceID string, want []string) ([]string, error) {
	forms, err := s.store.ListForms(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(forms))
	ids := make([]string, 0, len(forms))
	for _, f := range forms {
		owned[f.ID] = true
		ids = append(ids, f.ID)
	}
	if len(want) == 0 {
		return ids, nil
	}

	ids = ids[:0]
	for _, id := range want {
		if owned[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// List returns the workspace's submissions matching q, newest first
func (s *Submissions) List(ctx context.Context, workspaceID string, q repository.SubmissionQuery) ([]models.Submission, error) {
	ids, err := s.formIDs(ctx, workspaceID, q.FormIDs)
	if err != nil {
		return nil, err
	}
	q.FormIDs = ids
	return s.store.ListSubmissions(ctx, q)
}

// Get returns a submission of the workspace
func (s *Submissions) Get(ctx context.Context, workspaceID, id string) (*models.Submission, error) {
	submission, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	form, err := s.store.GetForm(ctx, submission.FormID)
	if err != nil {
		return nil, err
	}
	if form.WorkspaceID != workspaceID {
		return nil, ErrNotFound
	}
	return submission, nil
}

// UpdateNotes writes the submission's notes. Unchanged notes write nothing.
func (s *Submissions) UpdateNotes(ctx context.Context, workspaceID, id, notes string, actor *Actor) (*models.Submission, error) {
	submission, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if submission.Notes == notes {
		return submission, nil
	}

	at := s.now()
	if err := s.store.UpdateSubmissionNotes(ctx, id, notes, at); err != nil {
		s.log.Error("notes update failed", zap.String("submission_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update notes: %w", err)
	}
	submission.Notes = notes
	submission.UpdatedAt = at

	s.activity.Record(ctx, id, models.ActivityNote, "Updated notes", nil, actor)
	return submission, nil
}

// extractEmail returns the answer of the first email field
func extractEmail(fields []types.FormField, answers types.Answers) string {
	for _, f := range fields {
		if f.Type == types.FieldEmail {
			if v := answers.Text(f.ID); v != "" {
				return v
			}
		}
	}
	return ""
}

// extractName returns the answer of the first text field labelled as a name
func extractName(fields []types.FormField, answers types.Answers) string {
	for _, f := range fields {
		if f.Type == types.FieldText && strings.Contains(strings.ToLower(f.Label), "name") {
			if v := answers.Text(f.ID); v != "" {
				return v
			}
		}
	}
	return ""
}
