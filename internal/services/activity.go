// activity.go
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
	"strings"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/logger"
	"github.com/localnerve/enrol-pipeline/internal/metrics"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"go.uber.org/zap"
)

// advisoryWrite is one best-effort side effect of a primary mutation
type advisoryWrite struct {
	kind string
	run  func(ctx context.Context) error
}

// advisory runs side-effect writes after a primary mutation has succeeded.
// Each failure is logged and counted and never reaches the caller.
type advisory struct {
	submissionID string
	writes       []advisoryWrite
}

func (a *advisory) add(kind string, run func(ctx context.Context) error) {
	a.writes = append(a.writes, advisoryWrite{kind: kind, run: run})
}

func (a *advisory) flush(ctx context.Context, log *zap.Logger, m *metrics.Metrics) {
	for _, w := range a.writes {
		if err := w.run(ctx); err != nil {
			m.AdvisoryFailure(w.kind)
			log.Warn("advisory write failed",
				zap.String("kind", w.kind),
				zap.String("submission_id", a.submissionID),
				zap.Error(err),
			)
		}
	}
}

// ActivityLog appends and lists a submission's timeline
type ActivityLog struct {
	store   repository.ActivityStore
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewActivityLog(store repository.ActivityStore, log *zap.Logger, m *metrics.Metrics) *ActivityLog {
	return &ActivityLog{
		store:   store,
		log:     logger.OrNop(log),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Append inserts one entry and reports failure to the caller
func (l *ActivityLog) Append(ctx context.Context, submissionID string, kind models.ActivityType, description string, metadata map[string]any, actor *Actor) (*models.Activity, error) {
	if !kind.Valid() {
		return nil, invalid(fmt.Sprintf("unknown activity type %q", kind))
	}
	if kind == models.ActivityManual && strings.TrimSpace(description) == "" {
		return nil, invalid("Activity description is required")
	}

	entry := &models.Activity{
		SubmissionID: submissionID,
		Type:         kind,
		Description:  description,
		CreatedBy:    actorID(actor),
		CreatedAt:    l.now(),
	}
	if metadata != nil {
		meta, err := models.NewJSON(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode activity metadata: %w", err)
		}
		entry.Metadata = meta
	}

	if err := l.store.AppendActivity(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}
	return entry, nil
}

// Record is the best-effort form of Append: failures are logged, never returned
func (l *ActivityLog) Record(ctx context.Context, submissionID string, kind models.ActivityType, description string, metadata map[string]any, actor *Actor) {
	a := advisory{submissionID: submissionID}
	a.add("activity", func(ctx context.Context) error {
		_, err := l.Append(ctx, submissionID, kind, description, metadata, actor)
		return err
	})
	a.flush(ctx, l.log, l.metrics)
}

// AddManual appends a user-written entry. Whitespace-only text is rejected.
func (l *ActivityLog) AddManual(ctx context.Context, submissionID, text string, actor *Actor) (*models.Activity, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Activity description is required")
	}
	return l.Append(ctx, submissionID, models.ActivityManual, text, nil, actor)
}

// List returns every entry of the submission, most recent first
func (l *ActivityLog) List(ctx context.Context, submissionID string) ([]models.Activity, error) {
	return l.store.ListActivities(ctx, submissionID)
}
