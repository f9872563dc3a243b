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

package repository

import (
	"context"
	"strings"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/models"
)

// ListStages returns a form's stages ordered by position ascending
func (s *GormStore) ListStages(ctx context.Context, formID string) ([]models.PipelineStage, error) {
	var stages []models.PipelineStage
	err := s.query(ctx, "stages.list").
		Where("form_id = ?", formID).
		Order("position ASC").
		Find(&stages).Error
	return stages, translate(err)
}

// ListStagesForForms returns the stages of every given form, grouped by form
// and ordered by position within each
func (s *GormStore) ListStagesForForms(ctx context.Context, formIDs []string) ([]models.PipelineStage, error) {
	var stages []models.PipelineStage
	if len(formIDs) == 0 {
		return stages, nil
	}
	err := s.query(ctx, "stages.for_forms").
		Where("form_id IN ?", formIDs).
		Order("form_id ASC").
		Order("position ASC").
		Find(&stages).Error
	return stages, translate(err)
}

func (s *GormStore) GetStage(ctx context.Context, id string) (*models.PipelineStage, error) {
	var stage models.PipelineStage
	err := s.query(ctx, "stages.get").Where("id = ?", id).First(&stage).Error
	if err != nil {
		return nil, translate(err)
	}
	return &stage, nil
}

// ListSubmissions returns submissions of the given forms, newest first
func (s *GormStore) ListSubmissions(ctx context.Context, q SubmissionQuery) ([]models.Submission, error) {
	var submissions []models.Submission
	if len(q.FormIDs) == 0 {
		return submissions, nil
	}

	query := s.query(ctx, "submissions.list").
		Model(&models.Submission{}).
		Select("submissions.*").
		Where("submissions.form_id IN ?", q.FormIDs)

	if q.StageID != "" {
		query = query.Where("submissions.stage_id = ?", q.StageID)
	}
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		like := "%" + search + "%"
		query = query.
			Joins("LEFT JOIN forms ON forms.id = submissions.form_id").
			Where("LOWER(submissions.name) LIKE ? OR LOWER(submissions.email) LIKE ? OR LOWER(forms.title) LIKE ?", like, like, like)
	}

	err := query.
		Order("submissions.created_at DESC").
		Order("submissions.id DESC").
		Find(&submissions).Error
	return submissions, translate(err)
}

func (s *GormStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var submission models.Submission
	err := s.query(ctx, "submissions.get").Where("id = ?", id).First(&submission).Error
	if err != nil {
		return nil, translate(err)
	}
	return &submission, nil
}

func (s *GormStore) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	return translate(s.write(ctx).Create(submission).Error)
}

// UpdateSubmissionStage writes stage_id and updated_at only
func (s *GormStore) UpdateSubmissionStage(ctx context.Context, id, stageID string, at time.Time) error {
	return affected(s.write(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stage_id":   stageID,
			"updated_at": at,
		}))
}

// UpdateSubmissionNotes writes notes and updated_at only
func (s *GormStore) UpdateSubmissionNotes(ctx context.Context, id, notes string, at time.Time) error {
	return affected(s.write(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notes":      notes,
			"updated_at": at,
		}))
}
