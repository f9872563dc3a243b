// audit.go
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

	"github.com/localnerve/enrol-pipeline/internal/models"
)

func (s *GormStore) AppendHistory(ctx context.Context, h *models.StageHistory) error {
	return translate(s.write(ctx).Create(h).Error)
}

// ListHistory returns a submission's transitions, most recent first, with
// the name and color of both stages. A deleted stage leaves them empty.
func (s *GormStore) ListHistory(ctx context.Context, submissionID string) ([]models.StageHistory, error) {
	var history []models.StageHistory
	err := s.query(ctx, "history.list").
		Model(&models.StageHistory{}).
		Select("stage_history.*, " +
			"fs.name AS from_stage_name, fs.color AS from_stage_color, " +
			"ts.name AS to_stage_name, ts.color AS to_stage_color").
		Joins("LEFT JOIN pipeline_stages fs ON fs.id = stage_history.from_stage_id").
		Joins("LEFT JOIN pipeline_stages ts ON ts.id = stage_history.to_stage_id").
		Where("stage_history.submission_id = ?", submissionID).
		Order("stage_history.changed_at DESC").
		Find(&history).Error
	return history, translate(err)
}

func (s *GormStore) AppendActivity(ctx context.Context, a *models.Activity) error {
	return translate(s.write(ctx).Create(a).Error)
}

// ListActivities returns a submission's timeline, most recent first. Unbounded.
func (s *GormStore) ListActivities(ctx context.Context, submissionID string) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.query(ctx, "activities.list").
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, translate(err)
}
