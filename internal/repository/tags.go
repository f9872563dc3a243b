// tags.go
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

// ListTags returns the workspace's tags alphabetically
func (s *GormStore) ListTags(ctx context.Context, workspaceID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.query(ctx, "tags.list").
		Where("workspace_id = ?", workspaceID).
		Order("name ASC").
		Find(&tags).Error
	return tags, translate(err)
}

func (s *GormStore) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	var tag models.Tag
	err := s.query(ctx, "tags.get").Where("id = ?", id).First(&tag).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

// FindTagByName matches name case-insensitively within the workspace
func (s *GormStore) FindTagByName(ctx context.Context, workspaceID, name string) (*models.Tag, error) {
	var tag models.Tag
	err := s.query(ctx, "tags.by_name").
		Where("workspace_id = ? AND name_key = ?", workspaceID, models.TagNameKey(name)).
		First(&tag).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

func (s *GormStore) CreateTag(ctx context.Context, tag *models.Tag) error {
	return translate(s.write(ctx).Create(tag).Error)
}

// RenameTag updates the name and its key; a name taken in the workspace
// surfaces as ErrDuplicate
func (s *GormStore) RenameTag(ctx context.Context, id, name string) error {
	return affected(s.write(ctx).Model(&models.Tag{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "name_key": models.TagNameKey(name)}))
}

// ListSubmissionTags returns the tags attached to a submission, alphabetically
func (s *GormStore) ListSubmissionTags(ctx context.Context, submissionID string) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.query(ctx, "submission_tags.list").
		Model(&models.Tag{}).
		Select("tags.*").
		Joins("JOIN submission_tags ON submission_tags.tag_id = tags.id").
		Where("submission_tags.submission_id = ?", submissionID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, translate(err)
}

func (s *GormStore) GetSubmissionTag(ctx context.Context, submissionID, tagID string) (*models.SubmissionTag, error) {
	var st models.SubmissionTag
	err := s.query(ctx, "submission_tags.get").
		Where("submission_id = ? AND tag_id = ?", submissionID, tagID).
		First(&st).Error
	if err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

// CreateSubmissionTag inserts an association; the unique index on
// (submission_id, tag_id) surfaces as ErrDuplicate
func (s *GormStore) CreateSubmissionTag(ctx context.Context, st *models.SubmissionTag) error {
	return translate(s.write(ctx).Create(st).Error)
}

// DeleteSubmissionTag removes an association and reports how many rows went
func (s *GormStore) DeleteSubmissionTag(ctx context.Context, submissionID, tagID string) (int64, error) {
	result := s.write(ctx).
		Where("submission_id = ? AND tag_id = ?", submissionID, tagID).
		Delete(&models.SubmissionTag{})
	return result.RowsAffected, translate(result.Error)
}
