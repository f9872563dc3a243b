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

package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/localnerve/enrol-pipeline/internal/logger"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"go.uber.org/zap"
)

// TagPalette is the fixed set of colors new tags are drawn from
var TagPalette = []string{
	"#EF4444", // red
	"#F97316", // orange
	"#F59E0B", // amber
	"#84CC16", // lime
	"#22C55E", // green
	"#14B8A6", // teal
	"#06B6D4", // cyan
	"#3B82F6", // blue
	"#8B5CF6", // violet
	"#EC4899", // pink
}

// TagManager manages workspace tags and their attachment to submissions
type TagManager struct {
	store    repository.TagStore
	activity *ActivityLog
	log      *zap.Logger
	pick     func(n int) int
}

func NewTagManager(store repository.TagStore, activity *ActivityLog, log *zap.Logger) *TagManager {
	return &TagManager{
		store:    store,
		activity: activity,
		log:      logger.OrNop(log),
		pick:     rand.IntN,
	}
}

// ListWorkspaceTags returns the workspace's tags alphabetically
func (m *TagManager) ListWorkspaceTags(ctx context.Context, workspaceID string) ([]models.Tag, error) {
	return m.store.ListTags(ctx, workspaceID)
}

// ListSubmissionTags returns the tags attached to a submission
func (m *TagManager) ListSubmissionTags(ctx context.Context, submissionID string) ([]models.Tag, error) {
	return m.store.ListSubmissionTags(ctx, submissionID)
}

// CreateTag creates a tag in the workspace and attaches it to the
// submission. A tag of the same name (case-insensitive) is reused.
func (m *TagManager) CreateTag(ctx context.Context, workspaceID, submissionID, name string, actor *Actor) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("Tag name is required")
	}

	tag, err := m.store.FindTagByName(ctx, workspaceID, name)
	if errors.Is(err, repository.ErrNotFound) {
		tag = &models.Tag{
			WorkspaceID: workspaceID,
			Name:        name,
			Color:       TagPalette[m.pick(len(TagPalette))],
		}
		err = m.store.CreateTag(ctx, tag)
		if errors.Is(err, repository.ErrDuplicate) {
			// created concurrently under the same name
			tag, err = m.store.FindTagByName(ctx, workspaceID, name)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	if _, err := m.attach(ctx, submissionID, tag, actor); err != nil {
		return nil, err
	}
	return tag, nil
}

// Attach associates an existing tag with a submission. Attaching a tag that
// is already attached writes nothing and reports false.
func (m *TagManager) Attach(ctx context.Context, submissionID, tagID string, actor *Actor) (*models.Tag, bool, error) {
	tag, err := m.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, false, err
	}
	attached, err := m.attach(ctx, submissionID, tag, actor)
	return tag, attached, err
}

func (m *TagManager) attach(ctx context.Context, submissionID string, tag *models.Tag, actor *Actor) (bool, error) {
	_, err := m.store.GetSubmissionTag(ctx, submissionID, tag.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to read tag association: %w", err)
	}

	err = m.store.CreateSubmissionTag(ctx, &models.SubmissionTag{SubmissionID: submissionID, TagID: tag.ID})
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race with a concurrent attach
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to attach tag: %w", err)
	}

	m.activity.Record(ctx, submissionID, models.ActivityTagAdded, "Added tag: "+tag.Name, tagMetadata(tag), actor)
	return true, nil
}

// Detach removes a tag from a submission. Removing an absent association
// writes nothing and reports false.
func (m *TagManager) Detach(ctx context.Context, submissionID, tagID string, actor *Actor) (bool, error) {
	tag, err := m.store.GetTag(ctx, tagID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	n, err := m.store.DeleteSubmissionTag(ctx, submissionID, tagID)
	if err != nil {
		return false, fmt.Errorf("failed to detach tag: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	m.activity.Record(ctx, submissionID, models.ActivityTagRemoved, "Removed tag: "+tag.Name, tagMetadata(tag), actor)
	return true, nil
}

// Rename changes a tag's name. Past activity entries keep the old name.
func (m *TagManager) Rename(ctx context.Context, workspaceID, tagID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("Tag name is required")
	}

	tag, err := m.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if tag.WorkspaceID != workspaceID {
		return nil, ErrNotFound
	}
	if tag.Name == name {
		return tag, nil
	}

	existing, err := m.store.FindTagByName(ctx, workspaceID, name)
	if err == nil && existing.ID != tagID {
		return nil, fmt.Errorf("%q: %w", name, ErrDuplicateTag)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	err = m.store.RenameTag(ctx, tagID, name)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%q: %w", name, ErrDuplicateTag)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rename tag: %w", err)
	}
	tag.Name = name
	return tag, nil
}

// TagInWorkspace returns ErrNotFound unless tagID belongs to workspaceID
func (m *TagManager) TagInWorkspace(ctx context.Context, workspaceID, tagID string) error {
	tag, err := m.store.GetTag(ctx, tagID)
	if err != nil {
		return err
	}
	if tag.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	return nil
}

// tagMetadata captures the tag name at the time of the action
func tagMetadata(tag *models.Tag) map[string]any {
	return map[string]any{
		"tag_id":   tag.ID,
		"tag_name": tag.Name,
	}
}
