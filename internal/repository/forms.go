// forms.go
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
	"time"

	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *GormStore) GetWorkspace(ctx context.Context, id string) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.query(ctx, "workspace.get").Where("id = ?", id).First(&ws).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}

func (s *GormStore) GetWorkspaceByOwner(ctx context.Context, ownerID string) (*models.Workspace, error) {
	var ws models.Workspace
	err := s.query(ctx, "workspace.by_owner").Where("owner_id = ?", ownerID).First(&ws).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ws, nil
}

func (s *GormStore) CreateWorkspace(ctx context.Context, ws *models.Workspace) error {
	return translate(s.write(ctx).Create(ws).Error)
}

// ListForms returns the workspace's forms, newest first
func (s *GormStore) ListForms(ctx context.Context, workspaceID string) ([]models.Form, error) {
	var forms []models.Form
	err := s.query(ctx, "forms.list").
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&forms).Error
	return forms, translate(err)
}

func (s *GormStore) GetForm(ctx context.Context, id string) (*models.Form, error) {
	var form models.Form
	err := s.query(ctx, "forms.get").Where("id = ?", id).First(&form).Error
	if err != nil {
		return nil, translate(err)
	}
	return &form, nil
}

func (s *GormStore) GetFormBySlug(ctx context.Context, slug string) (*models.Form, error) {
	var form models.Form
	err := s.query(ctx, "forms.by_slug").Where("slug = ?", slug).First(&form).Error
	if err != nil {
		return nil, translate(err)
	}
	return &form, nil
}

// CreateFormWithStages inserts a form and its stages in one transaction
func (s *GormStore) CreateFormWithStages(ctx context.Context, form *models.Form, stages []models.PipelineStage) error {
	return s.write(ctx).Transaction(func(tx *gorm.DB) error {
		ts := s.WithTx(tx)
		if err := ts.write(ctx).Create(form).Error; err != nil {
			return translate(err)
		}
		for i := range stages {
			stages[i].FormID = form.ID
		}
		if len(stages) > 0 {
			if err := ts.write(ctx).Create(&stages).Error; err != nil {
				return translate(err)
			}
		}
		form.Stages = stages
		return nil
	})
}

func (s *GormStore) SetFormPublished(ctx context.Context, id string, published bool) error {
	return affected(s.write(ctx).Model(&models.Form{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"published":  published,
			"updated_at": time.Now().UTC(),
		}))
}

func (s *GormStore) UpdateFormDefinition(ctx context.Context, id string, fields []types.FormField, settings models.FormSettings) error {
	return affected(s.write(ctx).Model(&models.Form{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"fields":     jsonSlice(fields),
			"settings":   datatypes.NewJSONType(settings),
			"updated_at": time.Now().UTC(),
		}))
}
