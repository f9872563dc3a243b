// stages.go
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

	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/repository"
)

// StageRegistry answers questions about a form's ordered stages
type StageRegistry struct {
	store repository.StageStore
}

func NewStageRegistry(store repository.StageStore) *StageRegistry {
	return &StageRegistry{store: store}
}

// DefaultStages is the stage set every new form starts with
func DefaultStages() []models.PipelineStage {
	return []models.PipelineStage{
		{Name: "New", Slug: "new", Color: "#6B7280", Position: 0},
		{Name: "Reviewing", Slug: "reviewing", Color: "#F59E0B", Position: 1},
		{Name: "Accepted", Slug: "accepted", Color: "#10B981", Position: 2},
		{Name: "Enrolled", Slug: "enrolled", Color: "#3B82F6", Position: 3, TriggersEnrollment: true},
	}
}

// List returns the form's stages ordered by position ascending
func (r *StageRegistry) List(ctx context.Context, formID string) ([]models.PipelineStage, error) {
	return r.store.ListStages(ctx, formID)
}

// Initial returns the position 0 stage of the form
func (r *StageRegistry) Initial(ctx context.Context, formID string) (*models.PipelineStage, error) {
	stages, err := r.store.ListStages(ctx, formID)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 || stages[0].Position != 0 {
		return nil, fmt.Errorf("form %s has no initial stage: %w", formID, ErrNotFound)
	}
	return &stages[0], nil
}

// ForForms returns each form's ordered stages keyed by form id
func (r *StageRegistry) ForForms(ctx context.Context, formIDs []string) (map[string][]models.PipelineStage, error) {
	stages, err := r.store.ListStagesForForms(ctx, formIDs)
	if err != nil {
		return nil, err
	}
	byForm := make(map[string][]models.PipelineStage, len(formIDs))
	for _, s := range stages {
		byForm[s.FormID] = append(byForm[s.FormID], s)
	}
	return byForm, nil
}

// ValidateOrdering checks that positions are unique and gapless from 0 and
// that every stage belongs to the same form. stages must be sorted by position.
func ValidateOrdering(stages []models.PipelineStage) error {
	for i, s := range stages {
		if s.Position != i {
			return fmt.Errorf("stage %q has position %d, expected %d", s.Name, s.Position, i)
		}
		if s.FormID != stages[0].FormID {
			return fmt.Errorf("stage %q belongs to form %s, expected %s", s.Name, s.FormID, stages[0].FormID)
		}
	}
	return nil
}
