// store.go
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
	"errors"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/hints"
)

var (
	// ErrNotFound is returned when a single-row lookup matches nothing
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert
	ErrDuplicate = errors.New("duplicate record")
)

// SubmissionQuery filters an applicant listing
type SubmissionQuery struct {
	FormIDs []string
	StageID string
	Search  string
}

// WorkspaceStore reads and creates tenancy boundaries
type WorkspaceStore interface {
	GetWorkspace(ctx context.Context, id string) (*models.Workspace, error)
	GetWorkspaceByOwner(ctx context.Context, ownerID string) (*models.Workspace, error)
	CreateWorkspace(ctx context.Context, ws *models.Workspace) error
}

// FormStore reads and writes form definitions
type FormStore interface {
	ListForms(ctx context.Context, workspaceID string) ([]models.Form, error)
	GetForm(ctx context.Context, id string) (*models.Form, error)
	GetFormBySlug(ctx context.Context, slug string) (*models.Form, error)
	CreateFormWithStages(ctx context.Context, form *models.Form, stages []models.PipelineStage) error
	SetFormPublished(ctx context.Context, id string, published bool) error
	UpdateFormDefinition(ctx context.Context, id string, fields []types.FormField, settings models.FormSettings) error
}

// StageStore reads pipeline stages
type StageStore interface {
	ListStages(ctx context.Context, formID string) ([]models.PipelineStage, error)
	ListStagesForForms(ctx context.Context, formIDs []string) ([]models.PipelineStage, error)
	GetStage(ctx context.Context, id string) (*models.PipelineStage, error)
}

// SubmissionStore reads submissions and performs the narrow single-field
// writes on them. Writes are unconditioned on prior state.
type SubmissionStore interface {
	ListSubmissions(ctx context.Context, q SubmissionQuery) ([]models.Submission, error)
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	CreateSubmission(ctx context.Context, s *models.Submission) error
	UpdateSubmissionStage(ctx context.Context, id, stageID string, at time.Time) error
	UpdateSubmissionNotes(ctx context.Context, id, notes string, at time.Time) error
}

// HistoryStore is the append-only stage transition log
type HistoryStore interface {
	AppendHistory(ctx context.Context, h *models.StageHistory) error
	ListHistory(ctx context.Context, submissionID string) ([]models.StageHistory, error)
}

// ActivityStore is the append-only submission timeline
type ActivityStore interface {
	AppendActivity(ctx context.Context, a *models.Activity) error
	ListActivities(ctx context.Context, submissionID string) ([]models.Activity, error)
}

// TagStore manages workspace tags and their submission associations
type TagStore interface {
	ListTags(ctx context.Context, workspaceID string) ([]models.Tag, error)
	GetTag(ctx context.Context, id string) (*models.Tag, error)
	FindTagByName(ctx context.Context, workspaceID, name string) (*models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) error
	RenameTag(ctx context.Context, id, name string) error
	ListSubmissionTags(ctx context.Context, submissionID string) ([]models.Tag, error)
	GetSubmissionTag(ctx context.Context, submissionID, tagID string) (*models.SubmissionTag, error)
	CreateSubmissionTag(ctx context.Context, st *models.SubmissionTag) error
	DeleteSubmissionTag(ctx context.Context, submissionID, tagID string) (int64, error)
}

// Store is the full persistence boundary of the pipeline
type Store interface {
	WorkspaceStore
	FormStore
	StageStore
	SubmissionStore
	HistoryStore
	ActivityStore
	TagStore
}

// GormStore implements Store over gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// WithTx returns a store bound to the given transaction
func (s *GormStore) WithTx(tx *gorm.DB) *GormStore {
	if tx == nil {
		return s
	}
	return &GormStore{db: tx}
}

func (s *GormStore) query(ctx context.Context, name string) *gorm.DB {
	return s.db.WithContext(ctx).Clauses(hints.CommentBefore("select", "enrol:"+name))
}

func (s *GormStore) write(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps gorm errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// affected turns a zero-row update into ErrNotFound
func affected(result *gorm.DB) error {
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// jsonSlice converts field definitions for a column update
func jsonSlice(fields []types.FormField) datatypes.JSONSlice[types.FormField] {
	if fields == nil {
		fields = []types.FormField{}
	}
	return datatypes.NewJSONSlice(fields)
}

var _ Store = (*GormStore)(nil)
