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

package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"gorm.io/datatypes"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

const slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Slugify lowercases s and collapses every run of other characters to "-"
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func randomSuffix(pick func(int) int) string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = slugAlphabet[pick(len(slugAlphabet))]
	}
	return string(b)
}

// DefaultFields is the field set every new form starts with
func DefaultFields() []types.FormField {
	return []types.FormField{
		{ID: "full_name", Type: types.FieldText, Label: "Full Name", Required: true, Placeholder: "Jane Smith"},
		{ID: "email", Type: types.FieldEmail, Label: "Email Address", Required: true, Placeholder: "jane@example.com"},
	}
}

// Workspaces resolves the tenancy boundary of an actor
type Workspaces struct {
	store repository.WorkspaceStore
	pick  func(int) int
}

func NewWorkspaces(store repository.WorkspaceStore) *Workspaces {
	return &Workspaces{store: store, pick: rand.IntN}
}

// EnsureWorkspace returns the actor's workspace, creating it on first use
func (w *Workspaces) EnsureWorkspace(ctx context.Context, actor *Actor) (*models.Workspace, error) {
	if actor == nil || actor.ID == "" {
		return nil, invalid("An authenticated user is required")
	}

	ws, err := w.store.GetWorkspaceByOwner(ctx, actor.ID)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	name := "My Workspace"
	if local, _, ok := strings.Cut(actor.Email, "@"); ok && local != "" {
		name = local + "'s Workspace"
	}
	ws = &models.Workspace{
		Name:       name,
		Slug:       strings.Trim(Slugify(name)+"-"+randomSuffix(w.pick), "-"),
		OwnerID:    actor.ID,
		OwnerEmail: actor.Email,
	}
	if err := w.store.CreateWorkspace(ctx, ws); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// created concurrently by another request of the same owner
			return w.store.GetWorkspaceByOwner(ctx, actor.ID)
		}
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return ws, nil
}

// Forms manages form definitions within a workspace
type Forms struct {
	store repository.FormStore
	pick  func(int) int
}

func NewForms(store repository.FormStore) *Forms {
	return &Forms{store: store, pick: rand.IntN}
}

// CreateForm creates a form with the default fields and, in the same
// transaction, the default stages
func (f *Forms) CreateForm(ctx context.Context, workspaceID, title, description string) (*models.Form, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("Form title is required")
	}

	slug := Slugify(title)
	if slug != "" {
		slug += "-"
	}
	slug += randomSuffix(f.pick)

	form := &models.Form{
		WorkspaceID: workspaceID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Slug:        slug,
		Fields:      datatypes.NewJSONSlice(DefaultFields()),
		Settings: datatypes.NewJSONType(models.FormSettings{
			ConfirmationMessage: "Thank you for your application! We'll be in touch soon.",
		}),
	}
	stages := DefaultStages()
	if err := ValidateOrdering(stages); err != nil {
		return nil, fmt.Errorf("default stages: %w", err)
	}
	if err := f.store.CreateFormWithStages(ctx, form, stages); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	return form, nil
}

// ListForms returns the workspace's forms, newest first
func (f *Forms) ListForms(ctx context.Context, workspaceID string) ([]models.Form, error) {
	return f.store.ListForms(ctx, workspaceID)
}

// GetForm returns a form of the workspace
func (f *Forms) GetForm(ctx context.Context, workspaceID, id string) (*models.Form, error) {
	form, err := f.store.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	if form.WorkspaceID != workspaceID {
		return nil, ErrNotFound
	}
	return form, nil
}

// GetPublishedFormBySlug returns a public form. Unpublished forms are not found.
func (f *Forms) GetPublishedFormBySlug(ctx context.Context, slug string) (*models.Form, error) {
	form, err := f.store.GetFormBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !form.Published {
		return nil, ErrNotFound
	}
	return form, nil
}

// SetPublished toggles the public availability of a form
func (f *Forms) SetPublished(ctx context.Context, workspaceID, id string, published bool) (*models.Form, error) {
	form, err := f.GetForm(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if err := f.store.SetFormPublished(ctx, id, published); err != nil {
		return nil, fmt.Errorf("failed to update form: %w", err)
	}
	form.Published = published
	return form, nil
}

// UpdateFormDefinition replaces a form's fields and settings
func (f *Forms) UpdateFormDefinition(ctx context.Context, workspaceID, id string, fields []types.FormField, settings models.FormSettings) (*models.Form, error) {
	form, err := f.GetForm(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if err := types.ValidateFields(fields); err != nil {
		return nil, &ValidationError{Message: err.Error(), Cause: err}
	}
	if settings.NotifyEmail != "" && !strings.Contains(settings.NotifyEmail, "@") {
		return nil, invalid("Notify email must be an email address")
	}

	if err := f.store.UpdateFormDefinition(ctx, id, fields, settings); err != nil {
		return nil, fmt.Errorf("failed to update form: %w", err)
	}
	form.Fields = datatypes.NewJSONSlice(fields)
	form.Settings = datatypes.NewJSONType(settings)
	return form, nil
}
