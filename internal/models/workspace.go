// workspace.go
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

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ensureID assigns a new UUID when id is empty
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// Workspace is the tenancy boundary. Each owner identity owns exactly one.
type Workspace struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Slug       string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	OwnerID    string    `gorm:"size:64;uniqueIndex;not null" json:"owner_id"`
	OwnerEmail string    `gorm:"size:320" json:"owner_email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

// Branding holds the visual customization of a public form
type Branding struct {
	PrimaryColor string `json:"primaryColor,omitempty"`
	LogoURL      string `json:"logoUrl,omitempty"`
}

// FormSettings holds per-form behavior settings
type FormSettings struct {
	ConfirmationMessage string    `json:"confirmationMessage,omitempty"`
	NotifyEmail         string    `json:"notifyEmail,omitempty"`
	RedirectURL         string    `json:"redirectUrl,omitempty"`
	Branding            *Branding `json:"branding,omitempty"`
}

// Form is an application form owned by a workspace
type Form struct {
	ID          string                               `gorm:"type:char(36);primaryKey" json:"id"`
	WorkspaceID string                               `gorm:"type:char(36);not null;index" json:"workspace_id"`
	Title       string                               `gorm:"size:255;not null" json:"title"`
	Description string                               `gorm:"type:text" json:"description,omitempty"`
	Slug        string                               `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Fields      datatypes.JSONSlice[types.FormField] `json:"fields"`
	Settings    datatypes.JSONType[FormSettings]     `json:"settings"`
	Published   bool                                 `gorm:"not null;default:false" json:"published"`
	CreatedAt   time.Time                            `json:"created_at"`
	UpdatedAt   time.Time                            `json:"updated_at"`
	Stages      []PipelineStage                      `gorm:"foreignKey:FormID" json:"stages,omitempty"`
}

// BeforeCreate assigns the primary key
func (f *Form) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// FieldList returns the field definitions as a plain slice
func (f *Form) FieldList() []types.FormField {
	return []types.FormField(f.Fields)
}

// TableName overrides the table name for Workspace
func (Workspace) TableName() string {
	return "workspaces"
}

// TableName overrides the table name for Form
func (Form) TableName() string {
	return "forms"
}
