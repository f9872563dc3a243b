// pipeline.go
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

	"github.com/localnerve/enrol-pipeline/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PipelineStage is one column of a form's pipeline
type PipelineStage struct {
	ID       string `gorm:"type:char(36);primaryKey" json:"id"`
	FormID   string `gorm:"type:char(36);not null;index:idx_stage_form_position,unique" json:"form_id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Slug     string `gorm:"size:100;not null" json:"slug"`
	Color    string `gorm:"size:16;not null" json:"color"`
	Position int    `gorm:"not null;index:idx_stage_form_position,unique" json:"position"`

	// TriggersEnrollment marks the stage whose arrival grants access to the
	// paired learning system.
	TriggersEnrollment bool      `gorm:"not null;default:false" json:"triggers_enrollment"`
	CreatedAt          time.Time `json:"created_at"`
}

// BeforeCreate assigns the primary key
func (s *PipelineStage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Submission is one applicant's filled-out form
type Submission struct {
	ID        string                            `gorm:"type:char(36);primaryKey" json:"id"`
	FormID    string                            `gorm:"type:char(36);not null;index" json:"form_id"`
	StageID   string                            `gorm:"type:char(36);not null;index" json:"stage_id"`
	Data      datatypes.JSONType[types.Answers] `json:"data"`
	Email     string                            `gorm:"size:320" json:"email,omitempty"`
	Name      string                            `gorm:"size:255" json:"name,omitempty"`
	Notes     string                            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time                         `gorm:"index" json:"created_at"`
	UpdatedAt time.Time                         `json:"updated_at"`
}

// BeforeCreate assigns the primary key
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Answers returns the typed field answers
func (s *Submission) Answers() types.Answers {
	return s.Data.Data()
}

// StageHistory records one stage transition of a submission
type StageHistory struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	SubmissionID string    `gorm:"type:char(36);not null;index" json:"submission_id"`
	FromStageID  *string   `gorm:"type:char(36)" json:"from_stage_id"`
	ToStageID    string    `gorm:"type:char(36);not null" json:"to_stage_id"`
	ChangedBy    *string   `gorm:"size:64" json:"changed_by,omitempty"`
	ChangedAt    time.Time `gorm:"not null;index" json:"changed_at"`

	// Display fields joined from pipeline_stages on read
	FromStageName  *string `gorm:"->;-:migration" json:"from_stage_name,omitempty"`
	FromStageColor *string `gorm:"->;-:migration" json:"from_stage_color,omitempty"`
	ToStageName    *string `gorm:"->;-:migration" json:"to_stage_name,omitempty"`
	ToStageColor   *string `gorm:"->;-:migration" json:"to_stage_color,omitempty"`
}

// BeforeCreate assigns the primary key
func (h *StageHistory) BeforeCreate(tx *gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

// ActivityType tags an Activity entry
type ActivityType string

const (
	ActivityStageChange ActivityType = "stage_change"
	ActivityNote        ActivityType = "note"
	ActivityManual      ActivityType = "manual"
	ActivityTagAdded    ActivityType = "tag_added"
	ActivityTagRemoved  ActivityType = "tag_removed"
	ActivityCreated     ActivityType = "created"
)

// Valid reports whether t is a known activity type
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityStageChange, ActivityNote, ActivityManual, ActivityTagAdded, ActivityTagRemoved, ActivityCreated:
		return true
	}
	return false
}

// Activity is an immutable timeline entry of a submission
type Activity struct {
	ID           string       `gorm:"type:char(36);primaryKey" json:"id"`
	SubmissionID string       `gorm:"type:char(36);not null;index" json:"submission_id"`
	Type         ActivityType `gorm:"size:32;not null" json:"type"`
	Description  string       `gorm:"type:text;not null" json:"description"`
	Metadata     JSON         `json:"metadata"`
	CreatedBy    *string      `gorm:"size:64" json:"created_by,omitempty"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns the primary key
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// TableName overrides the table name for PipelineStage
func (PipelineStage) TableName() string {
	return "pipeline_stages"
}

// TableName overrides the table name for Submission
func (Submission) TableName() string {
	return "submissions"
}

// TableName overrides the table name for StageHistory
func (StageHistory) TableName() string {
	return "stage_history"
}

// TableName overrides the table name for Activity
func (Activity) TableName() string {
	return "activities"
}
