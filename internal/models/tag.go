package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Tag is a workspace-scoped label
type Tag struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	WorkspaceID string    `gorm:"type:char(36);not null;index:idx_tag_workspace_name,unique,priority:1" json:"workspace_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	NameKey     string    `gorm:"size:100;not null;index:idx_tag_workspace_name,unique,priority:2" json:"-"`
	Color       string    `gorm:"size:16;not null" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// TagNameKey is the case-folded form names are unique by within a workspace
func TagNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BeforeCreate assigns the primary key and the name key
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	t.NameKey = TagNameKey(t.Name)
	return nil
}

// SubmissionTag joins a tag to a submission. The pair is unique.
type SubmissionTag struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	SubmissionID string    `gorm:"type:char(36);not null;index:idx_submission_tag,unique" json:"submission_id"`
	TagID        string    `gorm:"type:char(36);not null;index:idx_submission_tag,unique" json:"tag_id"`
	CreatedAt    time.Time `json:"created_at"`
	Tag          *Tag      `gorm:"foreignKey:TagID" json:"tag,omitempty"`
}

// BeforeCreate assigns the primary key
func (st *SubmissionTag) BeforeCreate(tx *gorm.DB) error {
	ensureID(&st.ID)
	return nil
}

// TableName overrides the table name for Tag
func (Tag) TableName() string {
	return "tags"
}

// TableName overrides the table name for SubmissionTag
func (SubmissionTag) TableName() string {
	return "submission_tags"
}
