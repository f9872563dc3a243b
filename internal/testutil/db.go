// Package testutil holds database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/localnerve/enrol-pipeline/internal/database"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB creates a migrated, isolated in-memory SQLite database
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// Fixture is a seeded workspace with one form and its stages
type Fixture struct {
	Workspace models.Workspace
	Form      models.Form
	Stages    []models.PipelineStage
}

// Stage returns the seeded stage with the given name
func (f *Fixture) Stage(name string) models.PipelineStage {
	for _, s := range f.Stages {
		if s.Name == name {
			return s
		}
	}
	panic("no stage named " + name)
}

// SeedWorkspace inserts a workspace owned by ownerID
func SeedWorkspace(t *testing.T, db *gorm.DB, ownerID string) models.Workspace {
	t.Helper()

	ws := models.Workspace{
		Name:    ownerID + "'s workspace",
		Slug:    "ws-" + uuid.NewString()[:8],
		OwnerID: ownerID,
	}
	if err := db.Create(&ws).Error; err != nil {
		t.Fatalf("Failed to seed workspace: %v", err)
	}
	return ws
}

// SeedForm inserts a form into ws with one stage per name, positioned in
// order. The last stage triggers enrollment when its name is "Enrolled".
func SeedForm(t *testing.T, db *gorm.DB, ws models.Workspace, title string, stageNames ...string) Fixture {
	t.Helper()

	form := models.Form{
		WorkspaceID: ws.ID,
		Title:       title,
		Slug:        "form-" + uuid.NewString()[:8],
		Fields: datatypes.NewJSONSlice([]types.FormField{
			{ID: "full_name", Type: types.FieldText, Label: "Full Name", Required: true},
			{ID: "email", Type: types.FieldEmail, Label: "Email Address", Required: true},
		}),
		Settings:  datatypes.NewJSONType(models.FormSettings{NotifyEmail: "owner@example.com"}),
		Published: true,
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("Failed to seed form: %v", err)
	}

	stages := make([]models.PipelineStage, 0, len(stageNames))
	for i, name := range stageNames {
		stage := models.PipelineStage{
			FormID:             form.ID,
			Name:               name,
			Slug:               fmt.Sprintf("stage-%d", i),
			Color:              "#6B7280",
			Position:           i,
			TriggersEnrollment: name == "Enrolled",
		}
		if err := db.Create(&stage).Error; err != nil {
			t.Fatalf("Failed to seed stage %s: %v", name, err)
		}
		stages = append(stages, stage)
	}

	return Fixture{Workspace: ws, Form: form, Stages: stages}
}

// SeedSubmission inserts a submission into stage
func SeedSubmission(t *testing.T, db *gorm.DB, stage models.PipelineStage, name, email string) models.Submission {
	t.Helper()

	submission := models.Submission{
		FormID:  stage.FormID,
		StageID: stage.ID,
		Data: datatypes.NewJSONType(types.Answers{
			"full_name": types.TextValue(name),
			"email":     types.TextValue(email),
		}),
		Name:  name,
		Email: email,
	}
	if err := db.Create(&submission).Error; err != nil {
		t.Fatalf("Failed to seed submission: %v", err)
	}
	return submission
}
