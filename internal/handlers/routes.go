// routes.go
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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/localnerve/enrol-pipeline/internal/metrics"
	"github.com/localnerve/enrol-pipeline/internal/notify"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handlers groups every route handler of the API
type Handlers struct {
	Forms       *FormHandler
	Submissions *SubmissionHandler
	Pipeline    *PipelineHandler
	Tags        *TagHandler
	Public      *PublicHandler

	submissions *services.Submissions
	engine      *services.Engine
}

// Deps are the collaborators the services are built from
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Metrics    *metrics.Metrics
	Notifier   notify.Notifier
	Enrollment notify.EnrollmentPublisher
}

// New builds the services over d and the handlers over them. Call Drain on
// shutdown.
func New(d Deps) *Handlers {
	store := repository.NewGormStore(d.DB)

	workspaces := services.NewWorkspaces(store)
	forms := services.NewForms(store)
	stages := services.NewStageRegistry(store)
	activity := services.NewActivityLog(store, d.Log, d.Metrics)
	engine := services.NewEngine(store, activity, d.Enrollment, d.Log, d.Metrics)
	tags := services.NewTagManager(store, activity, d.Log)

	appURL := ""
	if d.Config != nil {
		appURL = d.Config.AppURL
	}
	submissions := services.NewSubmissions(store, stages, activity, d.Notifier, appURL, d.Log, d.Metrics)

	return &Handlers{
		Forms: &FormHandler{
			Workspaces: workspaces,
			Forms:      forms,
			Stages:     stages,
			Log:        d.Log,
		},
		Submissions: &SubmissionHandler{
			Workspaces:  workspaces,
			Submissions: submissions,
			Engine:      engine,
			Activity:    activity,
			Log:         d.Log,
		},
		Pipeline: &PipelineHandler{
			Workspaces:  workspaces,
			Forms:       forms,
			Stages:      stages,
			Submissions: submissions,
			Engine:      engine,
			Log:         d.Log,
		},
		Tags: &TagHandler{
			Workspaces:  workspaces,
			Submissions: submissions,
			Tags:        tags,
			Log:         d.Log,
		},
		Public: &PublicHandler{
			Forms:  forms,
			Config: d.Config,
			DB:     d.DB,
			Log:    d.Log,
		},
		submissions: submissions,
		engine:      engine,
	}
}

// Drain waits for the owner notifications and enrollment events still in flight
func (h *Handlers) Drain() {
	h.submissions.Drain()
	h.engine.Drain()
}

// Register mounts the API under api. auth guards every non-public route.
func (h *Handlers) Register(api fiber.Router, auth fiber.Handler) {
	// Public routes
	api.Post("/submissions", h.Submissions.Submit)
	api.Get("/public/forms/:slug", h.Public.GetPublicForm)

	api.Get("/workspace", auth, h.Forms.GetWorkspace)

	api.Get("/forms", auth, h.Forms.ListForms)
	api.Post("/forms", auth, h.Forms.CreateForm)
	api.Get("/forms/:id", auth, h.Forms.GetForm)
	api.Put("/forms/:id", auth, h.Forms.UpdateForm)
	api.Post("/forms/:id/publish", auth, h.Forms.PublishForm)
	api.Get("/forms/:id/stages", auth, h.Forms.ListStages)

	api.Get("/pipeline", auth, h.Pipeline.GetBoard)
	api.Get("/pipeline/boards", auth, h.Pipeline.GetBoards)
	api.Post("/pipeline/drop", auth, h.Pipeline.Drop)

	api.Get("/submissions", auth, h.Submissions.ListSubmissions)
	api.Get("/submissions/:id", auth, h.Submissions.GetSubmission)
	api.Put("/submissions/:id/notes", auth, h.Submissions.UpdateNotes)
	api.Post("/submissions/:id/transition", auth, h.Submissions.Transition)
	api.Get("/submissions/:id/history", auth, h.Submissions.ListHistory)
	api.Get("/submissions/:id/activities", auth, h.Submissions.ListActivities)
	api.Post("/submissions/:id/activities", auth, h.Submissions.AddActivity)

	api.Get("/submissions/:id/tags", auth, h.Tags.ListSubmissionTags)
	api.Post("/submissions/:id/tags", auth, h.Tags.AddSubmissionTag)
	api.Delete("/submissions/:id/tags/:tagId", auth, h.Tags.RemoveSubmissionTag)

	api.Get("/tags", auth, h.Tags.ListTags)
	api.Patch("/tags/:id", auth, h.Tags.RenameTag)
}
