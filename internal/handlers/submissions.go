// submissions.go
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
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/utils"
	"go.uber.org/zap"
)

// SubmissionHandler serves applicant records, their transitions and timeline
type SubmissionHandler struct {
	Workspaces  *services.Workspaces
	Submissions *services.Submissions
	Engine      *services.Engine
	Activity    *services.ActivityLog
	Log         *zap.Logger
}

// SubmitResponse is the body returned by the public ingestion endpoint
type SubmitResponse struct {
	Success    bool              `json:"success"`
	Submission models.Submission `json:"submission"`
}

// NotesInput is the body of PUT /api/submissions/:id/notes
type NotesInput struct {
	Notes string `json:"notes"`
}

// TransitionInput is the body of POST /api/submissions/:id/transition
type TransitionInput struct {
	StageID string `json:"stage_id"`
}

// ActivityInput is the body of POST /api/submissions/:id/activities
type ActivityInput struct {
	Description string `json:"description"`
}

// Submit handles POST /api/submissions
// @Summary Submit an application
// @Description Public ingestion endpoint. form_id and data are required.
// @Tags Public
// @Accept json
// @Produce json
// @Param body body services.SubmitInput true "Submission"
// @Success 201 {object} SubmitResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	var in services.SubmitInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}

	submission, err := h.Submissions.Submit(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.Log, err, "submit")
	}
	return utils.SuccessResponse(c, SubmitResponse{Success: true, Submission: *submission}, fiber.StatusCreated)
}

// ListSubmissions handles GET /api/submissions?form_ids=...&stage_id=...&q=...
// @Summary List applicants
// @Description Submissions of the workspace's forms, newest first
// @Tags Submissions
// @Produce json
// @Param form_ids query string false "Comma-separated form ids"
// @Param stage_id query string false "Stage filter"
// @Param q query string false "Search on name, email and form title"
// @Success 200 {array} models.Submission
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "listSubmissions")
	}

	list, err := h.Submissions.List(c.UserContext(), ws.ID, repository.SubmissionQuery{
		FormIDs: parseList(c, "form_ids"),
		StageID: c.Query("stage_id"),
		Search:  c.Query("q"),
	})
	if err != nil {
		return respondError(c, h.Log, err, "listSubmissions")
	}
	return utils.SuccessResponse(c, list, fiber.StatusOK)
}

// GetSubmission handles GET /api/submissions/:id
// @Summary Get an applicant
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "getSubmission")
	}
	submission, err := h.Submissions.Get(c.UserContext(), ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "getSubmission")
	}
	return utils.SuccessResponse(c, submission, fiber.StatusOK)
}

// UpdateNotes handles PUT /api/submissions/:id/notes
// @Summary Save an applicant's notes
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body NotesInput true "Notes"
// @Success 200 {object} models.Submission
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/notes [put]
func (h *SubmissionHandler) UpdateNotes(c *fiber.Ctx) error {
	actor, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "updateNotes")
	}

	var in NotesInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}

	submission, err := h.Submissions.UpdateNotes(c.UserContext(), ws.ID, c.Params("id"), in.Notes, actor)
	if err != nil {
		return respondError(c, h.Log, err, "updateNotes")
	}
	return utils.SuccessResponse(c, submission, fiber.StatusOK)
}

// Transition handles POST /api/submissions/:id/transition
// @Summary Move an applicant to another stage
// @Description Moving to the current stage changes nothing. Stages of another form are rejected.
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body TransitionInput true "Target stage"
// @Success 200 {object} services.TransitionResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/transition [post]
func (h *SubmissionHandler) Transition(c *fiber.Ctx) error {
	actor, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "transition")
	}

	var in TransitionInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	if in.StageID == "" {
		return utils.ValidationErrorResponse(c, "stage_id is required", nil)
	}

	submission, err := h.Submissions.Get(c.UserContext(), ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "transition")
	}

	res, err := h.Engine.Transition(c.UserContext(), submission.ID, in.StageID, actor)
	if err != nil {
		return respondError(c, h.Log, err, "transition")
	}
	return utils.SuccessResponse(c, res, fiber.StatusOK)
}

// ListHistory handles GET /api/submissions/:id/history
// @Summary List an applicant's stage history
// @Description Most recent first
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {array} models.StageHistory
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/history [get]
func (h *SubmissionHandler) ListHistory(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "listHistory")
	}
	submission, err := h.Submissions.Get(c.UserContext(), ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "listHistory")
	}
	history, err := h.Engine.History(c.UserContext(), submission.ID)
	if err != nil {
		return respondError(c, h.Log, err, "listHistory")
	}
	return utils.SuccessResponse(c, history, fiber.StatusOK)
}

// ListActivities handles GET /api/submissions/:id/activities
// @Summary List an applicant's activity timeline
// @Description Most recent first
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {array} models.Activity
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/activities [get]
func (h *SubmissionHandler) ListActivities(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "listActivities")
	}
	submission, err := h.Submissions.Get(c.UserContext(), ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "listActivities")
	}
	activities, err := h.Activity.List(c.UserContext(), submission.ID)
	if err != nil {
		return respondError(c, h.Log, err, "listActivities")
	}
	return utils.SuccessResponse(c, activities, fiber.StatusOK)
}

// AddActivity handles POST /api/submissions/:id/activities
// @Summary Add a manual timeline entry
// @Description Whitespace-only text is rejected
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body ActivityInput true "Entry text"
// @Success 201 {object} models.Activity
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/activities [post]
func (h *SubmissionHandler) AddActivity(c *fiber.Ctx) error {
	actor, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "addActivity")
	}

	var in ActivityInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}

	submission, err := h.Submissions.Get(c.UserContext(), ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "addActivity")
	}
	entry, err := h.Activity.AddManual(c.UserContext(), submission.ID, in.Description, actor)
	if err != nil {
		return respondError(c, h.Log, err, "addActivity")
	}
	return utils.SuccessResponse(c, entry, fiber.StatusCreated)
}
