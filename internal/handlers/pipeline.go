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

package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/enrol-pipeline/internal/board"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/repository"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/utils"
	"go.uber.org/zap"
)

// PipelineHandler serves the per-form pipeline board
type PipelineHandler struct {
	Workspaces  *services.Workspaces
	Forms       *services.Forms
	Stages      *services.StageRegistry
	Submissions *services.Submissions
	Engine      *services.Engine
	Log         *zap.Logger
}

// BoardResponse is one form's board: its stages in order, each with its cards
type BoardResponse struct {
	Form    *models.Form   `json:"form"`
	Columns []board.Column `json:"columns"`
}

// DropInput is the body of POST /api/pipeline/drop. The target column is
// stage_id, or when absent the zone nearest to the dragged card's rect.
type DropInput struct {
	SubmissionID string           `json:"submission_id"`
	StageID      string           `json:"stage_id,omitempty"`
	Active       *board.Rect      `json:"active,omitempty"`
	Zones        []board.DropZone `json:"zones,omitempty"`
}

// DropResponse reports how a drop settled and the board afterwards
type DropResponse struct {
	Outcome string         `json:"outcome"`
	Columns []board.Column `json:"columns"`
}

// loadBoard builds a board controller over one form of the workspace
func (h *PipelineHandler) loadBoard(ctx context.Context, workspaceID, formID string, actor *services.Actor) (*models.Form, *board.Controller, error) {
	form, err := h.Forms.GetForm(ctx, workspaceID, formID)
	if err != nil {
		return nil, nil, err
	}
	stages, err := h.Stages.List(ctx, form.ID)
	if err != nil {
		return nil, nil, err
	}

	load := func(ctx context.Context) ([]models.Submission, error) {
		return h.Submissions.List(ctx, workspaceID, repository.SubmissionQuery{FormIDs: []string{form.ID}})
	}
	submissions, err := load(ctx)
	if err != nil {
		return nil, nil, err
	}

	return form, board.New(stages, submissions, h.Engine, load, actor, h.Log), nil
}

// GetBoard handles GET /api/pipeline?form_id=...
// @Summary Get a pipeline board
// @Description One form's stages with their applicants. Without form_id the newest form is shown.
// @Tags Pipeline
// @Produce json
// @Param form_id query string false "Form ID"
// @Success 200 {object} BoardResponse
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /pipeline [get]
func (h *PipelineHandler) GetBoard(c *fiber.Ctx) error {
	actor, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "getBoard")
	}

	ctx := c.UserContext()
	formID := c.Query("form_id")
	if formID == "" {
		forms, err := h.Forms.ListForms(ctx, ws.ID)
		if err != nil {
			return respondError(c, h.Log, err, "getBoard")
		}
		if len(forms) == 0 {
			return utils.SuccessResponse(c, BoardResponse{Columns: []board.Column{}}, fiber.StatusOK)
		}
		formID = forms[0].ID
	}

	form, ctrl, err := h.loadBoard(ctx, ws.ID, formID, actor)
	if err != nil {
		return respondError(c, h.Log, err, "getBoard")
	}
	return utils.SuccessResponse(c, BoardResponse{Form: form, Columns: ctrl.Columns()}, fiber.StatusOK)
}

// GetBoards handles GET /api/pipeline/boards
// @Summary Get every pipeline board
// @Description The boards of all the workspace's forms, newest form first
// @Tags Pipeline
// @Produce json
// @Success 200 {array} BoardResponse
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /pipeline/boards [get]
func (h *PipelineHandler) GetBoards(c *fiber.Ctx) error {
	actor, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "getBoards")
	}

	ctx := c.UserContext()
	forms, err := h.Forms.ListForms(ctx, ws.ID)
	if err != nil {
		return respondError(c, h.Log, err, "getBoards")
	}
	boards := make([]BoardResponse, 0, len(forms))
	if len(forms) == 0 {
		return utils.SuccessResponse(c, boards, fiber.StatusOK)
	}

	formIDs := make([]string, len(forms))
	for i := range forms {
		formIDs[i] = forms[i].ID
	}
	stages, err := h.Stages.ForForms(ctx, formIDs)
	if err != nil {
		return respondError(c, h.Log, err, "getBoards")
	}
	submissions, err := h.Submissions.List(ctx, ws.ID, repository.SubmissionQuery{FormIDs: formIDs})
	if err != nil {
		return respondError(c, h.Log, err, "getBoards")
	}
	byForm := make(map[string][]models.Submission, len(forms))
	for _, s := range submissions {
		byForm[s.FormID] = append(byForm[s.FormID], s)
	}

	for i := range forms {
		ctrl := board.New(stages[forms[i].ID], byForm[forms[i].ID], h.Engine, nil, actor, h.Log)
		boards = append(boards, BoardResponse{Form: &forms[i], Columns: ctrl.Columns()})
	}
	return utils.SuccessResponse(c, boards, fiber.StatusOK)
}

// Drop handles POST /api/pipeline/drop
// @Summary Drop a card on a column
// @Description Moves the applicant to the column it was dropped on. A failed move leaves the board as it was.
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param body body DropInput true "Dragged card and target"
// @Success 200 {object} DropResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /pipeline/drop [post]
func (h *PipelineHandler) Drop(c *fiber.Ctx) error {
	actor, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "drop")
	}

	var in DropInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}
	if in.SubmissionID == "" {
		return utils.ValidationErrorResponse(c, "submission_id is required", nil)
	}

	ctx := c.UserContext()
	submission, err := h.Submissions.Get(ctx, ws.ID, in.SubmissionID)
	if err != nil {
		return respondError(c, h.Log, err, "drop")
	}
	_, ctrl, err := h.loadBoard(ctx, ws.ID, submission.FormID, actor)
	if err != nil {
		return respondError(c, h.Log, err, "drop")
	}

	if err := ctrl.DragStart(submission.ID); err != nil {
		return respondError(c, h.Log, err, "drop")
	}

	var outcome board.Outcome
	if in.StageID == "" && in.Active != nil {
		outcome, err = ctrl.DropAt(ctx, *in.Active, in.Zones)
	} else {
		outcome, err = ctrl.Drop(ctx, in.StageID)
	}
	if err != nil {
		return respondError(c, h.Log, err, "drop")
	}

	return utils.SuccessResponse(c, DropResponse{Outcome: outcome.String(), Columns: ctrl.Columns()}, fiber.StatusOK)
}
