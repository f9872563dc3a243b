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

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"github.com/localnerve/enrol-pipeline/internal/utils"
	"go.uber.org/zap"
)

// FormHandler serves workspaces, forms and their stages
type FormHandler struct {
	Workspaces *services.Workspaces
	Forms      *services.Forms
	Stages     *services.StageRegistry
	Log        *zap.Logger
}

// CreateFormInput is the body of POST /api/forms
type CreateFormInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateFormInput is the body of PUT /api/forms/:id
type UpdateFormInput struct {
	Fields   []types.FormField   `json:"fields"`
	Settings models.FormSettings `json:"settings"`
}

// PublishFormInput is the body of POST /api/forms/:id/publish
type PublishFormInput struct {
	Published *bool `json:"published"`
}

// GetWorkspace handles GET /api/workspace
// @Summary Get the caller's workspace
// @Description Returns the workspace owned by the caller, creating it on first use
// @Tags Workspace
// @Produce json
// @Success 200 {object} models.Workspace
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /workspace [get]
func (h *FormHandler) GetWorkspace(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "getWorkspace")
	}
	return utils.SuccessResponse(c, ws, fiber.StatusOK)
}

// ListForms handles GET /api/forms
// @Summary List forms
// @Description List the workspace's forms, newest first
// @Tags Forms
// @Produce json
// @Success 200 {array} models.Form
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /forms [get]
func (h *FormHandler) ListForms(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "listForms")
	}
	forms, err := h.Forms.ListForms(c.UserContext(), ws.ID)
	if err != nil {
		return respondError(c, h.Log, err, "listForms")
	}
	return utils.SuccessResponse(c, forms, fiber.StatusOK)
}

// CreateForm handles POST /api/forms
// @Summary Create a form
// @Description Create a form with the default fields and pipeline stages
// @Tags Forms
// @Accept json
// @Produce json
// @Param body body CreateFormInput true "Form title and description"
// @Success 201 {object} models.Form
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /forms [post]
func (h *FormHandler) CreateForm(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "createForm")
	}

	var in CreateFormInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}

	form, err := h.Forms.CreateForm(c.UserContext(), ws.ID, in.Title, in.Description)
	if err != nil {
		return respondError(c, h.Log, err, "createForm")
	}
	return utils.SuccessResponse(c, form, fiber.StatusCreated)
}

// GetForm handles GET /api/forms/:id
// @Summary Get a form
// @Tags Forms
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} models.Form
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /forms/{id} [get]
func (h *FormHandler) GetForm(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "getForm")
	}
	form, err := h.Forms.GetForm(c.UserContext(), ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "getForm")
	}
	return utils.SuccessResponse(c, form, fiber.StatusOK)
}

// UpdateForm handles PUT /api/forms/:id
// @Summary Update a form definition
// @Description Replace the form's fields and settings
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param body body UpdateFormInput true "Fields and settings"
// @Success 200 {object} models.Form
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /forms/{id} [put]
func (h *FormHandler) UpdateForm(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "updateForm")
	}

	var in UpdateFormInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}

	form, err := h.Forms.UpdateFormDefinition(c.UserContext(), ws.ID, c.Params("id"), in.Fields, in.Settings)
	if err != nil {
		return respondError(c, h.Log, err, "updateForm")
	}
	return utils.SuccessResponse(c, form, fiber.StatusOK)
}

// PublishForm handles POST /api/forms/:id/publish
// @Summary Publish or unpublish a form
// @Description An empty body publishes the form
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param body body PublishFormInput false "Published flag"
// @Success 200 {object} models.Form
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /forms/{id}/publish [post]
func (h *FormHandler) PublishForm(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "publishForm")
	}

	var in PublishFormInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, err)
		}
	}
	published := in.Published == nil || *in.Published

	form, err := h.Forms.SetPublished(c.UserContext(), ws.ID, c.Params("id"), published)
	if err != nil {
		return respondError(c, h.Log, err, "publishForm")
	}
	return utils.SuccessResponse(c, form, fiber.StatusOK)
}

// ListStages handles GET /api/forms/:id/stages
// @Summary List a form's pipeline stages
// @Description Stages ordered by position ascending
// @Tags Forms
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {array} models.PipelineStage
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /forms/{id}/stages [get]
func (h *FormHandler) ListStages(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "listStages")
	}
	form, err := h.Forms.GetForm(c.UserContext(), ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "listStages")
	}
	stages, err := h.Stages.List(c.UserContext(), form.ID)
	if err != nil {
		return respondError(c, h.Log, err, "listStages")
	}
	return utils.SuccessResponse(c, stages, fiber.StatusOK)
}
