// tags.go
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
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/utils"
	"go.uber.org/zap"
)

// TagHandler serves workspace tags and their attachment to applicants
type TagHandler struct {
	Workspaces  *services.Workspaces
	Submissions *services.Submissions
	Tags        *services.TagManager
	Log         *zap.Logger
}

// AddTagInput is the body of POST /api/submissions/:id/tags. Either an
// existing tag_id or a name for a new tag.
type AddTagInput struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
}

// RenameTagInput is the body of PATCH /api/tags/:id
type RenameTagInput struct {
	Name string `json:"name"`
}

// ListTags handles GET /api/tags
// @Summary List workspace tags
// @Description Alphabetical
// @Tags Tags
// @Produce json
// @Success 200 {array} models.Tag
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /tags [get]
func (h *TagHandler) ListTags(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "listTags")
	}
	tags, err := h.Tags.ListWorkspaceTags(c.UserContext(), ws.ID)
	if err != nil {
		return respondError(c, h.Log, err, "listTags")
	}
	return utils.SuccessResponse(c, tags, fiber.StatusOK)
}

// RenameTag handles PATCH /api/tags/:id
// @Summary Rename a tag
// @Description Past activity entries keep the name the tag had then
// @Tags Tags
// @Accept json
// @Produce json
// @Param id path string true "Tag ID"
// @Param body body RenameTagInput true "New name"
// @Success 200 {object} models.Tag
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /tags/{id} [patch]
func (h *TagHandler) RenameTag(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "renameTag")
	}

	var in RenameTagInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}

	tag, err := h.Tags.Rename(c.UserContext(), ws.ID, c.Params("id"), in.Name)
	if err != nil {
		return respondError(c, h.Log, err, "renameTag")
	}
	return utils.SuccessResponse(c, tag, fiber.StatusOK)
}

// ListSubmissionTags handles GET /api/submissions/:id/tags
// @Summary List an applicant's tags
// @Tags Tags
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {array} models.Tag
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/tags [get]
func (h *TagHandler) ListSubmissionTags(c *fiber.Ctx) error {
	_, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "listSubmissionTags")
	}
	submission, err := h.Submissions.Get(c.UserContext(), ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "listSubmissionTags")
	}
	tags, err := h.Tags.ListSubmissionTags(c.UserContext(), submission.ID)
	if err != nil {
		return respondError(c, h.Log, err, "listSubmissionTags")
	}
	return utils.SuccessResponse(c, tags, fiber.StatusOK)
}

// AddSubmissionTag handles POST /api/submissions/:id/tags
// @Summary Tag an applicant
// @Description Attach an existing tag by tag_id, or create one by name. Attaching twice is a no-op.
// @Tags Tags
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param body body AddTagInput true "Tag id or new tag name"
// @Success 200 {object} models.Tag
// @Success 201 {object} models.Tag
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/tags [post]
func (h *TagHandler) AddSubmissionTag(c *fiber.Ctx) error {
	actor, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "addSubmissionTag")
	}

	var in AddTagInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, err)
	}

	ctx := c.UserContext()
	submission, err := h.Submissions.Get(ctx, ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "addSubmissionTag")
	}

	if strings.TrimSpace(in.TagID) == "" {
		tag, err := h.Tags.CreateTag(ctx, ws.ID, submission.ID, in.Name, actor)
		if err != nil {
			return respondError(c, h.Log, err, "addSubmissionTag")
		}
		return utils.SuccessResponse(c, tag, fiber.StatusCreated)
	}

	if err := h.Tags.TagInWorkspace(ctx, ws.ID, in.TagID); err != nil {
		return respondError(c, h.Log, err, "addSubmissionTag")
	}
	tag, attached, err := h.Tags.Attach(ctx, submission.ID, in.TagID, actor)
	if err != nil {
		return respondError(c, h.Log, err, "addSubmissionTag")
	}
	status := fiber.StatusOK
	if attached {
		status = fiber.StatusCreated
	}
	return utils.SuccessResponse(c, tag, status)
}

// RemoveSubmissionTag handles DELETE /api/submissions/:id/tags/:tagId
// @Summary Untag an applicant
// @Description Removing a tag that is not attached affects no rows
// @Tags Tags
// @Produce json
// @Param id path string true "Submission ID"
// @Param tagId path string true "Tag ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /submissions/{id}/tags/{tagId} [delete]
func (h *TagHandler) RemoveSubmissionTag(c *fiber.Ctx) error {
	actor, ws, err := workspaceOf(c, h.Workspaces)
	if err != nil {
		return respondError(c, h.Log, err, "removeSubmissionTag")
	}

	ctx := c.UserContext()
	submission, err := h.Submissions.Get(ctx, ws.ID, c.Params("id"))
	if err != nil {
		return respondError(c, h.Log, err, "removeSubmissionTag")
	}

	removed, err := h.Tags.Detach(ctx, submission.ID, c.Params("tagId"), actor)
	if err != nil {
		return respondError(c, h.Log, err, "removeSubmissionTag")
	}

	var affected int64
	if removed {
		affected = 1
	}
	return utils.MutationSuccessResponse(c, affected)
}
