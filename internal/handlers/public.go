// public.go
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
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"github.com/localnerve/enrol-pipeline/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PublicHandler serves unauthenticated reads
type PublicHandler struct {
	Forms  *services.Forms
	Config *config.Config
	DB     *gorm.DB
	Log    *zap.Logger
}

// PublicForm is what an applicant needs to render and submit a form
type PublicForm struct {
	ID                  string            `json:"id"`
	Title               string            `json:"title"`
	Description         string            `json:"description,omitempty"`
	Fields              []types.FormField `json:"fields"`
	ConfirmationMessage string            `json:"confirmation_message,omitempty"`
	RedirectURL         string            `json:"redirect_url,omitempty"`
	Branding            *models.Branding  `json:"branding,omitempty"`
}

// GetPublicForm handles GET /api/public/forms/:slug
// @Summary Get a published form
// @Description Unpublished forms are not found
// @Tags Public
// @Produce json
// @Param slug path string true "Form slug"
// @Success 200 {object} PublicForm
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /public/forms/{slug} [get]
func (h *PublicHandler) GetPublicForm(c *fiber.Ctx) error {
	form, err := h.Forms.GetPublishedFormBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, h.Log, err, "getPublicForm")
	}

	settings := form.Settings.Data()
	return utils.SuccessResponse(c, PublicForm{
		ID:                  form.ID,
		Title:               form.Title,
		Description:         form.Description,
		Fields:              form.FieldList(),
		ConfirmationMessage: settings.ConfirmationMessage,
		RedirectURL:         settings.RedirectURL,
		Branding:            settings.Branding,
	}, fiber.StatusOK)
}

// Health handles GET /health
// @Summary Service health
// @Description Database and Authorizer reachability; mail is reported but optional
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *PublicHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.DB, h.Log)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
