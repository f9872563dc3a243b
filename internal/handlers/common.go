// common.go
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
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/enrol-pipeline/internal/models"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"github.com/localnerve/enrol-pipeline/internal/utils"
	"go.uber.org/zap"
)

// ActorKey is the Fiber locals key the auth middleware stores the actor under
const ActorKey = "actor"

// parseList extracts the values of a query key, supporting both repeated
// keys and comma-separated values. Order is kept, duplicates dropped.
func parseList(c *fiber.Ctx, key string) []string {
	seen := make(map[string]struct{})
	var values []string

	args := c.Context().QueryArgs()
	for k, value := range args.All() {
		if string(k) != key {
			continue
		}
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}

	return values
}

// actorFrom returns the authenticated actor set by the auth middleware
func actorFrom(c *fiber.Ctx) (*services.Actor, error) {
	actor, ok := c.Locals(ActorKey).(*services.Actor)
	if !ok || actor == nil || actor.ID == "" {
		return nil, types.Forbidden("authorization.user", "user not found in context")
	}
	return actor, nil
}

// workspaceOf resolves the actor and the workspace they own
func workspaceOf(c *fiber.Ctx, workspaces *services.Workspaces) (*services.Actor, *models.Workspace, error) {
	actor, err := actorFrom(c)
	if err != nil {
		return nil, nil, err
	}
	ws, err := workspaces.EnsureWorkspace(c.UserContext(), actor)
	if err != nil {
		return nil, nil, err
	}
	return actor, ws, nil
}

// respondError maps a service error onto the JSON error envelope
func respondError(c *fiber.Ctx, log *zap.Logger, err error, errorType string) error {
	var custom *types.CustomError
	if errors.As(err, &custom) {
		return utils.ErrorResponse(c, custom.Message, custom.Code, custom.Type)
	}

	var fieldErrs types.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		return utils.ValidationErrorResponse(c, err.Error(), fieldErrs)
	case errors.Is(err, services.ErrValidation):
		return utils.ValidationErrorResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, "Resource not found")
	case errors.Is(err, services.ErrDuplicateTag):
		return utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrCrossFormStage):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusUnprocessableEntity, errorType)
	}

	if log != nil {
		log.Error("request failed",
			zap.String("type", errorType),
			zap.String("url", c.OriginalURL()),
			zap.Error(err),
		)
	}
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// badRequest is a 400 for malformed request bodies
func badRequest(c *fiber.Ctx, err error) error {
	return utils.ErrorResponse(c, "Invalid request body: "+err.Error(), fiber.StatusBadRequest, "request")
}
