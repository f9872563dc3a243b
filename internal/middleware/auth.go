// auth.go
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

package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/localnerve/enrol-pipeline/internal/handlers"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/types"
	"go.uber.org/zap"
)

// SessionCookie is the Authorizer session cookie name
const SessionCookie = "cookie_session"

// SessionValidator resolves a session cookie to the acting identity
type SessionValidator func(c *fiber.Ctx, cookie string, roles []string) (*services.Actor, error)

// AuthorizerValidator validates sessions against the Authorizer service. The
// client is initialized on the first authenticated request, once the
// redirect host is known.
func AuthorizerValidator(cfg *config.Config, log *zap.Logger) SessionValidator {
	return func(c *fiber.Ctx, cookie string, roles []string) (*services.Actor, error) {
		if !services.IsAuthorizerInitialized() {
			if err := services.InitAuthorizer(cfg, c.Protocol(), c.Hostname(), log); err != nil {
				return nil, err
			}
		}
		return services.ValidateSession(cookie, roles)
	}
}

// AuthUser validates that the request has user role authorization
func AuthUser(validate SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, validate, []string{"user"}, "authorization.user")
	}
}

// authorize performs the authorization check
func authorize(c *fiber.Ctx, validate SessionValidator, roles []string, errorType string) error {
	// Get session cookie
	session := c.Cookies(SessionCookie)
	if session == "" {
		return types.Forbidden(errorType, "Authorizer cookie %q not found", SessionCookie)
	}

	actor, err := validate(c, session, roles)
	if err != nil {
		return types.Forbidden(errorType, "Invalid session: %v", err)
	}

	c.Locals(handlers.ActorKey, actor)

	return c.Next()
}
