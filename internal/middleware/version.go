// version.go
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
	"strings"

	"github.com/gofiber/fiber/v2"
)

// APIVersion is the current API version
const APIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header, stores it in context and
// echoes the served version back
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := strings.TrimPrefix(c.Get("X-Api-Version", APIVersion), "v")

		// Support version aliases
		switch version {
		case "1", "1.0":
			version = APIVersion
		}

		c.Locals("apiVersion", version)
		c.Set("X-Api-Version", APIVersion)

		return c.Next()
	}
}
