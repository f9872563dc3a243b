// health.go
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

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/localnerve/enrol-pipeline/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	Mail         string            `json:"mail"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck performs a comprehensive health check of the service
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, log *zap.Logger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	fail := func(msg string) {
		result.Status = "unhealthy"
		if result.ErrorMessage == "" {
			result.ErrorMessage = msg
		} else {
			result.ErrorMessage += "; " + msg
		}
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		fail(fmt.Sprintf("Database connection error: %v", err))
		log.Warn("health check failed - database connection", zap.Error(err))
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			result.Database = "unreachable"
			result.Details["database_ping_error"] = err.Error()
			fail(fmt.Sprintf("Database ping failed: %v", err))
			log.Warn("health check failed - database ping", zap.Error(err))
		} else {
			result.Database = "ok"
			result.Details["database_type"] = cfg.DBType
			result.Details["database_name"] = cfg.DBDatabase
		}
	}

	// Check Authorizer connectivity
	if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.Details["authorizer_error"] = err.Error()
		fail(fmt.Sprintf("Authorizer ping failed: %v", err))
		log.Warn("health check failed - authorizer ping", zap.Error(err))
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	// Mail is optional; an unreachable relay only degrades notifications
	switch {
	case !cfg.MailEnabled():
		result.Mail = "disabled"
	case utils.PingSMTP(cfg.SMTPHost, cfg.SMTPPort) != nil:
		result.Mail = "unreachable"
	default:
		result.Mail = "ok"
	}

	if result.Status == "healthy" {
		log.Debug("health check passed - all systems operational")
	}

	return result
}
