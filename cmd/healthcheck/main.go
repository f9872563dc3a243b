// main.go
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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/localnerve/enrol-pipeline/internal/database"
	"github.com/localnerve/enrol-pipeline/internal/logger"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"go.uber.org/zap"
)

func main() {
	boot := logger.Bootstrap()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot.Fatalf("Failed to load configuration: %v", err)
	}

	// stdout carries the JSON result only
	log, err := logger.New(cfg.Environment, "error")
	if err != nil {
		boot.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Perform health check
	result := services.HealthCheck(ctx, cfg, db, log)

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal("failed to marshal health check result", zap.Error(err))
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
}
