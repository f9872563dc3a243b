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
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/localnerve/enrol-pipeline/internal/database"
	"github.com/localnerve/enrol-pipeline/internal/handlers"
	applog "github.com/localnerve/enrol-pipeline/internal/logger"
	"github.com/localnerve/enrol-pipeline/internal/metrics"
	"github.com/localnerve/enrol-pipeline/internal/middleware"
	"github.com/localnerve/enrol-pipeline/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "github.com/localnerve/enrol-pipeline/docs/api" // Swagger docs
)

// @title Enrol Pipeline API
// @version 1.0.0
// @description Applicant pipeline service: forms, submissions, stages, tags and activity
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/enrol-pipeline
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	boot := applog.Bootstrap()

	if envFilename != "" {
		if err := godotenv.Load(envFilename); err != nil {
			boot.Fatalf("Failed to load environment variables from %s: %v", envFilename, err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot.Fatalf("Failed to load configuration: %v", err)
	}

	log, err := applog.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		boot.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Outbound channels
	notifier, err := notify.NewMailNotifier(cfg, log)
	if err != nil {
		log.Fatal("failed to create mail notifier", zap.Error(err))
	}
	var enrollment notify.Publishers
	if webhook := notify.NewWebhookPublisher(cfg.EnrollmentWebhookURL, cfg.EnrollmentWebhookSecret, log); webhook != nil {
		enrollment = append(enrollment, webhook)
	} else {
		log.Info("enrollment webhook not configured, enrollment events are counted only")
	}

	h := handlers.New(handlers.Deps{
		Config:     cfg,
		DB:         db,
		Log:        log,
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
		Notifier:   notifier,
		Enrollment: enrollment,
	})

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: cfg.Environment == "production",
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	// Prometheus metrics
	fiberProm := fiberprometheus.New("enrol")
	fiberProm.RegisterAt(app, "/metrics")
	app.Use(fiberProm.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", h.Public.Health)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())
	h.Register(api, middleware.AuthUser(middleware.AuthorizerValidator(cfg, log)))

	// 404 handler
	app.Use(middleware.NotFound)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("gracefully shutting down")
		_ = app.Shutdown()
	}()

	// Start server
	log.Info("starting server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}

	// Let in-flight notifications and enrollment events finish before the process exits
	h.Drain()
	log.Info("server stopped")
}
