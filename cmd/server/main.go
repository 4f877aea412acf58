package main

import (
	"os"

	_ "taskapi/docs"
	"taskapi/internal/config"
	"taskapi/internal/database"
	"taskapi/internal/logging"
	"taskapi/internal/server"

	"github.com/spf13/pflag"
)

// @title           Task API
// @version         1.0
// @description     Task management API with role-based assignment and attachment-driven status.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	envFile := pflag.String("env-file", ".env", "path to the .env file")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	cfg := config.Load(*envFile)
	logging.Init(logging.Options{
		SystemName: "task-api",
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
	})

	if err := database.Migrate(cfg); err != nil {
		logging.Logger.Fatalf("Event ID: DB_MIGRATION_FAILED, Description: %v", err)
	}
	if *migrateOnly {
		os.Exit(0)
	}

	s, err := server.Init(cfg)
	if err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_INIT_FAILED, Description: Server initialization failed: %v", err)
	}

	s.Run()
}
