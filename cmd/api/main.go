package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mkurata/teampulse/internal/api"
	"github.com/mkurata/teampulse/internal/config"
	"github.com/mkurata/teampulse/internal/service"
	"github.com/mkurata/teampulse/internal/storage"
	"github.com/mkurata/teampulse/internal/storage/postgres"
	"github.com/mkurata/teampulse/internal/storage/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reportCfgFile := os.Getenv("REPORT_CONFIG")
	if reportCfgFile == "" {
		reportCfgFile = "teampulse.yaml"
	}
	reportCfg, err := config.LoadReport(reportCfgFile)
	if err != nil {
		log.Fatalf("Failed to load report configuration: %v", err)
	}

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL storage: %v", err)
		}
	default:
		store, err = sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite storage: %v", err)
		}
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(service.New(store, reportCfg))

	// Setup routes
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	fmt.Printf("Starting API server on %s\n", addr)
	fmt.Printf("Storage type: %s\n", cfg.StorageType)

	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}
