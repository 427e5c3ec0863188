// cmd/server/main.go
package main

import (
	"fmt"
	"os"

	"github.com/tablero-hq/tablero-backend/api"
	"github.com/tablero-hq/tablero-backend/config"
	"github.com/tablero-hq/tablero-backend/internal/importer"
	"github.com/tablero-hq/tablero-backend/internal/logger"
	"github.com/tablero-hq/tablero-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting Tablero backend server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// 2. Initialize Storage
	store, err := storage.Connect(cfg.DatabaseDir, cfg.DatabaseFile)
	if err != nil {
		customLog.Fatalf("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer func() {
		customLog.Println("Closing database connection...")
		if err := store.Close(); err != nil {
			customLog.Printf("Error closing database: %v", err)
		}
	}()

	// 3. Initialize Import Service
	importSvc := importer.NewService(store, cfg.ImportJobTTL)

	// 4. Setup Router (passing dependencies)
	router := api.SetupRouter(store, importSvc, cfg)

	// 5. Start Server
	customLog.Printf("Server listening on port %s", cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		customLog.Fatalf("Failed to start server: %v", err)
	}
}
