package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tablero-hq/tablero-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort     string
	DatabaseDir    string
	DatabaseFile   string
	ImportJobTTL   time.Duration
	AllowedOrigins []string
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	port := getEnv("SERVER_PORT", "8080")
	dbDir := getEnv("DATABASE_DIRECTORY", "data")
	dbFile := getEnv("DATABASE_FILE", "tablero.db")
	jobTTLMinStr := getEnv("IMPORT_JOB_TTL_MINUTES", "30")
	origins := getEnv("ALLOWED_ORIGINS", "*")

	jobTTLMin, err := strconv.Atoi(jobTTLMinStr)
	if err != nil || jobTTLMin <= 0 {
		customLog.Warnf("Invalid IMPORT_JOB_TTL_MINUTES '%s'. Using default 30m. Error: %v", jobTTLMinStr, err)
		jobTTLMin = 30
	}

	cfg := &Config{
		ServerPort:     port,
		DatabaseDir:    dbDir,
		DatabaseFile:   dbFile,
		ImportJobTTL:   time.Duration(jobTTLMin) * time.Minute,
		AllowedOrigins: splitOrigins(origins),
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, DB: %s/%s", cfg.ServerPort, cfg.DatabaseDir, cfg.DatabaseFile)
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitOrigins(origins string) []string {
	var out []string
	for _, part := range strings.Split(origins, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
