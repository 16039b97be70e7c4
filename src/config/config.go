package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	LogLevel           string
	SchemaPath         string
	MaxUploadSizeBytes int64
	DefaultPageSize    int
}

// DefaultSchemaFilename is the rule workbook the application looks for when
// SCHEMA_PATH is not configured. It matches the file distributed alongside
// the commission scheme.
const DefaultSchemaFilename = "Comisiones esquema 2026 2.0 (1).xlsm"

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "52428800")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 50MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 50 * 1024 * 1024
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SchemaPath:         getEnv("SCHEMA_PATH", DefaultSchemaFilename),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		DefaultPageSize:    getEnvAsInt("DEFAULT_PAGE_SIZE", 200),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, SchemaPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.SchemaPath)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}
