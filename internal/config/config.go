package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mmrzaf/mockgen/internal/domain"
)

type Config struct {
	DefinitionsDir string
	PlanPath       string
	OutputDir      string
	RunsDBPath     string
	LogLevel       string

	ChunkSize      int64
	ChunkThreshold int64
	ReuseCap       int

	// Entity versioning window and open-ended sentinel, as YYYY-MM-DD or relative (-30d).
	DateFloor   string
	DateCeiling string
	OpenEnded   string

	MirrorKind     string
	MirrorDSN      string
	MirrorSchema   string
	MirrorDatabase string
}

// Load reads MOCKGEN_* variables. A .env file in the working directory is
// applied first; variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DefinitionsDir: getEnv("MOCKGEN_DEFINITIONS_DIR", "./definitions"),
		PlanPath:       getEnv("MOCKGEN_PLAN", "./config/plan.yaml"),
		OutputDir:      getEnv("MOCKGEN_OUTPUT_DIR", "./output"),
		RunsDBPath:     getEnv("MOCKGEN_RUNS_DB", "./mockgen-runs.sqlite"),
		LogLevel:       getEnv("MOCKGEN_LOG_LEVEL", "info"),
		ChunkSize:      getEnvInt64("MOCKGEN_CHUNK_SIZE", 5000),
		ChunkThreshold: getEnvInt64("MOCKGEN_CHUNK_THRESHOLD", 5000),
		ReuseCap:       int(getEnvInt64("MOCKGEN_REUSE_CAP", 2)),
		DateFloor:      getEnv("MOCKGEN_DATE_FLOOR", "2017-01-01"),
		DateCeiling:    getEnv("MOCKGEN_DATE_CEILING", "2025-06-01"),
		OpenEnded:      getEnv("MOCKGEN_OPEN_ENDED", "4712-12-31"),
		MirrorKind:     getEnv("MOCKGEN_MIRROR_KIND", ""),
		MirrorDSN:      getEnv("MOCKGEN_MIRROR_DSN", ""),
		MirrorSchema:   getEnv("MOCKGEN_MIRROR_SCHEMA", ""),
		MirrorDatabase: getEnv("MOCKGEN_MIRROR_DATABASE", ""),
	}
}

// Mirror returns the configured mirror database, or nil when none is set.
func (c *Config) Mirror() *domain.MirrorConfig {
	if c.MirrorKind == "" {
		return nil
	}
	return &domain.MirrorConfig{
		Kind:     c.MirrorKind,
		DSN:      c.MirrorDSN,
		Schema:   c.MirrorSchema,
		Database: c.MirrorDatabase,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
