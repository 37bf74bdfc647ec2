// Package config loads adbid-engine configuration from environment variables
// (and an optional .env file), the way the teacher's internal/config does:
// .env first, then process environment. Every variable has a default; a
// value that cannot be parsed or is outside its allowed set turns into a
// fatal ConfigError at startup.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/mbicorp/adbid-engine/internal/engineerr"
)

// ExecutionMode gates whether the bid engine's apply sink is ever called.
type ExecutionMode string

const (
	ModeShadow ExecutionMode = "SHADOW"
	ModeApply  ExecutionMode = "APPLY"
)

// Config holds process-wide configuration. It is read-only after Load
// returns; engines and handlers receive it (or the sub-fields they need) via
// constructor injection, never through a package-level singleton.
type Config struct {
	DataDir    string
	Port       int
	LogLevel   string
	DevMode    bool

	WarehousePath string // path to the SQLite file backing internal/warehouse

	BidEngineExecutionMode ExecutionMode
	NegativeApplyEnabled   bool
	AutoExactApplyEnabled  bool

	S3BackupBucket string // empty disables internal/reliability backups
	S3Region       string
}

// Load reads configuration from .env (if present) and the environment.
// No variable is required. An unresolvable ADBID_DATA_DIR, a non-numeric
// ADBID_PORT or an unknown BID_ENGINE_EXECUTION_MODE returns a
// *engineerr.ConfigError; main() treats that as fatal and never starts a run.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	dataDir := getEnv("ADBID_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, &engineerr.ConfigError{Variable: "ADBID_DATA_DIR"}
	}

	port, err := strconv.Atoi(getEnv("ADBID_PORT", "8080"))
	if err != nil {
		return nil, &engineerr.ConfigError{Variable: "ADBID_PORT"}
	}

	mode := ExecutionMode(getEnv("BID_ENGINE_EXECUTION_MODE", string(ModeShadow)))
	if mode != ModeShadow && mode != ModeApply {
		return nil, &engineerr.ConfigError{Variable: "BID_ENGINE_EXECUTION_MODE"}
	}

	cfg := &Config{
		DataDir:                absDataDir,
		Port:                   port,
		LogLevel:               getEnv("ADBID_LOG_LEVEL", "info"),
		DevMode:                getEnvBool("ADBID_DEV_MODE", false),
		WarehousePath:          getEnv("ADBID_WAREHOUSE_PATH", filepath.Join(absDataDir, "warehouse.db")),
		BidEngineExecutionMode: mode,
		NegativeApplyEnabled:   getEnvBool("NEGATIVE_APPLY_ENABLED", false),
		AutoExactApplyEnabled:  getEnvBool("AUTO_EXACT_APPLY_ENABLED", false),
		S3BackupBucket:         getEnv("ADBID_S3_BACKUP_BUCKET", ""),
		S3Region:               getEnv("ADBID_S3_REGION", "us-east-1"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
