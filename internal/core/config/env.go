package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: APIGUARD_[SECTION]_[KEY] (e.g., APIGUARD_ANALYSIS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Project, "APIGUARD_PROJECT")

	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "APIGUARD_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, "APIGUARD_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.DatabaseDir, "APIGUARD_PATHS_DATABASE_DIR")
	setEnvString(&cfg.Paths.OutputDir, "APIGUARD_PATHS_OUTPUT_DIR")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "APIGUARD_ANALYSIS_WORKERS")
	setEnvInt(&cfg.Analysis.LoadWorkers, "APIGUARD_ANALYSIS_LOAD_WORKERS")
	setEnvBool(&cfg.Analysis.IntraComponent, "APIGUARD_ANALYSIS_INTRA_COMPONENT")
	setEnvBool(&cfg.Analysis.FailOnViolation, "APIGUARD_ANALYSIS_FAIL_ON_VIOLATION")

	// Database
	setEnvBool(&cfg.DB.Enabled, "APIGUARD_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "APIGUARD_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "APIGUARD_DB_BUSY_TIMEOUT")

	// Neo4j
	setEnvBool(&cfg.Neo4j.Enabled, "APIGUARD_NEO4J_ENABLED")
	setEnvString(&cfg.Neo4j.URI, "APIGUARD_NEO4J_URI")
	setEnvString(&cfg.Neo4j.User, "APIGUARD_NEO4J_USER")
	setEnvSecret(&cfg.Neo4j.Password, "APIGUARD_NEO4J_PASSWORD")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "APIGUARD_WATCH_DEBOUNCE")
	setEnvDuration(&cfg.Watch.MinInterval, "APIGUARD_WATCH_MIN_INTERVAL")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "APIGUARD_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "APIGUARD_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "APIGUARD_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "APIGUARD_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "APIGUARD_OBSERVABILITY_ENABLE_METRICS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvSecret(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
