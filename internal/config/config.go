package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"sheetstore/internal/where"
)

// Config holds application-wide configuration.
type Config struct {
	DataPath        string // sqlite database file; empty means in-memory only
	DefaultLimit    int    // page size offered by the console when none is given
	MaxRegexLen     int    // upper bound on $regex pattern length
	TextQueryMaxLen int    // upper bound on $text and free-text operands
	IndexFields     string // comma-separated fields to index on load
}

// NewDefaultConfig creates a Config struct with sensible default values.
func NewDefaultConfig() Config {
	return Config{
		DefaultLimit:    50,
		MaxRegexLen:     where.DefaultLimits.MaxRegexLen,
		TextQueryMaxLen: where.DefaultLimits.MaxTextLen,
	}
}

// Load loads configuration with a clear precedence: Environment > .env file
// > Defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}
	cfg := NewDefaultConfig()
	applyEnvConfig(&cfg)
	return cfg
}

// Limits returns the operand bounds for the WHERE parser.
func (c Config) Limits() where.Limits {
	return where.Limits{MaxRegexLen: c.MaxRegexLen, MaxTextLen: c.TextQueryMaxLen}
}

// applyEnvConfig overrides config values from environment variables.
func applyEnvConfig(cfg *Config) {
	if pathEnv := os.Getenv("SHEETSTORE_DATA_PATH"); pathEnv != "" {
		cfg.DataPath = pathEnv
		slog.Info("Overriding DataPath from environment", "value", pathEnv)
	}

	if fieldsEnv := os.Getenv("SHEETSTORE_INDEX_FIELDS"); fieldsEnv != "" {
		cfg.IndexFields = fieldsEnv
		slog.Info("Overriding IndexFields from environment", "value", fieldsEnv)
	}

	overrideInt("SHEETSTORE_DEFAULT_LIMIT", &cfg.DefaultLimit)
	overrideInt("SHEETSTORE_MAX_REGEX_LEN", &cfg.MaxRegexLen)
	overrideInt("SHEETSTORE_TEXT_QUERY_MAX_LEN", &cfg.TextQueryMaxLen)
}

func overrideInt(envKey string, target *int) {
	envVal := os.Getenv(envKey)
	if envVal == "" {
		return
	}
	if i, err := strconv.Atoi(envVal); err == nil && i > 0 {
		*target = i
		slog.Info("Overriding int from environment", "key", envKey, "value", i)
	} else {
		slog.Warn("Invalid int env var, using default", "key", envKey, "value", envVal)
	}
}
