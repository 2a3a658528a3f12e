package common

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/docuvault/docintel/constants"
)

// Config holds all application configuration
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Backends BackendsConfig `yaml:"backends"`
	Cache    CacheConfig    `yaml:"cache"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// PipelineConfig holds intelligence-pipeline configuration
type PipelineConfig struct {
	BudgetMs         int  `yaml:"budget_ms"`          // overall wall-clock budget
	QuickThresholdMs int  `yaml:"quick_threshold_ms"` // remaining budget at or below this skips structured extraction
	ExtractTimeoutMs int  `yaml:"extract_timeout_ms"` // ceiling for the structured-extract call
	Quick            bool `yaml:"quick"`              // always skip structured extraction
	MaxDocChars      int  `yaml:"max_doc_chars"`      // condensed-text ceiling for short summarize
}

// BackendsConfig holds generative back-end configuration
type BackendsConfig struct {
	Primary   string `yaml:"primary"` // gemini | codex | claude
	GeminiBin string `yaml:"gemini_bin"`
	CodexBin  string `yaml:"codex_bin"`
	ClaudeBin string `yaml:"claude_bin"`
}

// CacheConfig holds result-cache configuration
type CacheConfig struct {
	Driver        string `yaml:"driver"` // memory | sqlite
	Path          string `yaml:"path"`   // sqlite file path
	RetentionDays int    `yaml:"retention_days"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: getEnv("INTEL_LOG_LEVEL", "info"),
		},
		Pipeline: PipelineConfig{
			BudgetMs:         getEnvAsInt("INTEL_BUDGET_MS", constants.DefaultBudgetMs),
			QuickThresholdMs: getEnvAsInt("INTEL_QUICK_THRESHOLD_MS", constants.QuickThresholdMs),
			ExtractTimeoutMs: getEnvAsInt("INTEL_EXTRACT_TIMEOUT_MS", constants.DefaultExtractTimeoutMs),
			Quick:            getEnvAsBool("INTEL_QUICK", false),
			MaxDocChars:      getEnvAsInt("INTEL_MAX_DOC_CHARS", constants.MaxCondensedChars),
		},
		Backends: BackendsConfig{
			Primary:   getEnv("INTEL_PRIMARY_BACKEND", "gemini"),
			GeminiBin: getEnv("INTEL_GEMINI_BIN", "gemini"),
			CodexBin:  getEnv("INTEL_CODEX_BIN", "codex"),
			ClaudeBin: getEnv("INTEL_CLAUDE_BIN", "claude"),
		},
		Cache: CacheConfig{
			Driver:        getEnv("INTEL_CACHE_DRIVER", "memory"),
			Path:          getEnv("INTEL_CACHE_PATH", ""),
			RetentionDays: getEnvAsInt("INTEL_CACHE_RETENTION_DAYS", constants.CacheRetentionDays),
		},
	}
}

// ApplyFile overlays values from a YAML config file onto the receiver.
// File values win over environment values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return WrapError(err, "read config file")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return WrapError(err, "parse config file")
	}
	return nil
}

// Budget returns the overall pipeline budget as a duration.
func (p PipelineConfig) Budget() time.Duration {
	return time.Duration(p.BudgetMs) * time.Millisecond
}

// QuickThreshold returns the quick-mode threshold as a duration.
func (p PipelineConfig) QuickThreshold() time.Duration {
	return time.Duration(p.QuickThresholdMs) * time.Millisecond
}

// ExtractTimeout returns the configured extract-call ceiling as a duration.
func (p PipelineConfig) ExtractTimeout() time.Duration {
	return time.Duration(p.ExtractTimeoutMs) * time.Millisecond
}

// Retention returns the cache retention window as a duration.
func (c CacheConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Pipeline.BudgetMs <= 0 {
		return NewAppError("CONFIG_ERROR", "pipeline.budget_ms must be positive", ErrInvalidInput)
	}
	if c.Pipeline.ExtractTimeoutMs <= 0 {
		return NewAppError("CONFIG_ERROR", "pipeline.extract_timeout_ms must be positive", ErrInvalidInput)
	}
	switch c.Backends.Primary {
	case "gemini", "codex", "claude":
	default:
		return NewAppError("CONFIG_ERROR", "backends.primary must be one of gemini|codex|claude", ErrInvalidInput)
	}
	switch c.Cache.Driver {
	case "memory":
	case "sqlite":
		if c.Cache.Path == "" {
			return NewAppError("CONFIG_ERROR", "cache.path is required for the sqlite driver", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "cache.driver must be memory or sqlite", ErrInvalidInput)
	}
	if c.Cache.RetentionDays <= 0 {
		return NewAppError("CONFIG_ERROR", "cache.retention_days must be positive", ErrInvalidInput)
	}
	return nil
}
