package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docuvault/docintel/internal/backend"
	"github.com/docuvault/docintel/internal/common"
	"github.com/docuvault/docintel/internal/document"
	"github.com/docuvault/docintel/internal/extract"
	"github.com/docuvault/docintel/internal/intel"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "intel",
	Short:        "Document intelligence pipeline",
	Long:         "Extracts an actionable intelligence summary from a document via pluggable generative back-ends, with caching and graceful degradation.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
}

// loadConfig layers the optional config file over environment defaults.
func loadConfig() (*common.Config, error) {
	cfg := common.LoadConfig()
	if configPath != "" {
		if err := cfg.ApplyFile(configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *common.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newStore(cfg *common.Config, logger *slog.Logger) (intel.Store, error) {
	if cfg.Cache.Driver == "sqlite" {
		return intel.NewSQLiteStore(cfg.Cache.Path, cfg.Cache.Retention(), logger)
	}
	return intel.NewMemoryStore(cfg.Cache.Retention()), nil
}

func newRegistry(cfg *common.Config, logger *slog.Logger) *backend.Registry {
	return backend.NewRegistry(cfg.Backends.Primary,
		backend.NewGemini(logger, cfg.Backends.GeminiBin),
		backend.NewCodex(logger, cfg.Backends.CodexBin),
		backend.NewClaude(logger, cfg.Backends.ClaudeBin),
	)
}

func buildEngine(cfg *common.Config, logger *slog.Logger) (*intel.Engine, error) {
	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	extractor := extract.NewService(logger, cfg.Cache.Retention(), cfg.Pipeline.MaxDocChars)
	return intel.NewEngine(
		logger,
		cfg.Pipeline,
		document.NewPlainReader(),
		extractor,
		newRegistry(cfg, logger),
		store,
	), nil
}
