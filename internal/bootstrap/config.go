package bootstrap

import (
	"flag"
	"fmt"

	"github.com/mirahq/ingest-manager/internal/config"
	"github.com/mirahq/ingest-manager/internal/logger"
)

// LoadConfig loads configuration. Uses the -config flag with a conventional
// default.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, version string) (logger.Logger, error) {
	level := "info"
	if cfg.Debug {
		level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       level,
		Development: cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		logger.String("service", "ingest-manager"),
		logger.String("version", version),
	), nil
}
