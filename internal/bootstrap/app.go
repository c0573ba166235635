// Package bootstrap handles application initialization and lifecycle
// management for the ingest-manager service.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mirahq/ingest-manager/internal/logger"
)

const version = "dev"

// Start initializes and runs the ingest-manager application: HTTP API plus
// the background worker loop, both shut down on SIGINT/SIGTERM.
func Start() error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if err := os.MkdirAll(cfg.Storage.Dir, 0o750); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}

	// Phase 2: Setup database
	db, err := SetupDatabase(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database", logger.Error(closeErr))
		}
	}()

	// Phase 3: Setup event publisher (optional)
	publisher := SetupEventPublisher(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Phase 4: Start the worker loop
	runner, registry := SetupWorker(cfg, db, publisher, log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		runner.Run(ctx)
	}()

	// Phase 5: Setup and run HTTP server
	server := SetupHTTPServer(cfg, db, publisher, registry, log)

	log.Info("Starting HTTP server",
		logger.String("host", cfg.Server.Host),
		logger.Int("port", cfg.Server.Port),
	)

	if runErr := server.Run(ctx); runErr != nil {
		log.Error("Server error", logger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	<-workerDone
	log.Info("Server exited")
	return nil
}
