package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mirahq/ingest-manager/internal/api"
	"github.com/mirahq/ingest-manager/internal/config"
	"github.com/mirahq/ingest-manager/internal/database"
	"github.com/mirahq/ingest-manager/internal/discover"
	"github.com/mirahq/ingest-manager/internal/events"
	"github.com/mirahq/ingest-manager/internal/handlers"
	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/repository"
	"github.com/mirahq/ingest-manager/internal/urlsafety"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server with graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

// SetupHTTPServer creates and configures the HTTP server.
func SetupHTTPServer(
	cfg *config.Config,
	db *database.DB,
	publisher *events.Publisher,
	registry *prometheus.Registry,
	log logger.Logger,
) *Server {
	sourceRepo := repository.NewSourceRepository(db.DB(), log)
	itemRepo := repository.NewItemRepository(db.DB(), log)
	tagRepo := repository.NewTagRepository(db.DB(), log)

	sourceHandler := handlers.NewSourceHandler(
		sourceRepo,
		itemRepo,
		tagRepo,
		urlsafety.NewGate(),
		discover.New(discover.Config{
			MaxURLs: cfg.Discovery.MaxURLs,
			Timeout: cfg.Discovery.Timeout,
		}, log),
		publisher,
		log,
		cfg.Discovery.Timeout,
	)
	uploadHandler := handlers.NewUploadHandler(sourceRepo, itemRepo, cfg.Storage.Dir, log)

	router := api.NewRouter(api.Deps{
		Sources:      sourceHandler,
		Uploads:      uploadHandler,
		Registry:     registry,
		AllowOrigins: cfg.Server.CORSOrigins,
		Logger:       log,
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
