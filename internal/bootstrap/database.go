package bootstrap

import (
	"fmt"

	"github.com/mirahq/ingest-manager/internal/config"
	"github.com/mirahq/ingest-manager/internal/database"
	"github.com/mirahq/ingest-manager/internal/logger"
)

// SetupDatabase creates a database connection.
func SetupDatabase(cfg *config.Config, log logger.Logger) (*database.DB, error) {
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	return db, nil
}
