// Package repository implements PostgreSQL persistence for sources, items,
// and tags.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/models"
)

// ErrNoPendingSource is returned by ClaimNextPending when no claimable job
// exists. Callers should check with errors.Is().
var ErrNoPendingSource = errors.New("no pending source available")

// ErrSourceNotFound is returned when a source id does not exist.
var ErrSourceNotFound = errors.New("source not found")

// sourceColumns lists the sources columns in scan order.
const sourceColumns = `id, user_id, name, source_type, domain_url, status, error_message,
	total_items, selected_items, processed_items, source_context, summary,
	file_path, original_filename, created_at, updated_at`

type SourceRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewSourceRepository(db *sqlx.DB, log logger.Logger) *SourceRepository {
	return &SourceRepository{
		db:     db,
		logger: log,
	}
}

func (r *SourceRepository) Create(ctx context.Context, source *models.Source) error {
	source.ID = uuid.New().String()
	source.CreatedAt = time.Now()
	source.UpdatedAt = source.CreatedAt
	if source.Status == "" {
		source.Status = models.SourceStatusDraft
	}

	query := `
		INSERT INTO sources (
			id, user_id, name, source_type, domain_url, status, error_message,
			total_items, selected_items, processed_items, source_context, summary,
			file_path, original_filename, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		source.ID,
		source.UserID,
		source.Name,
		source.SourceType,
		source.DomainURL,
		source.Status,
		source.ErrorMessage,
		source.TotalItems,
		source.SelectedItems,
		source.ProcessedItems,
		source.SourceContext,
		source.Summary,
		source.FilePath,
		source.OriginalFilename,
		source.CreatedAt,
		source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}

	return nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*models.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1`

	var source models.Source
	err := r.db.GetContext(ctx, &source, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query source: %w", err)
	}

	return &source, nil
}

func (r *SourceRepository) ListByUser(ctx context.Context, userID string) ([]models.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE user_id = $1 ORDER BY created_at DESC`

	sources := make([]models.Source, 0)
	if err := r.db.SelectContext(ctx, &sources, query, userID); err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}

	return sources, nil
}

// Delete removes a source; its items and tag links go with it (cascade).
func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSourceNotFound
	}

	return nil
}

// ClaimNextPending atomically claims the oldest pending job for processing.
// FOR UPDATE SKIP LOCKED guarantees that concurrent workers never claim the
// same row: a row locked by another claimant is skipped, not waited on. The
// claim flips the job to running, clears its previous error, and resets the
// processed counter in the same statement, so no other claimant can observe
// a stale pending row. Custom sources are never auto-claimed.
func (r *SourceRepository) ClaimNextPending(ctx context.Context) (*models.Source, error) {
	query := `
		UPDATE sources
		SET status = 'running', error_message = '', processed_items = 0, updated_at = NOW()
		WHERE id = (
			SELECT id FROM sources
			WHERE status = 'pending'
			  AND source_type IN ('website', 'document', 'sheet')
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + sourceColumns

	var source models.Source
	err := r.db.GetContext(ctx, &source, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPendingSource
	}
	if err != nil {
		return nil, fmt.Errorf("claim source: %w", err)
	}

	return &source, nil
}

// SetRunCounts records the size of the current processing run.
func (r *SourceRepository) SetRunCounts(ctx context.Context, id string, selected, processed int) error {
	query := `
		UPDATE sources
		SET selected_items = $2, processed_items = $3, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, selected, processed); err != nil {
		return fmt.Errorf("set run counts: %w", err)
	}
	return nil
}

// IncrementProcessed adds n to the job's processed counter. The relative
// update keeps counting loss-free even if item processing is ever fanned out
// across writers.
func (r *SourceRepository) IncrementProcessed(ctx context.Context, id string, n int) error {
	query := `
		UPDATE sources
		SET processed_items = processed_items + $2, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, n); err != nil {
		return fmt.Errorf("increment processed: %w", err)
	}
	return nil
}

// Finalize records the terminal status of a processing run. The error message
// is truncated to the column bound.
func (r *SourceRepository) Finalize(ctx context.Context, id string, status models.SourceStatus, errorMessage string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("finalize with non-terminal status %q", status)
	}

	query := `
		UPDATE sources
		SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, status, models.TruncateError(errorMessage)); err != nil {
		return fmt.Errorf("finalize source: %w", err)
	}
	return nil
}

// SetSummary stores the source-level summary produced by the document and
// sheet processors.
func (r *SourceRepository) SetSummary(ctx context.Context, id, summary string) error {
	query := `UPDATE sources SET summary = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, summary); err != nil {
		return fmt.Errorf("set source summary: %w", err)
	}
	return nil
}

// SetTotals refreshes total/selected item counts after discovery or a
// selection change.
func (r *SourceRepository) SetTotals(ctx context.Context, id string) error {
	query := `
		UPDATE sources
		SET total_items = (SELECT COUNT(*) FROM items WHERE source_id = $1),
		    selected_items = (SELECT COUNT(*) FROM items WHERE source_id = $1 AND selected = TRUE),
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("set totals: %w", err)
	}
	return nil
}

// Queue hands a draft, done, or failed source to the worker loop. Processed
// counters reset on re-entry to pending; running jobs cannot be re-queued.
func (r *SourceRepository) Queue(ctx context.Context, id string) error {
	query := `
		UPDATE sources
		SET status = 'pending', error_message = '', processed_items = 0, updated_at = NOW()
		WHERE id = $1 AND status IN ('draft', 'done', 'failed')
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("queue source: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("source cannot be queued: %w", ErrSourceNotFound)
	}

	return nil
}

// Progress is the polling snapshot consumed by external UIs.
type Progress struct {
	Status    models.SourceStatus `json:"status" db:"status"`
	Processed int                 `json:"processed" db:"processed_items"`
	Total     int                 `json:"total" db:"selected_items"`
	Error     string              `json:"error" db:"error_message"`
}

// GetProgress is a pure read of the four progress fields; no side effects.
func (r *SourceRepository) GetProgress(ctx context.Context, id string) (*Progress, error) {
	query := `SELECT status, processed_items, selected_items, error_message FROM sources WHERE id = $1`

	var p Progress
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}

	return &p, nil
}
