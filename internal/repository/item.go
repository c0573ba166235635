package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/models"
)

// itemColumns lists the items columns in scan order.
const itemColumns = `id, source_id, url, category, selected, status, summary, error, preview,
	created_at, updated_at`

type ItemRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewItemRepository(db *sqlx.DB, log logger.Logger) *ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: log,
	}
}

// BulkCreate inserts items for a source. Duplicate (source_id, url) pairs are
// silently dropped; discovery runs never overwrite existing items.
func (r *ItemRepository) BulkCreate(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO items (source_id, url, category, selected, status, preview)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_id, url) DO NOTHING
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for i := range items {
		item := &items[i]
		if item.Status == "" {
			item.Status = models.ItemStatusPending
		}
		if _, execErr := tx.ExecContext(ctx, query,
			item.SourceID,
			item.URL,
			item.Category,
			item.Selected,
			item.Status,
			item.Preview,
		); execErr != nil {
			return fmt.Errorf("insert item %q: %w", item.URL, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}

	return nil
}

// ListSelected returns the selected items of a source in identity order,
// which is creation order.
func (r *ItemRepository) ListSelected(ctx context.Context, sourceID string) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE source_id = $1 AND selected = TRUE ORDER BY id`

	items := make([]models.Item, 0)
	if err := r.db.SelectContext(ctx, &items, query, sourceID); err != nil {
		return nil, fmt.Errorf("query selected items: %w", err)
	}

	return items, nil
}

// ListBySource returns all items of a source in identity order.
func (r *ItemRepository) ListBySource(ctx context.Context, sourceID string) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE source_id = $1 ORDER BY id`

	items := make([]models.Item, 0)
	if err := r.db.SelectContext(ctx, &items, query, sourceID); err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	return items, nil
}

// MarkRunning flips one item to running before its fetch begins.
func (r *ItemRepository) MarkRunning(ctx context.Context, id int64) error {
	query := `UPDATE items SET status = 'running', updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark item running: %w", err)
	}
	return nil
}

// MarkDone records a successful item with its summary and a cleared error.
func (r *ItemRepository) MarkDone(ctx context.Context, id int64, summary string) error {
	query := `UPDATE items SET status = 'done', summary = $2, error = '', updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, summary); err != nil {
		return fmt.Errorf("mark item done: %w", err)
	}
	return nil
}

// MarkFailed records a failed item with its truncated cause. The summary is
// left untouched.
func (r *ItemRepository) MarkFailed(ctx context.Context, id int64, cause string) error {
	query := `UPDATE items SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.TruncateError(cause)); err != nil {
		return fmt.Errorf("mark item failed: %w", err)
	}
	return nil
}

// MarkAllSelected moves every selected item of a source to the given status
// in one statement. The document and sheet processors use it to keep item
// status in lockstep with the single source-level outcome.
func (r *ItemRepository) MarkAllSelected(ctx context.Context, sourceID string, status models.ItemStatus, cause string) error {
	query := `
		UPDATE items
		SET status = $2, error = $3, updated_at = NOW()
		WHERE source_id = $1 AND selected = TRUE
	`
	if _, err := r.db.ExecContext(ctx, query, sourceID, status, models.TruncateError(cause)); err != nil {
		return fmt.Errorf("mark selected items %s: %w", status, err)
	}
	return nil
}

// SetSummary stores a summary on a single item without changing its status.
// Used to mirror the document-level summary onto the file's item.
func (r *ItemRepository) SetSummary(ctx context.Context, id int64, summary string) error {
	query := `UPDATE items SET summary = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, summary); err != nil {
		return fmt.Errorf("set item summary: %w", err)
	}
	return nil
}

// OutcomeCounts aggregates a finished run over the selected items.
type OutcomeCounts struct {
	Failed         int `db:"failed"`
	EmptySummaries int `db:"empty_summaries"`
}

// CountOutcomes reports how many selected items failed and how many finished
// done but with an empty summary. Either being nonzero fails the job.
func (r *ItemRepository) CountOutcomes(ctx context.Context, sourceID string) (*OutcomeCounts, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status = 'done' AND summary = '') AS empty_summaries
		FROM items
		WHERE source_id = $1 AND selected = TRUE
	`

	var counts OutcomeCounts
	if err := r.db.GetContext(ctx, &counts, query, sourceID); err != nil {
		return nil, fmt.Errorf("count item outcomes: %w", err)
	}

	return &counts, nil
}

// UpdateSelection sets the selected flag for the given item ids and clears it
// for every other item of the source.
func (r *ItemRepository) UpdateSelection(ctx context.Context, sourceID string, selectedIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	clearQuery := `UPDATE items SET selected = FALSE, updated_at = NOW() WHERE source_id = $1`
	if _, err := tx.ExecContext(ctx, clearQuery, sourceID); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}

	if len(selectedIDs) > 0 {
		selectQuery, args, inErr := sqlx.In(
			`UPDATE items SET selected = TRUE, updated_at = NOW() WHERE source_id = ? AND id IN (?)`,
			sourceID, selectedIDs,
		)
		if inErr != nil {
			return fmt.Errorf("build selection query: %w", inErr)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(selectQuery), args...); err != nil {
			return fmt.Errorf("apply selection: %w", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}

	return nil
}
