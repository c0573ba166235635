package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/models"
)

type TagRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

func NewTagRepository(db *sqlx.DB, log logger.Logger) *TagRepository {
	return &TagRepository{
		db:     db,
		logger: log,
	}
}

// upsertTagQuery gets-or-creates a tag by its normalized slug, scoped to the
// owning user. The no-op update makes RETURNING yield the id on both paths.
const upsertTagQuery = `
	INSERT INTO tags (user_id, name, slug)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, slug) DO UPDATE SET name = tags.name
	RETURNING id
`

// SetTagsForSource replaces the full tag set of a source with the given
// names. Tags are created on demand; calling twice with overlapping lists
// leaves no duplicate slugs and the final set equals the second list.
func (r *TagRepository) SetTagsForSource(ctx context.Context, userID, sourceID string, names []string) error {
	return r.replaceTags(ctx, userID, names,
		`DELETE FROM source_tags WHERE source_id = $1`,
		`INSERT INTO source_tags (source_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		sourceID,
	)
}

// SetTagsForItem replaces the full tag set of an item.
func (r *TagRepository) SetTagsForItem(ctx context.Context, userID string, itemID int64, names []string) error {
	return r.replaceTags(ctx, userID, names,
		`DELETE FROM item_tags WHERE item_id = $1`,
		`INSERT INTO item_tags (item_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		itemID,
	)
}

func (r *TagRepository) replaceTags(
	ctx context.Context,
	userID string,
	names []string,
	clearQuery, attachQuery string,
	target any,
) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, clearQuery, target); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		slug := models.Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		displayName := name
		if len(displayName) > models.TagNameMaxLen {
			displayName = displayName[:models.TagNameMaxLen]
		}

		var tagID int64
		if err := tx.GetContext(ctx, &tagID, upsertTagQuery, userID, displayName, slug); err != nil {
			return fmt.Errorf("upsert tag %q: %w", slug, err)
		}

		if _, err := tx.ExecContext(ctx, attachQuery, target, tagID); err != nil {
			return fmt.Errorf("attach tag %q: %w", slug, err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit transaction: %w", commitErr)
	}

	return nil
}

// ListForSource returns a source's tags ordered by slug.
func (r *TagRepository) ListForSource(ctx context.Context, sourceID string) ([]models.Tag, error) {
	query := `
		SELECT t.id, t.user_id, t.name, t.slug
		FROM tags t
		JOIN source_tags st ON st.tag_id = t.id
		WHERE st.source_id = $1
		ORDER BY t.slug
	`

	tags := make([]models.Tag, 0)
	if err := r.db.SelectContext(ctx, &tags, query, sourceID); err != nil {
		return nil, fmt.Errorf("query source tags: %w", err)
	}

	return tags, nil
}
