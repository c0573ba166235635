// Package processor runs one claimed source job to completion: it walks the
// job's selected items, produces summaries and tags, keeps progress counters
// moving, and finalizes the source as done or failed.
package processor

import (
	"context"
	"fmt"

	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/metrics"
	"github.com/mirahq/ingest-manager/internal/models"
	"github.com/mirahq/ingest-manager/internal/repository"
	"github.com/mirahq/ingest-manager/internal/scrape"
)

// Summarizer produces summaries for the three source types.
type Summarizer interface {
	SummarizePage(ctx context.Context, pageURL, title, text string, documentURLs []string) (string, error)
	SummarizeDocument(ctx context.Context, filename, text string, links []string) (string, error)
	SummarizeSheet(ctx context.Context, name, sourceContext, digest string) (string, error)
}

// Tagger extracts topical tags from free text.
type Tagger interface {
	ExtractTags(ctx context.Context, text string, maxTags int) ([]string, error)
}

// PageFetcher retrieves one page as cleaned text plus document links.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*scrape.Page, error)
}

// SourceStore is the slice of the source repository the processor writes to.
type SourceStore interface {
	IncrementProcessed(ctx context.Context, id string, n int) error
	Finalize(ctx context.Context, id string, status models.SourceStatus, errorMessage string) error
	SetSummary(ctx context.Context, id, summary string) error
}

// ItemStore is the slice of the item repository the processor writes to.
type ItemStore interface {
	MarkRunning(ctx context.Context, id int64) error
	MarkDone(ctx context.Context, id int64, summary string) error
	MarkFailed(ctx context.Context, id int64, cause string) error
	MarkAllSelected(ctx context.Context, sourceID string, status models.ItemStatus, cause string) error
	SetSummary(ctx context.Context, id int64, summary string) error
	CountOutcomes(ctx context.Context, sourceID string) (*repository.OutcomeCounts, error)
}

// TagStore attaches tag sets to sources and items.
type TagStore interface {
	SetTagsForSource(ctx context.Context, userID, sourceID string, names []string) error
	SetTagsForItem(ctx context.Context, userID string, itemID int64, names []string) error
}

// Config tunes processing behavior.
type Config struct {
	MaxTags int
}

// Processor executes claimed source jobs.
type Processor struct {
	sources    SourceStore
	items      ItemStore
	tags       TagStore
	fetcher    PageFetcher
	summarizer Summarizer
	tagger     Tagger
	metrics    *metrics.Metrics
	logger     logger.Logger
	cfg        Config
}

// New creates a Processor.
func New(
	sources SourceStore,
	items ItemStore,
	tags TagStore,
	fetcher PageFetcher,
	summarizer Summarizer,
	tagger Tagger,
	m *metrics.Metrics,
	log logger.Logger,
	cfg Config,
) *Processor {
	return &Processor{
		sources:    sources,
		items:      items,
		tags:       tags,
		fetcher:    fetcher,
		summarizer: summarizer,
		tagger:     tagger,
		metrics:    m,
		logger:     log,
		cfg:        cfg,
	}
}

// Process runs one claimed source with its pre-listed selected items,
// finalizes it, and returns the final status it recorded. The caller
// guarantees selected is non-empty.
func (p *Processor) Process(ctx context.Context, source *models.Source, selected []models.Item) (models.SourceStatus, error) {
	switch source.SourceType {
	case models.SourceTypeWebsite:
		return p.processWebsite(ctx, source, selected)
	case models.SourceTypeDocument:
		return p.processDocument(ctx, source, selected)
	case models.SourceTypeSheet:
		return p.processSheet(ctx, source, selected)
	default:
		return "", fmt.Errorf("unsupported source type %q", source.SourceType)
	}
}

// applyTags attaches tags extracted from the summary text to the given
// target. The tagger itself degrades to local keywords when the model is
// unavailable; any remaining failure is logged and discarded so a tag outage
// never fails a job.
func (p *Processor) applyTags(ctx context.Context, source *models.Source, itemID int64, text string) {
	if text == "" {
		return
	}

	names, err := p.tagger.ExtractTags(ctx, text, p.cfg.MaxTags)
	if err != nil {
		p.logger.Warn("tag extraction failed",
			logger.String("source_id", source.ID),
			logger.Error(err))
		return
	}
	if len(names) == 0 {
		return
	}

	if itemID != 0 {
		err = p.tags.SetTagsForItem(ctx, source.UserID, itemID, names)
	} else {
		err = p.tags.SetTagsForSource(ctx, source.UserID, source.ID, names)
	}
	if err != nil {
		p.logger.Warn("failed to store tags",
			logger.String("source_id", source.ID),
			logger.Int64("item_id", itemID),
			logger.Error(err))
	}
}
