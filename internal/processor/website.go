package processor

import (
	"context"
	"fmt"

	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/models"
)

// processWebsite summarizes each selected page in item order. One bad page
// never stops the run; the source fails at the end when any item failed or
// finished without a summary.
func (p *Processor) processWebsite(ctx context.Context, source *models.Source, selected []models.Item) (models.SourceStatus, error) {
	for i := range selected {
		item := &selected[i]

		if err := p.items.MarkRunning(ctx, item.ID); err != nil {
			return "", fmt.Errorf("mark item %d running: %w", item.ID, err)
		}

		if err := p.processPage(ctx, source, item); err != nil {
			p.logger.Warn("page item failed",
				logger.String("source_id", source.ID),
				logger.Int64("item_id", item.ID),
				logger.String("url", item.URL),
				logger.Error(err))
			if markErr := p.items.MarkFailed(ctx, item.ID, err.Error()); markErr != nil {
				return "", fmt.Errorf("mark item %d failed: %w", item.ID, markErr)
			}
			p.metrics.ObserveItem("failed")
		} else {
			p.metrics.ObserveItem("done")
		}

		if err := p.sources.IncrementProcessed(ctx, source.ID, 1); err != nil {
			return "", fmt.Errorf("increment processed: %w", err)
		}
	}

	return p.finalizeFromOutcomes(ctx, source)
}

// processPage fetches, summarizes, and tags a single page item.
func (p *Processor) processPage(ctx context.Context, source *models.Source, item *models.Item) error {
	page, err := p.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return err
	}

	summary, err := p.summarizer.SummarizePage(ctx, item.URL, page.Title, page.Text, page.DocumentURLs)
	if err != nil {
		return err
	}

	if err := p.items.MarkDone(ctx, item.ID, summary); err != nil {
		return fmt.Errorf("mark item done: %w", err)
	}

	p.applyTags(ctx, source, item.ID, summary)
	return nil
}

// finalizeFromOutcomes finishes a per-item run: done when every selected item
// produced a summary, failed otherwise with a cause naming the counts.
func (p *Processor) finalizeFromOutcomes(ctx context.Context, source *models.Source) (models.SourceStatus, error) {
	counts, err := p.items.CountOutcomes(ctx, source.ID)
	if err != nil {
		return "", fmt.Errorf("count outcomes: %w", err)
	}

	if counts.Failed == 0 && counts.EmptySummaries == 0 {
		return models.SourceStatusDone, p.sources.Finalize(ctx, source.ID, models.SourceStatusDone, "")
	}

	cause := fmt.Sprintf("Ingestion incomplete: failed_items=%d, empty_summaries=%d",
		counts.Failed, counts.EmptySummaries)
	return models.SourceStatusFailed, p.sources.Finalize(ctx, source.ID, models.SourceStatusFailed, cause)
}
