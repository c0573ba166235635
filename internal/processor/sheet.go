package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/mirahq/ingest-manager/internal/models"
)

// maxDigestHeaders bounds how many column names each digest line carries.
const maxDigestHeaders = 12

// maxSheetDigest caps the digest text handed to the summarizer.
const maxSheetDigest = 15000

// processSheet builds one digest from the selected worksheet/CSV previews,
// summarizes it, and moves all items in lockstep with the source.
func (p *Processor) processSheet(ctx context.Context, source *models.Source, selected []models.Item) (models.SourceStatus, error) {
	if err := p.items.MarkAllSelected(ctx, source.ID, models.ItemStatusRunning, ""); err != nil {
		return "", fmt.Errorf("mark items running: %w", err)
	}

	digest := buildDigest(selected)
	if digest == "" {
		return p.failJob(ctx, source, selected, "Spreadsheet contained no readable data.")
	}

	summary, err := p.summarizer.SummarizeSheet(ctx, source.Name, source.SourceContext, digest)
	if err != nil {
		return p.failJob(ctx, source, selected, err.Error())
	}

	// The summary lives on the source alone; worksheet items only track
	// status.
	if err := p.sources.SetSummary(ctx, source.ID, summary); err != nil {
		return "", fmt.Errorf("set source summary: %w", err)
	}
	if err := p.items.MarkAllSelected(ctx, source.ID, models.ItemStatusDone, ""); err != nil {
		return "", fmt.Errorf("mark items done: %w", err)
	}
	if err := p.sources.IncrementProcessed(ctx, source.ID, len(selected)); err != nil {
		return "", fmt.Errorf("increment processed: %w", err)
	}

	p.applyTags(ctx, source, 0, summary)
	p.metrics.ObserveItem("done")

	return models.SourceStatusDone, p.sources.Finalize(ctx, source.ID, models.SourceStatusDone, "")
}

// buildDigest renders the selected previews as one bounded text block, one
// line per sheet naming it and its first columns.
func buildDigest(selected []models.Item) string {
	var sb strings.Builder
	for i := range selected {
		item := &selected[i]
		if item.Preview.IsEmpty() {
			continue
		}

		headers := item.Preview.Headers
		if len(headers) > maxDigestHeaders {
			headers = headers[:maxDigestHeaders]
		}
		fmt.Fprintf(&sb, "Sheet/Table: %s | Columns: %s\n", item.URL, strings.Join(headers, ", "))

		if sb.Len() > maxSheetDigest {
			break
		}
	}

	digest := strings.TrimSpace(sb.String())
	if len(digest) > maxSheetDigest {
		digest = digest[:maxSheetDigest]
	}
	return digest
}
