package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mirahq/ingest-manager/internal/extract"
	"github.com/mirahq/ingest-manager/internal/models"
)

const unsupportedDocumentCause = "Unsupported document type (only PDF/DOCX)."

// processDocument summarizes one uploaded file as a single unit of work. The
// source summary is authoritative; the selected items mirror it and move in
// lockstep.
func (p *Processor) processDocument(ctx context.Context, source *models.Source, selected []models.Item) (models.SourceStatus, error) {
	if err := p.items.MarkAllSelected(ctx, source.ID, models.ItemStatusRunning, ""); err != nil {
		return "", fmt.Errorf("mark items running: %w", err)
	}

	text, err := extractDocumentText(source.FilePath)
	if err != nil {
		return p.failJob(ctx, source, selected, err.Error())
	}
	if strings.TrimSpace(text) == "" {
		return p.failJob(ctx, source, selected, "Document contained no extractable text.")
	}

	links := extract.URLs(text)
	summary, err := p.summarizer.SummarizeDocument(ctx, source.OriginalFilename, text, links)
	if err != nil {
		return p.failJob(ctx, source, selected, err.Error())
	}

	if err := p.sources.SetSummary(ctx, source.ID, summary); err != nil {
		return "", fmt.Errorf("set source summary: %w", err)
	}
	// The file's first item mirrors the source summary; any further items
	// only track status.
	if err := p.items.SetSummary(ctx, selected[0].ID, summary); err != nil {
		return "", fmt.Errorf("mirror summary to item %d: %w", selected[0].ID, err)
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

// failJob fails the source and all of its items with the same cause.
func (p *Processor) failJob(ctx context.Context, source *models.Source, selected []models.Item, cause string) (models.SourceStatus, error) {
	if err := p.items.MarkAllSelected(ctx, source.ID, models.ItemStatusFailed, cause); err != nil {
		return "", fmt.Errorf("mark items failed: %w", err)
	}
	if err := p.sources.IncrementProcessed(ctx, source.ID, len(selected)); err != nil {
		return "", fmt.Errorf("increment processed: %w", err)
	}
	p.metrics.ObserveItem("failed")
	return models.SourceStatusFailed, p.sources.Finalize(ctx, source.ID, models.SourceStatusFailed, cause)
}

// extractDocumentText dispatches on the stored file's extension. Only PDF and
// DOCX are supported; everything else fails the job with a user-facing cause.
func extractDocumentText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extract.PDFText(path)
	case ".docx":
		return extract.DocxText(path)
	default:
		return "", fmt.Errorf("%s", unsupportedDocumentCause)
	}
}
