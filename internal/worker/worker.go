// Package worker runs the background claim loop: it atomically claims one
// pending source at a time, hands it to the processor, and guarantees that a
// claimed job always reaches a terminal status, even on panic.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mirahq/ingest-manager/internal/events"
	"github.com/mirahq/ingest-manager/internal/logger"
	"github.com/mirahq/ingest-manager/internal/metrics"
	"github.com/mirahq/ingest-manager/internal/models"
	"github.com/mirahq/ingest-manager/internal/repository"
)

const noSelectedItemsCause = "No selected pages/items to process."

// SourceStore is the slice of the source repository the claim loop uses.
type SourceStore interface {
	ClaimNextPending(ctx context.Context) (*models.Source, error)
	SetRunCounts(ctx context.Context, id string, selected, processed int) error
	Finalize(ctx context.Context, id string, status models.SourceStatus, errorMessage string) error
}

// ItemStore lists a claimed source's selected items.
type ItemStore interface {
	ListSelected(ctx context.Context, sourceID string) ([]models.Item, error)
}

// JobProcessor runs one claimed source to a terminal status and reports the
// status it recorded.
type JobProcessor interface {
	Process(ctx context.Context, source *models.Source, selected []models.Item) (models.SourceStatus, error)
}

// Config tunes the loop's pacing.
type Config struct {
	// IdleDelay is the sleep after finding no pending source.
	IdleDelay time.Duration
	// JobDelay is the sleep after finishing a job, a small courtesy gap
	// between consecutive runs.
	JobDelay time.Duration
}

// Runner is the claim-and-dispatch loop.
type Runner struct {
	sources   SourceStore
	items     ItemStore
	processor JobProcessor
	publisher *events.Publisher
	metrics   *metrics.Metrics
	logger    logger.Logger
	cfg       Config
}

// New creates a Runner.
func New(
	sources SourceStore,
	items ItemStore,
	processor JobProcessor,
	publisher *events.Publisher,
	m *metrics.Metrics,
	log logger.Logger,
	cfg Config,
) *Runner {
	return &Runner{
		sources:   sources,
		items:     items,
		processor: processor,
		publisher: publisher,
		metrics:   m,
		logger:    log,
		cfg:       cfg,
	}
}

// Run claims and processes sources until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Info("worker loop started",
		logger.Duration("idle_delay", r.cfg.IdleDelay),
		logger.Duration("job_delay", r.cfg.JobDelay))

	for {
		if ctx.Err() != nil {
			r.logger.Info("worker loop stopped")
			return
		}

		source, err := r.sources.ClaimNextPending(ctx)
		if errors.Is(err, repository.ErrNoPendingSource) {
			if !sleepOrDone(ctx, r.cfg.IdleDelay) {
				continue
			}
			r.logger.Info("worker loop stopped")
			return
		}
		if err != nil {
			r.logger.Error("failed to claim pending source", logger.Error(err))
			if sleepOrDone(ctx, r.cfg.IdleDelay) {
				r.logger.Info("worker loop stopped")
				return
			}
			continue
		}

		r.runJob(ctx, source)

		if sleepOrDone(ctx, r.cfg.JobDelay) {
			r.logger.Info("worker loop stopped")
			return
		}
	}
}

// runJob processes one claimed source. Whatever happens inside, the source
// ends terminal: processing errors and panics both finalize it as failed.
func (r *Runner) runJob(ctx context.Context, source *models.Source) {
	start := time.Now()

	r.logger.Info("claimed source",
		logger.String("source_id", source.ID),
		logger.String("source_type", string(source.SourceType)),
		logger.String("name", source.Name))
	r.publisher.PublishAsync(events.SourceEvent{
		Type:       events.TypeSourceStarted,
		SourceID:   source.ID,
		UserID:     source.UserID,
		SourceType: string(source.SourceType),
	})

	status, err := r.executeJob(ctx, source)
	if err != nil {
		cause := models.TruncateError(err.Error())
		if finErr := r.sources.Finalize(ctx, source.ID, models.SourceStatusFailed, cause); finErr != nil {
			r.logger.Error("failed to finalize source after error",
				logger.String("source_id", source.ID),
				logger.Error(finErr))
		}
		status = models.SourceStatusFailed
	}

	r.metrics.ObserveJob(string(source.SourceType), string(status), time.Since(start).Seconds())
	r.publishOutcome(source, status, err)

	r.logger.Info("source finished",
		logger.String("source_id", source.ID),
		logger.String("status", string(status)),
		logger.Duration("elapsed", time.Since(start)))
}

// executeJob loads the selected items and dispatches to the processor,
// converting panics into errors so the caller's finalization always runs.
func (r *Runner) executeJob(ctx context.Context, source *models.Source) (status models.SourceStatus, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while processing source: %v", rec)
		}
	}()

	selected, err := r.items.ListSelected(ctx, source.ID)
	if err != nil {
		return "", fmt.Errorf("list selected items: %w", err)
	}

	if len(selected) == 0 {
		if err := r.sources.Finalize(ctx, source.ID, models.SourceStatusFailed, noSelectedItemsCause); err != nil {
			return "", fmt.Errorf("finalize empty source: %w", err)
		}
		return models.SourceStatusFailed, nil
	}

	if err := r.sources.SetRunCounts(ctx, source.ID, len(selected), 0); err != nil {
		return "", fmt.Errorf("set run counts: %w", err)
	}

	return r.processor.Process(ctx, source, selected)
}

func (r *Runner) publishOutcome(source *models.Source, status models.SourceStatus, err error) {
	event := events.SourceEvent{
		SourceID:   source.ID,
		UserID:     source.UserID,
		SourceType: string(source.SourceType),
	}
	if status == models.SourceStatusDone {
		event.Type = events.TypeSourceCompleted
	} else {
		event.Type = events.TypeSourceFailed
		if err != nil {
			event.Error = models.TruncateError(err.Error())
		}
	}
	r.publisher.PublishAsync(event)
}

// sleepOrDone waits for d and reports whether ctx ended first.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
