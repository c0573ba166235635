package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mirahq/ingest-manager/internal/logger"
)

const publishTimeout = 5 * time.Second

// Publisher appends source events to the event stream. A nil Publisher (or
// one created without a Redis client) drops events, so callers never need to
// guard for a disabled event bus.
type Publisher struct {
	client *redis.Client
	logger logger.Logger
}

// NewPublisher creates a Publisher. client may be nil to disable publishing.
func NewPublisher(client *redis.Client, log logger.Logger) *Publisher {
	return &Publisher{client: client, logger: log}
}

// Publish appends one event to the stream.
func (p *Publisher) Publish(ctx context.Context, event SourceEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		Values: map[string]any{
			"type":    event.Type,
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", Stream, err)
	}
	return nil
}

// PublishAsync publishes in a goroutine with its own timeout. Failures are
// logged but never surfaced, lifecycle events are advisory.
func (p *Publisher) PublishAsync(event SourceEvent) {
	if p == nil || p.client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.logger.Warn("failed to publish source event",
				logger.String("type", event.Type),
				logger.String("source_id", event.SourceID),
				logger.Error(err))
		}
	}()
}
