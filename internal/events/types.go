// Package events publishes source lifecycle events to a Redis stream so
// other services can react to ingestion progress.
package events

import "time"

// Stream is the Redis stream lifecycle events are appended to.
const Stream = "ingest-events"

// Event types emitted over the stream.
const (
	TypeSourceQueued    = "SOURCE_QUEUED"
	TypeSourceStarted   = "SOURCE_STARTED"
	TypeSourceCompleted = "SOURCE_COMPLETED"
	TypeSourceFailed    = "SOURCE_FAILED"
)

// SourceEvent is one lifecycle transition of a source.
type SourceEvent struct {
	Type       string    `json:"type"`
	SourceID   string    `json:"source_id"`
	UserID     string    `json:"user_id"`
	SourceType string    `json:"source_type"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
