package models

import (
	"time"
)

// SourceType identifies the kind of content behind an ingestion job.
type SourceType string

const (
	SourceTypeWebsite  SourceType = "website"
	SourceTypeDocument SourceType = "document"
	SourceTypeSheet    SourceType = "sheet"
	SourceTypeCustom   SourceType = "custom"
)

// SourceStatus is the lifecycle state of an ingestion job.
type SourceStatus string

const (
	SourceStatusDraft   SourceStatus = "draft"
	SourceStatusPending SourceStatus = "pending"
	SourceStatusRunning SourceStatus = "running"
	SourceStatusDone    SourceStatus = "done"
	SourceStatusFailed  SourceStatus = "failed"
)

// ErrorMessageMaxLen bounds every human-readable failure cause stored on a
// source or item.
const ErrorMessageMaxLen = 300

// Source is one ingestion job: a website domain, an uploaded document, or an
// uploaded spreadsheet. It owns its items (cascade delete).
type Source struct {
	ID               string       `json:"id" db:"id"`
	UserID           string       `json:"user_id" db:"user_id"`
	Name             string       `json:"name" db:"name"`
	SourceType       SourceType   `json:"source_type" db:"source_type"`
	DomainURL        string       `json:"domain_url,omitempty" db:"domain_url"`
	Status           SourceStatus `json:"status" db:"status"`
	ErrorMessage     string       `json:"error_message" db:"error_message"`
	TotalItems       int          `json:"total_items" db:"total_items"`
	SelectedItems    int          `json:"selected_items" db:"selected_items"`
	ProcessedItems   int          `json:"processed_items" db:"processed_items"`
	SourceContext    string       `json:"source_context,omitempty" db:"source_context"`
	Summary          string       `json:"summary,omitempty" db:"summary"`
	FilePath         string       `json:"-" db:"file_path"`
	OriginalFilename string       `json:"original_filename,omitempty" db:"original_filename"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// sourceTransitions is the job state machine. Re-queueing a finished job back
// to pending is a legal transition (re-selection), not a bug.
var sourceTransitions = map[SourceStatus][]SourceStatus{
	SourceStatusDraft:   {SourceStatusPending, SourceStatusFailed},
	SourceStatusPending: {SourceStatusRunning},
	SourceStatusRunning: {SourceStatusDone, SourceStatusFailed},
	SourceStatusDone:    {SourceStatusPending},
	SourceStatusFailed:  {SourceStatusPending},
}

// CanTransition reports whether a source status change is legal.
func (s SourceStatus) CanTransition(to SourceStatus) bool {
	for _, next := range sourceTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends a processing run.
func (s SourceStatus) IsTerminal() bool {
	return s == SourceStatusDone || s == SourceStatusFailed
}

// Claimable reports whether the worker loop may auto-claim this source type.
// Custom sources are user-curated and never picked up by the loop.
func (t SourceType) Claimable() bool {
	switch t {
	case SourceTypeWebsite, SourceTypeDocument, SourceTypeSheet:
		return true
	default:
		return false
	}
}

// TruncateError bounds a failure cause to ErrorMessageMaxLen characters so it
// always fits the error_message / error columns.
func TruncateError(msg string) string {
	runes := []rune(msg)
	if len(runes) <= ErrorMessageMaxLen {
		return msg
	}
	return string(runes[:ErrorMessageMaxLen])
}
