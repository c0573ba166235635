package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ItemStatus is the lifecycle state of one unit of work under a source.
type ItemStatus string

const (
	ItemStatusPending ItemStatus = "pending"
	ItemStatusRunning ItemStatus = "running"
	ItemStatusDone    ItemStatus = "done"
	ItemStatusFailed  ItemStatus = "failed"
	// ItemStatusSkipped is reserved for items excluded at processing time.
	// No processor emits it today; it is part of the status contract.
	ItemStatusSkipped ItemStatus = "skipped"
)

// ItemCategory is an informational classification of an item. Dispatch is
// driven by the source type, never by the category.
type ItemCategory string

const (
	CategoryBlog     ItemCategory = "blog"
	CategoryProduct  ItemCategory = "product"
	CategoryInfo     ItemCategory = "info"
	CategoryDocument ItemCategory = "document"
	CategorySheet    ItemCategory = "sheet"
	CategoryCSV      ItemCategory = "csv"
)

// Item is one unit of work under a source: a discovered page, a spreadsheet
// worksheet or CSV, or the sole unit representing a whole document. URL holds
// the page URL for website items and a label (sheet name, original filename)
// otherwise. (source_id, url) is unique; duplicate discoveries are dropped at
// creation.
type Item struct {
	ID        int64        `json:"id" db:"id"`
	SourceID  string       `json:"source_id" db:"source_id"`
	URL       string       `json:"url" db:"url"`
	Category  ItemCategory `json:"category" db:"category"`
	Selected  bool         `json:"selected" db:"selected"`
	Status    ItemStatus   `json:"status" db:"status"`
	Summary   string       `json:"summary,omitempty" db:"summary"`
	Error     string       `json:"error,omitempty" db:"error"`
	Preview   Preview      `json:"preview" db:"preview"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// Preview is a structured tabular snapshot stored with sheet/csv items:
// column headers plus a handful of sample rows. It is written once at item
// creation and used as processing input, never as output.
type Preview struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Value implements driver.Valuer for JSONB storage.
func (p Preview) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (p *Preview) Scan(value any) error {
	if value == nil {
		*p = Preview{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("scan preview: unexpected type %T", value)
	}
	return json.Unmarshal(bytes, p)
}

// IsEmpty reports whether the preview carries no tabular data.
func (p Preview) IsEmpty() bool {
	return len(p.Headers) == 0 && len(p.Rows) == 0
}
