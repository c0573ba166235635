package models

import (
	"regexp"
	"strings"
)

// Tag name and slug length bounds, enforced on write.
const (
	TagNameMaxLen = 60
	TagSlugMaxLen = 80
)

// Tag is a short keyword attached to sources and items for retrieval.
// Tags are scoped per owning user and deduplicated by slug.
type Tag struct {
	ID     int64  `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Slug   string `json:"slug" db:"slug"`
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace   = regexp.MustCompile(`[\s_]+`)
	slugDashRuns     = regexp.MustCompile(`-{2,}`)
)

// Slugify normalizes a tag name into its lookup key: lowercase, punctuation
// stripped, whitespace collapsed to single dashes, bounded to TagSlugMaxLen.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > TagSlugMaxLen {
		s = strings.Trim(s[:TagSlugMaxLen], "-")
	}
	return s
}
