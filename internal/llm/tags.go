package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/mirahq/ingest-manager/internal/logger"
)

const maxTagLen = 40

const tagsSystemPrompt = "You extract topical tags from text for a content " +
	"ingestion service. Respond with a JSON array of short lowercase tags " +
	"and nothing else, for example: [\"pricing\", \"cloud storage\"]."

var wordPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z'-]{3,}`)

// stopwords excluded from the frequency-based fallback extractor.
var stopwords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "before": true,
	"being": true, "between": true, "both": true, "could": true, "does": true,
	"each": true, "from": true, "have": true, "here": true, "into": true,
	"just": true, "like": true, "more": true, "most": true, "only": true,
	"other": true, "over": true, "same": true, "should": true, "some": true,
	"such": true, "than": true, "that": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "under": true, "very": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "while": true,
	"will": true, "with": true, "would": true, "your": true,
}

// ExtractTags returns topical tags for text. The model answers when tagging
// is enabled; a local frequency-based keyword extractor answers when tagging
// is disabled, the request fails, the response is empty, or the response is
// not valid JSON. The result is cleaned and capped at maxTags.
func (c *Client) ExtractTags(ctx context.Context, text string, maxTags int) ([]string, error) {
	if !c.tagsEnabled {
		return cleanTags(fallbackKeywords(text, maxTags), maxTags), nil
	}

	raw, err := c.complete(ctx, tagsSystemPrompt, text)
	if err != nil {
		c.logger.Warn("tag request failed, falling back to keywords",
			logger.Error(err))
		return cleanTags(fallbackKeywords(text, maxTags), maxTags), nil
	}

	tags, ok := parseTagArray(raw)
	if !ok {
		c.logger.Warn("tag response was not a JSON array, falling back to keywords",
			logger.Int("response_len", len(raw)))
		tags = fallbackKeywords(text, maxTags)
	}

	return cleanTags(tags, maxTags), nil
}

// parseTagArray finds and decodes the first JSON array in a model response.
func parseTagArray(raw string) ([]string, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &tags); err != nil {
		return nil, false
	}
	return tags, true
}

// fallbackKeywords picks the most frequent non-stopword terms from text.
func fallbackKeywords(text string, maxTags int) []string {
	counts := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if stopwords[w] {
			continue
		}
		counts[w]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > maxTags {
		words = words[:maxTags]
	}
	return words
}

// cleanTags lowercases, trims, truncates, and deduplicates tags.
func cleanTags(tags []string, maxTags int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		t = strings.Trim(t, `"'.,;:#`)
		if r := []rune(t); len(r) > maxTagLen {
			t = string(r[:maxTagLen])
		}
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) >= maxTags {
			break
		}
	}
	return out
}
