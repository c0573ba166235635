// Package scrape fetches web pages and reduces them to plain text plus any
// same-page links that point at downloadable documents.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (compatible; IngestManager/1.0)"

// maxPageText caps the plain text handed to downstream summarizers.
const maxPageText = 20000

const maxBodyBytes = 10 * 1024 * 1024

// documentExtensions are the link suffixes treated as document downloads.
var documentExtensions = []string{".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx"}

// Page is the scraped view of a single URL.
type Page struct {
	Title        string
	Text         string
	DocumentURLs []string
}

// Scraper fetches and cleans pages.
type Scraper struct {
	client *http.Client
}

// New creates a Scraper with the given fetch timeout.
func New(timeout time.Duration) *Scraper {
	return &Scraper{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves pageURL and returns its title, visible text, and any links
// to document files found on the page.
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{
		Title:        strings.TrimSpace(doc.Find("title").First().Text()),
		Text:         extractText(doc),
		DocumentURLs: documentLinks(doc, pageURL),
	}
	return page, nil
}

// extractText strips non-content elements and collapses whitespace.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, svg").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	return text
}

// documentLinks collects same-page links ending in a known document
// extension, resolved against the page URL and deduplicated in order.
func documentLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || !hasDocumentExtension(href) {
			return
		}
		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return
		}
		resolved := base.ResolveReference(ref).String()
		if seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})
	return links
}

func hasDocumentExtension(href string) bool {
	lower := strings.ToLower(href)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
