// Package discover turns a root domain into a bounded, deduplicated set of
// candidate page URLs. It tries the site's sitemap first and falls back to a
// breadth-first same-domain crawl from the homepage.
package discover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mirahq/ingest-manager/internal/logger"
)

const userAgent = "Mozilla/5.0 (compatible; IngestManager/1.0)"

// maxChildSitemaps bounds how many child sitemaps of a sitemap index are
// fetched before giving up on the sitemap path.
const maxChildSitemaps = 10

// maxResponseBytes limits the size of any fetched page or sitemap.
const maxResponseBytes = 10 * 1024 * 1024

var sitemapPaths = []string{"/sitemap.xml", "/sitemap_index.xml"}

// assetExtensions matches obvious binary asset links skipped during crawl.
var assetExtensions = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|webp|svg|ico|css|js|pdf|zip|mp4|mp3|woff2?)$`)

// Discoverer finds candidate URLs under a root domain.
type Discoverer struct {
	client  *http.Client
	logger  logger.Logger
	maxURLs int
}

// Config tunes discovery.
type Config struct {
	MaxURLs int
	Timeout time.Duration
}

// New creates a Discoverer.
func New(cfg Config, log logger.Logger) *Discoverer {
	return &Discoverer{
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  log,
		maxURLs: cfg.MaxURLs,
	}
}

// DiscoverURLs returns at most maxURLs same-domain page URLs for domainURL,
// insertion-ordered and deduplicated. Sitemaps win when they yield anything;
// otherwise a BFS crawl from the homepage fills the set.
func (d *Discoverer) DiscoverURLs(ctx context.Context, domainURL string) ([]string, error) {
	base, err := url.Parse(domainURL)
	if err != nil {
		return nil, fmt.Errorf("parse domain url: %w", err)
	}

	if urls := d.fromSitemaps(ctx, base); len(urls) > 0 {
		return urls, nil
	}

	return d.crawl(ctx, base), nil
}

// fromSitemaps collects same-domain <loc> entries from the conventional
// sitemap locations, expanding one level of sitemap index.
func (d *Discoverer) fromSitemaps(ctx context.Context, base *url.URL) []string {
	seen := make(map[string]bool)
	var urls []string

	for _, path := range sitemapPaths {
		smURL := base.Scheme + "://" + base.Host + path

		body, ok := d.fetchXML(ctx, smURL)
		if !ok {
			continue
		}

		locs, parseErr := parseSitemap(body)
		if parseErr != nil || len(locs) == 0 {
			locs = d.expandSitemapIndex(ctx, body)
		}

		for _, loc := range locs {
			cleaned := cleanURL(loc)
			if cleaned == "" || !sameDomain(base, cleaned) || seen[cleaned] {
				continue
			}
			seen[cleaned] = true
			urls = append(urls, cleaned)
			if len(urls) >= d.maxURLs {
				return urls
			}
		}

		if len(urls) > 0 {
			return urls
		}
	}

	return urls
}

// expandSitemapIndex fetches child sitemaps listed in a sitemap index and
// returns their page URLs.
func (d *Discoverer) expandSitemapIndex(ctx context.Context, body []byte) []string {
	children, err := parseSitemapIndex(body)
	if err != nil {
		return nil
	}
	if len(children) > maxChildSitemaps {
		children = children[:maxChildSitemaps]
	}

	var locs []string
	for _, child := range children {
		childBody, ok := d.fetchXML(ctx, child)
		if !ok {
			continue
		}
		childLocs, parseErr := parseSitemap(childBody)
		if parseErr != nil {
			continue
		}
		locs = append(locs, childLocs...)
	}
	return locs
}

// fetchXML fetches a sitemap URL, requiring a 2xx status and an XML-ish
// content type.
func (d *Discoverer) fetchXML(ctx context.Context, rawURL string) ([]byte, bool) {
	body, contentType, err := d.get(ctx, rawURL)
	if err != nil {
		return nil, false
	}
	if !strings.Contains(strings.ToLower(contentType), "xml") {
		return nil, false
	}
	return body, true
}

// crawl walks same-domain links breadth-first from the homepage.
func (d *Discoverer) crawl(ctx context.Context, base *url.URL) []string {
	root := base.Scheme + "://" + base.Host

	queue := []string{root}
	seen := map[string]bool{root: true}
	var urls []string

	for len(queue) > 0 && len(urls) < d.maxURLs {
		if ctx.Err() != nil {
			break
		}

		current := queue[0]
		queue = queue[1:]

		body, contentType, err := d.get(ctx, current)
		if err != nil {
			continue
		}
		if contentType != "" && !strings.Contains(strings.ToLower(contentType), "html") {
			continue
		}

		urls = append(urls, cleanURL(current))

		for _, next := range extractLinks(current, body) {
			if !sameDomain(base, next) || seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}

	return urls
}

// extractLinks pulls crawlable same-page links out of an HTML body.
func extractLinks(pageURL string, body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	current, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		if strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}

		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return
		}
		next := cleanURL(current.ResolveReference(ref).String())
		if !strings.HasPrefix(next, "http://") && !strings.HasPrefix(next, "https://") {
			return
		}
		if assetExtensions.MatchString(next) {
			return
		}
		links = append(links, next)
	})

	return links
}

func (d *Discoverer) get(ctx context.Context, rawURL string) (body []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// cleanURL strips the fragment and any trailing slash so duplicates collapse.
func cleanURL(raw string) string {
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

func sameDomain(base *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host == base.Host
}
