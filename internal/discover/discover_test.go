package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirahq/ingest-manager/internal/testhelpers"
)

func newDiscoverer(maxURLs int) *Discoverer {
	return New(Config{MaxURLs: maxURLs, Timeout: 5 * time.Second}, testhelpers.NewTestLogger())
}

func TestDiscoverURLsPrefersSitemap(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/about</loc></url>
  <url><loc>%s/blog/post-1</loc></url>
  <url><loc>%s/blog/post-1#comments</loc></url>
  <url><loc>https://other.example/page</loc></url>
</urlset>`, server.URL, server.URL, server.URL)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	urls, err := newDiscoverer(100).DiscoverURLs(context.Background(), server.URL)
	require.NoError(t, err)

	// Cross-domain entries are dropped; the fragment duplicate collapses.
	assert.Equal(t, []string{server.URL + "/about", server.URL + "/blog/post-1"}, urls)
}

func TestDiscoverURLsExpandsSitemapIndex(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>%s/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`, server.URL)
	})
	mux.HandleFunc("/sitemap-pages.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/pricing</loc></url>
</urlset>`, server.URL)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	urls, err := newDiscoverer(100).DiscoverURLs(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL + "/pricing"}, urls)
}

func TestDiscoverURLsRespectsCap(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
		for i := range 20 {
			fmt.Fprintf(w, "<url><loc>%s/page-%d</loc></url>", server.URL, i)
		}
		fmt.Fprint(w, `</urlset>`)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	urls, err := newDiscoverer(5).DiscoverURLs(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, urls, 5)
}

func TestDiscoverURLsFallsBackToCrawl(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
			<a href="/about">About</a>
			<a href="/about#team">Team</a>
			<a href="%s/pricing">Pricing</a>
			<a href="https://other.example/away">Away</a>
			<a href="mailto:hello@acme.example">Mail</a>
			<a href="tel:+15551234">Call</a>
			<a href="javascript:void(0)">JS</a>
			<a href="/logo.png">Logo</a>
		</body></html>`, server.URL)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/">Home</a></body></html>`)
	})
	mux.HandleFunc("/pricing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>Pricing</body></html>`)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	urls, err := newDiscoverer(100).DiscoverURLs(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{server.URL, server.URL + "/about", server.URL + "/pricing"}, urls)
}

func TestCleanURL(t *testing.T) {
	assert.Equal(t, "https://a.example/x", cleanURL("https://a.example/x#frag"))
	assert.Equal(t, "https://a.example/x", cleanURL("https://a.example/x/"))
	assert.Equal(t, "https://a.example", cleanURL(" https://a.example/ "))
}
