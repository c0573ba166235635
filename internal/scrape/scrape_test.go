package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchExtractsTitleAndText(t *testing.T) {
	server := newTestServer(t, `<html>
<head><title> Acme Pricing </title><style>body { color: red }</style></head>
<body>
  <script>console.log("ignored")</script>
  <noscript>enable js</noscript>
  <svg><path d="M0 0"/></svg>
  <h1>Plans</h1>
  <p>Simple   pricing
  for    everyone.</p>
</body></html>`)

	page, err := New(5*time.Second).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Acme Pricing", page.Title)
	assert.Equal(t, "Plans Simple pricing for everyone.", page.Text)
	assert.Empty(t, page.DocumentURLs)
}

func TestFetchCollectsDocumentLinks(t *testing.T) {
	server := newTestServer(t, `<html><body>
  <a href="/files/report.pdf">Report</a>
  <a href="/files/report.pdf">Report again</a>
  <a href="https://cdn.example/deck.PPTX?v=2">Deck</a>
  <a href="/files/data.xlsx#sheet1">Data</a>
  <a href="/about">About</a>
  <a href="/files/image.png">Image</a>
</body></html>`)

	page, err := New(5*time.Second).Fetch(context.Background(), server.URL+"/docs/index.html")
	require.NoError(t, err)

	assert.Equal(t, []string{
		server.URL + "/files/report.pdf",
		"https://cdn.example/deck.PPTX?v=2",
		server.URL + "/files/data.xlsx#sheet1",
	}, page.DocumentURLs)
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(5*time.Second).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchCapsPageText(t *testing.T) {
	huge := strings.Repeat("word ", maxPageText)
	server := newTestServer(t, "<html><body><p>"+huge+"</p></body></html>")

	page, err := New(5*time.Second).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.Text), maxPageText)
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(5*time.Second).Fetch(ctx, server.URL)
	assert.Error(t, err)
}

func TestHasDocumentExtension(t *testing.T) {
	assert.True(t, hasDocumentExtension("/a/report.pdf"))
	assert.True(t, hasDocumentExtension("/a/REPORT.DOCX"))
	assert.True(t, hasDocumentExtension("/a/deck.pptx?dl=1"))
	assert.False(t, hasDocumentExtension("/a/page.html"))
	assert.False(t, hasDocumentExtension("/a/archive.pdf.html"))
}
