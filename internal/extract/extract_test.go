package extract

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDocx builds a minimal DOCX archive containing the given paragraphs.
func writeDocx(t *testing.T, paragraphs ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)

	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	body := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	body += `</w:body></w:document>`
	_, err = doc.Write([]byte(body))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return path
}

func TestDocxText(t *testing.T) {
	path := writeDocx(t, "First paragraph.", "Second paragraph.")

	text, err := DocxText(path)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestDocxTextSplitRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	// A single paragraph split across runs, as word processors often emit.
	_, err = doc.Write([]byte(`<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Hel</w:t></w:r><w:r><w:t>lo world</w:t></w:r></w:p>
</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	text, docErr := DocxText(path)
	require.NoError(t, docErr)
	assert.Equal(t, "Hello world", text)
}

func TestDocxTextMissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	part, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = DocxText(path)
	assert.Error(t, err)
}

func TestDocxTextRejectsNonZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-zip.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := DocxText(path)
	assert.Error(t, err)
}

func TestPDFTextMissingFile(t *testing.T) {
	_, err := PDFText(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestURLsDeduplicatesAndCaps(t *testing.T) {
	var text string
	for i := range 15 {
		text += fmt.Sprintf("see https://example.com/page-%d and ", i)
	}
	text += "again https://example.com/page-0 plus http://other.example/x."

	urls := URLs(text)

	assert.Len(t, urls, maxExtractedURLs)
	assert.Equal(t, "https://example.com/page-0", urls[0])

	seen := make(map[string]bool)
	for _, u := range urls {
		assert.False(t, seen[u], "duplicate url %s", u)
		seen[u] = true
	}
}

func TestURLsTrimsTrailingPunctuation(t *testing.T) {
	urls := URLs("read https://example.com/doc. then https://example.com/faq;")
	assert.Equal(t, []string{"https://example.com/doc", "https://example.com/faq"}, urls)
}

func TestURLsEmptyInput(t *testing.T) {
	assert.Empty(t, URLs("no links here"))
}
