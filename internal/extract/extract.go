// Package extract pulls plain text out of PDF and DOCX files and harvests
// URLs embedded in free text.
package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxDocumentText caps extracted document text before summarization.
const maxDocumentText = 60000

// maxExtractedURLs bounds how many embedded links a document contributes.
const maxExtractedURLs = 10

var urlPattern = regexp.MustCompile(`https?://[^\s)\]}<>"']+`)

// PDFText extracts the plain text of the PDF at path.
func PDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, textErr := page.GetPlainText(nil)
		if textErr != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		if sb.Len() > maxDocumentText {
			break
		}
	}

	text := strings.TrimSpace(sb.String())
	if len(text) > maxDocumentText {
		text = text[:maxDocumentText]
	}
	return text, nil
}

// DocxText extracts the visible text of the DOCX at path by walking the
// word/document.xml part of the archive.
func DocxText(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}
	defer docXML.Close()

	text, err := docxBodyText(docXML)
	if err != nil {
		return "", err
	}
	if len(text) > maxDocumentText {
		text = text[:maxDocumentText]
	}
	return text, nil
}

// docxBodyText walks the XML token stream collecting text runs, with a
// newline per paragraph.
func docxBodyText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

// URLs returns up to maxExtractedURLs distinct http(s) URLs found in text,
// in order of first appearance.
func URLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var urls []string
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:")
		if seen[m] {
			continue
		}
		seen[m] = true
		urls = append(urls, m)
		if len(urls) >= maxExtractedURLs {
			break
		}
	}
	return urls
}
