package llm

import (
	"context"
	"fmt"
	"strings"
)

// maxImportantLinks bounds how many document links a page summary surfaces.
const maxImportantLinks = 3

const pageSystemPrompt = "You summarize web pages for a content ingestion " +
	"service. Write exactly two short paragraphs in plain prose: the first " +
	"describing what the page is about, the second describing who it is for " +
	"and what a reader can do there. Do not use headings or bullet points."

const documentSystemPrompt = "You summarize uploaded documents for a content " +
	"ingestion service. Write exactly three short paragraphs in plain prose " +
	"covering the document's purpose, its main content, and its key " +
	"takeaways. Do not use headings or bullet points."

const sheetSystemPrompt = "You summarize spreadsheets for a content " +
	"ingestion service. Given sheet names and their column headers, write " +
	"two short paragraphs describing what data the file holds and how it " +
	"appears to be organized. Do not use headings or bullet points."

// SummarizePage summarizes one page's text and appends an Important links
// section listing up to three of the page's document links.
func (c *Client) SummarizePage(ctx context.Context, pageURL, title, text string, documentURLs []string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "URL: %s\n", pageURL)
	if title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", title)
	}
	sb.WriteString("\nPage text:\n")
	sb.WriteString(text)

	summary, err := c.complete(ctx, pageSystemPrompt, sb.String())
	if err != nil {
		return "", err
	}

	return summary + "\n\n" + importantLinks(documentURLs), nil
}

// importantLinks renders the trailing links section every page summary ends
// with, "None" when the page had no document links.
func importantLinks(documentURLs []string) string {
	if len(documentURLs) == 0 {
		return "Important links:\nNone"
	}
	if len(documentURLs) > maxImportantLinks {
		documentURLs = documentURLs[:maxImportantLinks]
	}
	return "Important links:\n" + strings.Join(documentURLs, "\n")
}

// SummarizeDocument summarizes extracted document text, giving the model the
// original filename as context. Links found inside the document are appended
// the same way page summaries carry them, "None" when there were none.
func (c *Client) SummarizeDocument(ctx context.Context, filename, text string, links []string) (string, error) {
	user := fmt.Sprintf("Filename: %s\n\nDocument text:\n%s", filename, text)

	summary, err := c.complete(ctx, documentSystemPrompt, user)
	if err != nil {
		return "", err
	}
	return summary + "\n\n" + importantLinks(links), nil
}

// SummarizeSheet summarizes a spreadsheet digest, giving the model the source
// name and the user-supplied context alongside the structural overview.
func (c *Client) SummarizeSheet(ctx context.Context, name, sourceContext, digest string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source name: %s\n", name)
	if sourceContext != "" {
		fmt.Fprintf(&sb, "Context from the user: %s\n", sourceContext)
	}
	sb.WriteString("\n")
	sb.WriteString(digest)
	return c.complete(ctx, sheetSystemPrompt, sb.String())
}
