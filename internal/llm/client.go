// Package llm wraps the Anthropic API behind summarization and tagging
// helpers used by the source processors.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mirahq/ingest-manager/internal/logger"
)

// messageCreator is the slice of the Anthropic client the package uses.
// Tests substitute a stub so no network calls happen.
type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Config carries the model settings for a Client.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	// TagsEnabled routes ExtractTags through the model; when false the
	// local keyword extractor answers instead.
	TagsEnabled bool
}

// Client issues completion requests and recovers plain text answers.
type Client struct {
	messages    messageCreator
	model       anthropic.Model
	maxTok      int64
	tagsEnabled bool
	logger      logger.Logger
}

// New creates a Client talking to the Anthropic API.
func New(cfg Config, log logger.Logger) *Client {
	api := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		messages:    &api.Messages,
		model:       anthropic.Model(cfg.Model),
		maxTok:      cfg.MaxTokens,
		tagsEnabled: cfg.TagsEnabled,
		logger:      log,
	}
}

// newWithMessages wires a stub message creator. Test hook.
func newWithMessages(m messageCreator, model string, maxTokens int64, tagsEnabled bool, log logger.Logger) *Client {
	return &Client{
		messages:    m,
		model:       anthropic.Model(model),
		maxTok:      maxTokens,
		tagsEnabled: tagsEnabled,
		logger:      log,
	}
}

// complete sends one system+user exchange and returns the text answer.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTok,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	text := recoverText(msg)
	if text == "" {
		return "", fmt.Errorf("anthropic response %s contained no text (stop reason %s)", msg.ID, msg.StopReason)
	}
	return text, nil
}

// recoverText concatenates the text content blocks of a response.
func recoverText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(b.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
