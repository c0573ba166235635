package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirahq/ingest-manager/internal/testhelpers"
)

// stubMessages fakes the Anthropic messages API. Responses are decoded from
// raw JSON so the SDK's union accessors behave as they do in production.
type stubMessages struct {
	responseJSON string
	err          error
	lastParams   anthropic.MessageNewParams
	calls        int
}

func (s *stubMessages) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	s.calls++
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}

	var msg anthropic.Message
	if err := json.Unmarshal([]byte(s.responseJSON), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func textResponse(text string) string {
	payload := map[string]any{
		"id":          "msg_test_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-3-5-haiku-latest",
		"stop_reason": "end_turn",
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func newStubClient(stub *stubMessages) *Client {
	return newWithMessages(stub, "claude-3-5-haiku-latest", 1024, true, testhelpers.NewTestLogger())
}

func newStubClientTagsDisabled(stub *stubMessages) *Client {
	return newWithMessages(stub, "claude-3-5-haiku-latest", 1024, false, testhelpers.NewTestLogger())
}

func TestCompleteRecoversText(t *testing.T) {
	stub := &stubMessages{responseJSON: textResponse("a fine summary")}
	client := newStubClient(stub)

	got, err := client.complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "a fine summary", got)

	assert.Equal(t, anthropic.Model("claude-3-5-haiku-latest"), stub.lastParams.Model)
	assert.Equal(t, int64(1024), stub.lastParams.MaxTokens)
	require.Len(t, stub.lastParams.System, 1)
	assert.Equal(t, "system", stub.lastParams.System[0].Text)
}

func TestCompleteConcatenatesTextBlocks(t *testing.T) {
	response := `{
		"id": "msg_test_2",
		"type": "message",
		"role": "assistant",
		"stop_reason": "end_turn",
		"content": [
			{"type": "text", "text": "part one"},
			{"type": "text", "text": " part two"}
		]
	}`
	client := newStubClient(&stubMessages{responseJSON: response})

	got, err := client.complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", got)
}

func TestCompleteEmptyResponseIsError(t *testing.T) {
	response := `{
		"id": "msg_empty",
		"type": "message",
		"role": "assistant",
		"stop_reason": "max_tokens",
		"content": []
	}`
	client := newStubClient(&stubMessages{responseJSON: response})

	_, err := client.complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "msg_empty")
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestCompletePropagatesAPIError(t *testing.T) {
	client := newStubClient(&stubMessages{err: errors.New("rate limited")})

	_, err := client.complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
