package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirahq/ingest-manager/internal/testhelpers"
)

func TestNilPublisherDropsEvents(t *testing.T) {
	var p *Publisher

	assert.NoError(t, p.Publish(context.Background(), SourceEvent{Type: TypeSourceQueued}))
	assert.NotPanics(t, func() { p.PublishAsync(SourceEvent{Type: TypeSourceQueued}) })
}

func TestPublisherWithoutClientDropsEvents(t *testing.T) {
	p := NewPublisher(nil, testhelpers.NewTestLogger())

	assert.NoError(t, p.Publish(context.Background(), SourceEvent{Type: TypeSourceStarted}))
	assert.NotPanics(t, func() { p.PublishAsync(SourceEvent{Type: TypeSourceFailed}) })
}
