package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewValueScanRoundTrip(t *testing.T) {
	original := Preview{
		Headers: []string{"Name", "Email", "Plan"},
		Rows: [][]string{
			{"Ada", "ada@example.com", "pro"},
			{"Grace", "grace@example.com", "free"},
		},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var scanned Preview
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)
}

func TestPreviewScanNil(t *testing.T) {
	scanned := Preview{Headers: []string{"stale"}}
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsEmpty())
}

func TestPreviewScanRejectsUnexpectedType(t *testing.T) {
	var p Preview
	assert.Error(t, p.Scan(42))
}

func TestPreviewIsEmpty(t *testing.T) {
	assert.True(t, Preview{}.IsEmpty())
	assert.False(t, Preview{Headers: []string{"A"}}.IsEmpty())
	assert.False(t, Preview{Rows: [][]string{{"1"}}}.IsEmpty())
}
