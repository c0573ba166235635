package repository

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirahq/ingest-manager/internal/models"
	"github.com/mirahq/ingest-manager/internal/testhelpers"
)

// openIntegrationDB connects to the database named by TEST_DATABASE_URL and
// applies migrations. Tests using it are skipped when the variable is unset.
func openIntegrationDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, testhelpers.RunMigrations(context.Background(), db.DB, testhelpers.NewTestLogger()))
	return db
}

func TestClaimNextPendingSingleWinner(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	repo := NewSourceRepository(db, testhelpers.NewTestLogger())

	source := &models.Source{
		UserID:     "integration-user",
		Name:       "claim race",
		SourceType: models.SourceTypeWebsite,
		Status:     models.SourceStatusPending,
	}
	require.NoError(t, repo.Create(ctx, source))
	t.Cleanup(func() { _ = repo.Delete(ctx, source.ID) })

	const claimants = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.ClaimNextPending(ctx)
			if err != nil {
				return
			}
			if claimed.ID == source.ID {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestQueueThenClaimRoundTrip(t *testing.T) {
	db := openIntegrationDB(t)
	ctx := context.Background()
	repo := NewSourceRepository(db, testhelpers.NewTestLogger())

	source := &models.Source{
		UserID:     "integration-user",
		Name:       "round trip",
		SourceType: models.SourceTypeDocument,
	}
	require.NoError(t, repo.Create(ctx, source))
	t.Cleanup(func() { _ = repo.Delete(ctx, source.ID) })

	require.NoError(t, repo.Queue(ctx, source.ID))

	claimed, err := repo.ClaimNextPending(ctx)
	require.NoError(t, err)
	if claimed.ID != source.ID {
		t.Skipf("another pending source %s was claimed first", claimed.ID)
	}

	assert.Equal(t, models.SourceStatusRunning, claimed.Status)
	assert.Empty(t, claimed.ErrorMessage)
	assert.Zero(t, claimed.ProcessedItems)

	require.NoError(t, repo.Finalize(ctx, source.ID, models.SourceStatusDone, ""))
	progress, err := repo.GetProgress(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SourceStatusDone, progress.Status)
}
