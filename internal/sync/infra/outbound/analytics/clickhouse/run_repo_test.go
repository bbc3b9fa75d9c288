package clickhouse

import (
	"context"
	"os"
	"testing"
	"time"

	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClickHouse(t *testing.T) *RunHistoryRepo {
	addr := os.Getenv("CLICKHOUSE_ADDR")
	if addr == "" {
		t.Skip("CLICKHOUSE_ADDR no está configurada, saltando test de integración con ClickHouse")
	}
	dbName := os.Getenv("CLICKHOUSE_DB")
	if dbName == "" {
		dbName = "default"
	}

	repo, err := NewRunHistoryRepo(addr, dbName)
	require.NoError(t, err)
	require.NoError(t, repo.InitSchema(context.Background()))
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRunHistoryRepo_RecordAndRead(t *testing.T) {
	repo := setupClickHouse(t)
	ctx := context.Background()
	finished := time.Now().UTC().Add(time.Hour).Truncate(time.Millisecond)
	summary := syncDomain.RunSummary{
		RunID:           uuid.NewString(),
		Status:          syncDomain.StatusSuccess,
		SalesSynced:     2,
		SalesDuplicates: 1,
		ProfilesAdded:   2,
		TotalProcessed:  3,
		TrackedInvoices: 5,
		Period:          &syncDomain.Period{FromDate: "2024-03-01T00:00:00Z", ToDate: "2024-03-08T00:00:00Z"},
		StartedAt:       finished.Add(-2 * time.Second),
		FinishedAt:      finished,
	}

	require.NoError(t, repo.ObserveRun(ctx, summary))

	runs, err := repo.RecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].RunID)
	assert.Equal(t, 1, runs[0].DuplicatesSkipped)
	assert.Equal(t, "2024-03-01T00:00:00Z", runs[0].Period.FromDate)
}
