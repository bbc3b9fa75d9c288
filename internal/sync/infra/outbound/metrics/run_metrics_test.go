package metrics

import (
	"context"
	"testing"
	"time"

	sharedMetrics "github.com/davicafu/possync/internal/shared/infra/platform/metrics"
	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunMetrics_ObserveRun(t *testing.T) {
	// ARRANGE
	m := NewRunMetrics(sharedMetrics.NewRegistry("", "possync"), zap.NewNop())
	start := time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)
	summary := syncDomain.RunSummary{
		Status:          syncDomain.StatusSuccess,
		SalesSynced:     2,
		PurchasesSynced: 1,
		SalesDuplicates: 4,
		ProfilesAdded:   2,
		TrackedInvoices: 10,
		StartedAt:       start,
		FinishedAt:      start.Add(3 * time.Second),
	}

	// ACT
	require.NoError(t, m.ObserveRun(context.Background(), summary))
	require.NoError(t, m.ObserveRun(context.Background(), syncDomain.RunSummary{Status: syncDomain.StatusError}))

	// ASSERT
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Synced.WithLabelValues(string(syncDomain.KindSale))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Synced.WithLabelValues(string(syncDomain.KindPurchase))))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Duplicates.WithLabelValues(string(syncDomain.KindSale))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProfilesAdded))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LastDuration))
	assert.Equal(t, float64(start.Add(3*time.Second).Unix()), testutil.ToFloat64(m.LastSuccess))
}
