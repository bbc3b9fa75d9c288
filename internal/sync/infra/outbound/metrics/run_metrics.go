package metrics

import (
	"context"

	sharedMetrics "github.com/davicafu/possync/internal/shared/infra/platform/metrics"
	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// RunMetrics traduce cada resumen de ejecución a métricas Prometheus.
type RunMetrics struct {
	registry *sharedMetrics.Registry

	Runs          *prometheus.CounterVec
	Synced        *prometheus.CounterVec
	Duplicates    *prometheus.CounterVec
	ProfilesAdded prometheus.Counter
	Tracked       prometheus.Gauge
	LastDuration  prometheus.Gauge
	LastSuccess   prometheus.Gauge

	log *zap.Logger
}

var _ syncDomain.RunObserver = (*RunMetrics)(nil)

func NewRunMetrics(registry *sharedMetrics.Registry, log *zap.Logger) *RunMetrics {
	m := &RunMetrics{
		registry: registry,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "possync_runs_total",
			Help: "Sync runs by final status.",
		}, []string{"status"}),
		Synced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "possync_events_synced_total",
			Help: "Events accepted by the sink.",
		}, []string{"kind"}),
		Duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "possync_duplicates_skipped_total",
			Help: "Records skipped because they were already delivered.",
		}, []string{"kind"}),
		ProfilesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "possync_profiles_added_total",
		}),
		Tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "possync_tracked_invoices",
			Help: "Identifiers currently held by the idempotency store.",
		}),
		LastDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "possync_last_run_duration_seconds",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "possync_last_success_timestamp_seconds",
		}),
		log: log,
	}
	registry.MustRegister(m.Runs, m.Synced, m.Duplicates, m.ProfilesAdded, m.Tracked, m.LastDuration, m.LastSuccess)
	return m
}

func (m *RunMetrics) ObserveRun(ctx context.Context, s syncDomain.RunSummary) error {
	m.Runs.WithLabelValues(string(s.Status)).Inc()
	m.Synced.WithLabelValues(string(syncDomain.KindSale)).Add(float64(s.SalesSynced))
	m.Synced.WithLabelValues(string(syncDomain.KindPurchase)).Add(float64(s.PurchasesSynced))
	m.Duplicates.WithLabelValues(string(syncDomain.KindSale)).Add(float64(s.SalesDuplicates))
	m.Duplicates.WithLabelValues(string(syncDomain.KindPurchase)).Add(float64(s.PurchasesDuplicates))
	m.ProfilesAdded.Add(float64(s.ProfilesAdded))
	m.Tracked.Set(float64(s.TrackedInvoices))
	if !s.FinishedAt.IsZero() && !s.StartedAt.IsZero() {
		m.LastDuration.Set(s.FinishedAt.Sub(s.StartedAt).Seconds())
	}
	if s.Succeeded() {
		m.LastSuccess.Set(float64(s.FinishedAt.Unix()))
	}

	if err := m.registry.Push(ctx); err != nil {
		return err
	}
	if m.registry.PushEnabled() {
		m.log.Debug("Metrics pushed", zap.String("run_id", s.RunID))
	}
	return nil
}
