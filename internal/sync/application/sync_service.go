package application

import (
	"context"
	"time"

	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLookbackDays = 7
	noRecordsMessage    = "No sales or purchases found for the period."
)

// ServiceOption configura dependencias opcionales del SyncService.
type ServiceOption func(*SyncService)

// WithClock sustituye el reloj (ventana por defecto y marcas de tiempo del resumen).
func WithClock(now func() time.Time) ServiceOption {
	return func(s *SyncService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObservers registra observadores que reciben el resumen de cada ejecución.
func WithObservers(observers ...syncDomain.RunObserver) ServiceOption {
	return func(s *SyncService) {
		s.observers = append(s.observers, observers...)
	}
}

// WithLookbackDays fija la ventana por defecto cuando no se pasa una explícita.
func WithLookbackDays(days int) ServiceOption {
	return func(s *SyncService) {
		if days > 0 {
			s.lookbackDays = days
		}
	}
}

// SyncService orquesta una ejecución: fetch, reconciliación por tipo y resumen.
// Las ejecuciones son secuenciales; no protege frente a ejecuciones solapadas.
type SyncService struct {
	source       syncDomain.RecordSource
	sink         syncDomain.EventSink
	store        syncDomain.DeliveredStore
	reconciler   *Reconciler
	observers    []syncDomain.RunObserver
	lookbackDays int
	now          func() time.Time
	log          *zap.Logger
}

func NewSyncService(
	source syncDomain.RecordSource,
	sink syncDomain.EventSink,
	store syncDomain.DeliveredStore,
	reconciler *Reconciler,
	log *zap.Logger,
	opts ...ServiceOption,
) *SyncService {
	s := &SyncService{
		source:       source,
		sink:         sink,
		store:        store,
		reconciler:   reconciler,
		lookbackDays: DefaultLookbackDays,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ejecuta una sincronización. Con window nil usa los últimos lookbackDays.
// Nunca devuelve error: el fallo se refleja en el Status del resumen.
func (s *SyncService) Run(ctx context.Context, window *syncDomain.Window) syncDomain.RunSummary {
	startedAt := s.now().UTC()
	w := syncDomain.LookbackWindow(startedAt, s.lookbackDays)
	if window != nil {
		w = *window
	}

	summary := s.run(ctx, w)
	summary.RunID = uuid.NewString()
	summary.StartedAt = startedAt
	summary.FinishedAt = s.now().UTC()
	summary.TrackedInvoices = s.store.Count()

	s.store.CheckSize()
	s.notify(ctx, summary)
	return summary
}

func (s *SyncService) run(ctx context.Context, w syncDomain.Window) syncDomain.RunSummary {
	log := s.log.With(zap.Time("from", w.From), zap.Time("to", w.To))
	log.Info("🔄 Starting sync")

	sales, err := s.source.FetchSales(ctx, w)
	if err != nil {
		log.Error("❌ Sales fetch failed", zap.Error(err))
		return failed(err)
	}

	fetch := s.source.FetchPurchases(ctx, w)
	purchases := fetch.Purchases
	if fetch.Status == syncDomain.FetchFailed {
		log.Warn("⚠️ Purchase fetch failed, continuing with sales only", zap.Error(fetch.Reason))
		purchases = nil
	} else {
		log.Info("Purchases fetched", zap.Int("count", len(purchases)))
	}

	total := len(sales) + len(purchases)
	if total == 0 {
		log.Info(noRecordsMessage)
		return syncDomain.RunSummary{
			Status:  syncDomain.StatusSuccess,
			Message: noRecordsMessage,
			Period:  syncDomain.NewPeriod(w),
		}
	}
	log.Info("Records fetched", zap.Int("sales", len(sales)), zap.Int("purchases", len(purchases)))

	salesResult, err := s.reconciler.ReconcileSales(ctx, sales)
	if err != nil {
		log.Error("❌ Sales reconciliation failed", zap.Error(err))
		return failed(err)
	}

	var purchasesResult syncDomain.KindResult
	if len(purchases) > 0 {
		purchasesResult, err = s.reconciler.ReconcilePurchases(ctx, purchases)
		if err != nil {
			log.Error("❌ Purchase reconciliation failed", zap.Error(err))
			return failed(err)
		}
	}

	summary := syncDomain.RunSummary{
		Status:              syncDomain.StatusSuccess,
		SalesSynced:         salesResult.Synced,
		PurchasesSynced:     purchasesResult.Synced,
		SalesDuplicates:     salesResult.Duplicates,
		PurchasesDuplicates: purchasesResult.Duplicates,
		DuplicatesSkipped:   salesResult.Duplicates + purchasesResult.Duplicates,
		ProfilesAdded:       salesResult.ProfilesAdded,
		TotalProcessed:      salesResult.Valid + purchasesResult.Valid,
		Period:              syncDomain.NewPeriod(w),
	}
	log.Info("✅ Sync completed",
		zap.Int("synced", summary.SalesSynced+summary.PurchasesSynced),
		zap.Int("duplicates_skipped", summary.DuplicatesSkipped),
		zap.Int("profiles_added", summary.ProfilesAdded),
	)
	return summary
}

// TestConnections comprueba el origen (fetch de un día) y el sink.
func (s *SyncService) TestConnections(ctx context.Context) map[string]bool {
	results := make(map[string]bool, 2)

	if _, err := s.source.FetchSales(ctx, syncDomain.LookbackWindow(s.now().UTC(), 1)); err != nil {
		s.log.Error("RICS API connection test failed", zap.Error(err))
		results["rics_api"] = false
	} else {
		s.log.Info("RICS API connection test successful")
		results["rics_api"] = true
	}

	if err := s.sink.CheckConnection(ctx); err != nil {
		s.log.Error("Klaviyo API connection test failed", zap.Error(err))
		results["klaviyo_api"] = false
	} else {
		s.log.Info("Klaviyo API connection test successful")
		results["klaviyo_api"] = true
	}
	return results
}

func (s *SyncService) notify(ctx context.Context, summary syncDomain.RunSummary) {
	for _, o := range s.observers {
		if err := o.ObserveRun(ctx, summary); err != nil {
			s.log.Warn("Run observer failed", zap.String("run_id", summary.RunID), zap.Error(err))
		}
	}
}

// failed construye el resumen de error: contadores a cero, sin periodo.
func failed(err error) syncDomain.RunSummary {
	return syncDomain.RunSummary{Status: syncDomain.StatusError, Message: err.Error()}
}
