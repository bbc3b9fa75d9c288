package mocks

import (
	"context"
	"sort"
	"sync"

	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/davicafu/possync/internal/sync/infra/outbound/idempotency"
	"github.com/stretchr/testify/mock"
)

// MockRecordSource simula RICS
type MockRecordSource struct {
	mock.Mock
}

var _ syncDomain.RecordSource = (*MockRecordSource)(nil)

func (m *MockRecordSource) FetchSales(ctx context.Context, w syncDomain.Window) ([]syncDomain.Sale, error) {
	args := m.Called(ctx, w)
	sales, _ := args.Get(0).([]syncDomain.Sale)
	return sales, args.Error(1)
}

func (m *MockRecordSource) FetchPurchases(ctx context.Context, w syncDomain.Window) syncDomain.PurchaseFetch {
	args := m.Called(ctx, w)
	return args.Get(0).(syncDomain.PurchaseFetch)
}

// MockEventSink simula Klaviyo
type MockEventSink struct {
	mock.Mock
}

var _ syncDomain.EventSink = (*MockEventSink)(nil)

func (m *MockEventSink) DeliverEvent(ctx context.Context, evt syncDomain.NormalizedEvent) bool {
	args := m.Called(ctx, evt)
	return args.Bool(0)
}

func (m *MockEventSink) DeliverBatch(ctx context.Context, events []syncDomain.NormalizedEvent) (syncDomain.BatchOutcome, error) {
	args := m.Called(ctx, events)
	return args.Get(0).(syncDomain.BatchOutcome), args.Error(1)
}

func (m *MockEventSink) UpsertProfile(ctx context.Context, email string, properties map[string]any) bool {
	args := m.Called(ctx, email, properties)
	return args.Bool(0)
}

func (m *MockEventSink) CheckConnection(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRunObserver simula un observador de ejecuciones
type MockRunObserver struct {
	mock.Mock
}

var _ syncDomain.RunObserver = (*MockRunObserver)(nil)

func (m *MockRunObserver) ObserveRun(ctx context.Context, summary syncDomain.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

// MemoryPersister guarda el estado de idempotencia en memoria; sobrevive a
// "reinicios" mientras se reutilice la misma instancia.
type MemoryPersister struct {
	ids   []string
	Saves int
	mu    sync.Mutex
}

var _ idempotency.Persister = (*MemoryPersister)(nil)

func NewMemoryPersister(ids ...string) *MemoryPersister {
	return &MemoryPersister{ids: append([]string(nil), ids...)}
}

func (p *MemoryPersister) Load(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ids == nil {
		return nil, idempotency.ErrStateNotFound
	}
	return append([]string(nil), p.ids...), nil
}

func (p *MemoryPersister) Save(ctx context.Context, ids []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append([]string{}, ids...)
	sort.Strings(p.ids)
	p.Saves++
	return nil
}

// IDs devuelve el último estado guardado.
func (p *MemoryPersister) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}
