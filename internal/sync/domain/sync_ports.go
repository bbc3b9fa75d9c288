package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidRecord    = errors.New("invalid record")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrSourceRequest    = errors.New("source request failed")
	ErrDeliveryFailed   = errors.New("delivery failed")
)

// --- Origen de registros (RICS) ---
type RecordSource interface {
	FetchSales(ctx context.Context, w Window) ([]Sale, error)
	FetchPurchases(ctx context.Context, w Window) PurchaseFetch
}

// --- Sink de eventos (Klaviyo) ---
type EventSink interface {
	DeliverEvent(ctx context.Context, evt NormalizedEvent) bool
	// DeliverBatch sólo devuelve error si el lote no pudo intentarse; los fallos
	// individuales se cuentan en BatchOutcome.Failed.
	DeliverBatch(ctx context.Context, events []NormalizedEvent) (BatchOutcome, error)
	UpsertProfile(ctx context.Context, email string, properties map[string]any) bool
	CheckConnection(ctx context.Context) error
}

// --- Registro de identificadores entregados ---
type DeliveredStore interface {
	Contains(id string) bool
	MarkDelivered(ctx context.Context, ids []string)
	Count() int
	// CheckSize avisa si el registro supera el umbral configurado. Nunca descarta identificadores.
	CheckSize() bool
}

// RunObserver recibe el resumen de cada ejecución (métricas, publicación, histórico).
type RunObserver interface {
	ObserveRun(ctx context.Context, summary RunSummary) error
}
