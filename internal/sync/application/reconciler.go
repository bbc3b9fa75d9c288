package application

import (
	"context"
	"fmt"

	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"go.uber.org/zap"
)

// Reconciler entrega los registros nuevos de un tipo y deduce, a partir del
// contador agregado que devuelve el sink, qué identificadores quedan entregados.
//
// El sink no devuelve resultado por elemento: se asume que los Accepted primeros
// eventos enviados (en el orden del fetch) son los entregados. Si el sink reordena
// o falla fuera de orden se marcará un subconjunto equivocado. No hay reintentos
// de envío dentro de una ejecución.
type Reconciler struct {
	store     syncDomain.DeliveredStore
	sink      syncDomain.EventSink
	formatter *syncDomain.Formatter
	log       *zap.Logger
}

func NewReconciler(store syncDomain.DeliveredStore, sink syncDomain.EventSink, formatter *syncDomain.Formatter, log *zap.Logger) *Reconciler {
	return &Reconciler{store: store, sink: sink, formatter: formatter, log: log}
}

// candidate es un registro ya formateado, pendiente de envío.
type candidate struct {
	id    string
	event syncDomain.NormalizedEvent
}

func (r *Reconciler) ReconcileSales(ctx context.Context, sales []syncDomain.Sale) (syncDomain.KindResult, error) {
	ids := make([]string, len(sales))
	for i, s := range sales {
		ids[i] = s.ID()
	}
	format := func(i int) (syncDomain.NormalizedEvent, error) { return r.formatter.FormatSale(sales[i]) }

	accepted, result, err := r.reconcile(ctx, syncDomain.KindSale, ids, format)

	// Perfiles para los primeros accepted registros del fetch, no para los marcados:
	// si hay duplicados al principio de la lista ambos conjuntos difieren.
	// Se actualizan aunque el lote haya fallado a mitad; lo marcado no se deshace.
	for _, sale := range sales[:max(0, min(accepted, len(sales)))] {
		email := sale.Email()
		if !syncDomain.ValidEmail(email) {
			continue
		}
		if r.sink.UpsertProfile(ctx, email, profileProperties(sale)) {
			result.ProfilesAdded++
			r.log.Info("Profile added to list", zap.String("email", email))
		} else {
			r.log.Warn("Failed to add profile to list", zap.String("email", email))
		}
	}
	return result, err
}

func (r *Reconciler) ReconcilePurchases(ctx context.Context, purchases []syncDomain.Purchase) (syncDomain.KindResult, error) {
	ids := make([]string, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID()
	}
	format := func(i int) (syncDomain.NormalizedEvent, error) { return r.formatter.FormatPurchase(purchases[i]) }

	_, result, err := r.reconcile(ctx, syncDomain.KindPurchase, ids, format)
	return result, err
}

// reconcile aplica filtro, formateo, envío y correlación. Devuelve el número
// de eventos que el sink aceptó.
func (r *Reconciler) reconcile(
	ctx context.Context,
	kind syncDomain.EventKind,
	ids []string,
	format func(i int) (syncDomain.NormalizedEvent, error),
) (int, syncDomain.KindResult, error) {
	var result syncDomain.KindResult
	seen := make(map[string]struct{}, len(ids))
	candidates := make([]candidate, 0, len(ids))

	for i, id := range ids {
		if id == "" {
			r.log.Warn("Record missing identifier, skipping", zap.String("kind", string(kind)))
			continue
		}
		if r.store.Contains(id) {
			r.log.Info("Skipping duplicate", zap.String("kind", string(kind)), zap.String("invoice", id))
			result.Duplicates++
			continue
		}
		if _, dup := seen[id]; dup {
			r.log.Warn("Identifier repeated in window, skipping", zap.String("kind", string(kind)), zap.String("invoice", id))
			result.Duplicates++
			continue
		}
		seen[id] = struct{}{}

		evt, err := format(i)
		if err != nil {
			r.log.Warn("Record excluded", zap.String("kind", string(kind)), zap.String("invoice", id), zap.Error(err))
			continue
		}
		candidates = append(candidates, candidate{id: id, event: evt})
	}
	// Los duplicados ya pasaron la validación cuando se entregaron.
	result.Valid = result.Duplicates + len(candidates)

	if len(candidates) == 0 {
		r.log.Info("No new records to sync", zap.String("kind", string(kind)))
		return 0, result, nil
	}

	events := make([]syncDomain.NormalizedEvent, len(candidates))
	for i, c := range candidates {
		events[i] = c.event
	}
	outcome, sendErr := r.sink.DeliverBatch(ctx, events)

	r.correlate(ctx, candidates, outcome.Accepted)
	result.Synced = outcome.Accepted
	r.log.Info("Batch reconciled",
		zap.String("kind", string(kind)),
		zap.Int("submitted", len(candidates)),
		zap.Int("accepted", outcome.Accepted),
		zap.Int("failed", outcome.Failed),
		zap.Int("duplicates", result.Duplicates),
	)
	if sendErr != nil {
		return outcome.Accepted, result, fmt.Errorf("%s delivery: %w", kind, sendErr)
	}
	return outcome.Accepted, result, nil
}

// correlate marca los primeros accepted identificadores enviados que sigan sin estar entregados.
func (r *Reconciler) correlate(ctx context.Context, candidates []candidate, accepted int) {
	if accepted <= 0 {
		return
	}
	delivered := make([]string, 0, accepted)
	for _, c := range candidates {
		if len(delivered) == accepted {
			break
		}
		if r.store.Contains(c.id) {
			continue
		}
		delivered = append(delivered, c.id)
	}
	if len(delivered) > 0 {
		r.store.MarkDelivered(ctx, delivered)
	}
}

func profileProperties(s syncDomain.Sale) map[string]any {
	return map[string]any{
		"First Name":     s.Customer.FirstName,
		"Last Name":      s.Customer.LastName,
		"Phone":          s.Customer.Phone,
		"Store Code":     s.StoreCode.String(),
		"Customer Since": s.TicketDateTime,
	}
}
