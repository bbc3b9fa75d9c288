package idempotency

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	sharedUtils "github.com/davicafu/possync/internal/shared/infra/utils"
	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"go.uber.org/zap"
)

// ErrStateNotFound indica que todavía no existe estado persistido.
var ErrStateNotFound = errors.New("idempotency state not found")

const (
	DefaultMaxRecords = 10000

	// saveTimeout acota la escritura cuando el contexto de la ejecución ya está cancelado.
	saveTimeout = 10 * time.Second
)

// Persister guarda y recupera el conjunto completo de identificadores entregados.
// Save siempre reescribe el estado entero; nunca añade.
type Persister interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

// Store mantiene en memoria los identificadores ya entregados y los persiste
// tras cada cambio. Los fallos de almacenamiento se registran y nunca se propagan.
type Store struct {
	persister   Persister
	ids         map[string]struct{}
	maxRecords  int
	saveRetries int
	retryDelay  time.Duration
	mu          sync.RWMutex
	log         *zap.Logger
}

var _ syncDomain.DeliveredStore = (*Store)(nil)

func NewStore(persister Persister, maxRecords int, log *zap.Logger) *Store {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &Store{
		persister:   persister,
		ids:         make(map[string]struct{}),
		maxRecords:  maxRecords,
		saveRetries: 3,
		retryDelay:  200 * time.Millisecond,
		log:         log,
	}
}

// Load reemplaza el estado en memoria por el persistido. Un almacenamiento
// ausente, corrupto o inaccesible deja el conjunto vacío.
func (s *Store) Load(ctx context.Context) {
	ids, err := s.persister.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{}, len(ids))

	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			s.log.Warn("No existing synced invoices state found, starting fresh")
		} else {
			s.log.Warn("⚠️ Could not load synced invoices, starting with empty state", zap.Error(err))
		}
		return
	}

	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	s.log.Info("Loaded previously synced invoices", zap.Int("count", len(s.ids)))
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// MarkDelivered añade los identificadores y persiste el conjunto completo.
// La escritura no hereda la cancelación de ctx: lo que el sink ya aceptó
// tiene que llegar a disco aunque la ejecución se esté abortando.
func (s *Store) MarkDelivered(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	s.mu.Lock()
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	snapshot := s.sortedLocked()
	s.mu.Unlock()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	err := sharedUtils.Retry(saveCtx, s.saveRetries, s.retryDelay, func() error {
		return s.persister.Save(saveCtx, snapshot)
	})
	if err != nil {
		s.log.Error("Error saving synced invoices, state kept in memory only",
			zap.Int("count", len(snapshot)),
			zap.Error(err),
		)
		return
	}
	s.log.Info("Marked invoices as synced",
		zap.Int("marked", len(ids)),
		zap.Int("total", len(snapshot)),
	)
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// CheckSize avisa cuando el conjunto supera el umbral. No hay política de
// compactación: ningún identificador se descarta.
func (s *Store) CheckSize() bool {
	count := s.Count()
	if count <= s.maxRecords {
		return false
	}
	s.log.Warn("⚠️ Synced invoices count exceeds limit",
		zap.Int("count", count),
		zap.Int("limit", s.maxRecords),
	)
	return true
}

// Snapshot devuelve los identificadores ordenados.
func (s *Store) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *Store) sortedLocked() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
