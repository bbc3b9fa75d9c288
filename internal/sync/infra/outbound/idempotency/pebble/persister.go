package pebble

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/davicafu/possync/internal/sync/infra/outbound/idempotency"
)

var (
	keyPrefix = []byte("invoice/")
	keyEnd    = []byte("invoice0") // '0' es el byte siguiente a '/'
)

// Persister guarda cada factura como una clave en PebbleDB.
type Persister struct {
	db *pebble.DB
}

var _ idempotency.Persister = (*Persister)(nil)

func NewPersister(dir string) (*Persister, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Persister{db: db}, nil
}

func (p *Persister) Close() error { return p.db.Close() }

func (p *Persister) Load(ctx context.Context) ([]string, error) {
	it, err := p.db.NewIter(&pebble.IterOptions{LowerBound: keyPrefix, UpperBound: keyEnd})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ids []string
	for it.First(); it.Valid(); it.Next() {
		ids = append(ids, string(it.Key()[len(keyPrefix):]))
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, idempotency.ErrStateNotFound
	}
	return ids, nil
}

// Save borra el rango completo y escribe el conjunto nuevo en un único batch sincronizado.
func (p *Persister) Save(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := p.db.NewBatch()
	defer b.Close()

	if err := b.DeleteRange(keyPrefix, keyEnd, nil); err != nil {
		return err
	}
	for _, id := range ids {
		key := append(append([]byte(nil), keyPrefix...), id...)
		if err := b.Set(key, nil, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}
