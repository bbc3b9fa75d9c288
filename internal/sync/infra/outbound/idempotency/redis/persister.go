package redis

import (
	"context"
	"sort"
	"time"

	"github.com/davicafu/possync/internal/sync/infra/outbound/idempotency"
	"github.com/go-redis/redis/v8"
)

const DefaultKey = "possync:synced_invoices"

// Persister guarda las facturas sincronizadas como un SET de Redis.
type Persister struct {
	client *redis.Client
	key    string
}

var _ idempotency.Persister = (*Persister)(nil)

func NewPersister(client *redis.Client, key string) *Persister {
	if key == "" {
		key = DefaultKey
	}
	return &Persister{client: client, key: key}
}

func (p *Persister) Load(ctx context.Context) ([]string, error) {
	ids, err := p.client.SMembers(ctx, p.key).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, idempotency.ErrStateNotFound
	}
	sort.Strings(ids)
	return ids, nil
}

// Save reescribe el SET dentro de MULTI/EXEC.
func (p *Persister) Save(ctx context.Context, ids []string) error {
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.key)
		if len(members) > 0 {
			pipe.SAdd(ctx, p.key, members...)
		}
		pipe.Set(ctx, p.key+":last_updated", time.Now().UTC().Format(time.RFC3339), 0)
		return nil
	})
	return err
}
