package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/davicafu/possync/internal/sync/infra/outbound/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "possync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPersister_EmptyTableIsNotFound(t *testing.T) {
	p, err := NewPersister(context.Background(), openTestDB(t))
	require.NoError(t, err)

	_, err = p.Load(context.Background())

	assert.ErrorIs(t, err, idempotency.ErrStateNotFound)
}

func TestPersister_SaveReplacesEverything(t *testing.T) {
	ctx := context.Background()
	p, err := NewPersister(ctx, openTestDB(t))
	require.NoError(t, err)

	require.NoError(t, p.Save(ctx, []string{"T1", "T2", "T3"}))
	require.NoError(t, p.Save(ctx, []string{"T2", "T4"}))

	ids, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T2", "T4"}, ids)
}

func TestPersister_WithStoreAcrossRestart(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p, err := NewPersister(ctx, db)
	require.NoError(t, err)

	store := idempotency.NewStore(p, 0, zap.NewNop())
	store.Load(ctx)
	store.MarkDelivered(ctx, []string{"T100"})

	reopened, err := NewPersister(ctx, db)
	require.NoError(t, err)
	restarted := idempotency.NewStore(reopened, 0, zap.NewNop())
	restarted.Load(ctx)

	assert.True(t, restarted.Contains("T100"))
}
