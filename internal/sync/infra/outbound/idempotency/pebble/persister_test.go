package pebble

import (
	"context"
	"testing"

	"github.com/davicafu/possync/internal/sync/infra/outbound/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPersister_EmptyIsNotFound(t *testing.T) {
	p, err := NewPersister(t.TempDir())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Load(context.Background())

	assert.ErrorIs(t, err, idempotency.ErrStateNotFound)
}

func TestPersister_SaveReplacesAndSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p, err := NewPersister(dir)
	require.NoError(t, err)
	require.NoError(t, p.Save(ctx, []string{"T1", "T2"}))
	require.NoError(t, p.Save(ctx, []string{"T2", "T3"}))
	require.NoError(t, p.Close())

	reopened, err := NewPersister(dir)
	require.NoError(t, err)
	defer reopened.Close()

	store := idempotency.NewStore(reopened, 0, zap.NewNop())
	store.Load(ctx)

	assert.Equal(t, []string{"T2", "T3"}, store.Snapshot())
}
