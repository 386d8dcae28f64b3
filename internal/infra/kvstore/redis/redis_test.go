package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"foodbridge/internal/infra/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a running Redis; set REDIS_ADDRESS to enable them.
func openTestBackend(t *testing.T) *Backend {
	t.Helper()

	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	backend, err := Open(ctx, Options{Addr: addr, KeyPrefix: "foodbridge-test:" + t.Name() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() {
		iter := backend.client.Scan(context.Background(), 0, backend.prefix+"*", 100).Iterator()
		for iter.Next(context.Background()) {
			backend.client.Del(context.Background(), iter.Val())
		}
		_ = backend.Close()
	})

	return backend
}

func TestBackend_CommitAndConflict(t *testing.T) {
	ctx := context.Background()
	backend := openTestBackend(t)

	require.NoError(t, backend.Commit(ctx, []kvstore.Write{{Key: "a", Value: []byte(`[1]`)}}))

	entry, ok, err := backend.Load(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1]`, string(entry.Value))
	assert.Equal(t, int64(1), entry.Version)

	err = backend.Commit(ctx, []kvstore.Write{{Key: "a", Value: []byte(`[2]`)}})
	require.ErrorIs(t, err, kvstore.ErrVersionConflict)

	require.NoError(t, backend.Commit(ctx, []kvstore.Write{{Key: "a", Value: []byte(`[2]`), ExpectedVersion: 1}}))
	entry, _, err = backend.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.Version)
}

func TestBackend_StoreTransactOverRedis(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(openTestBackend(t), kvstore.Options{}, nil)

	err := store.Transact(ctx, func(s kvstore.Session) error {
		return s.Save(ctx, "counter", []byte(`5`))
	})
	require.NoError(t, err)

	n, err := kvstore.Get(ctx, store, "counter", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
