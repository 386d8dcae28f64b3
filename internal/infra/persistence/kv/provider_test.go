package kv

import (
	"context"
	"testing"

	"foodbridge/config"
	"foodbridge/internal/domain/constants"
	"foodbridge/internal/infra/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreOptions_DefaultsAndOverrides(t *testing.T) {
	opts := storeOptions(&config.StoreConfig{
		MaxValueBytes:      1024,
		TransactionRetries: 5,
		Retention: map[string]config.RetentionConfig{
			constants.KeyDonations: {MaxRecords: 100, EvictTo: 40},
			constants.KeyImages:    {MaxRecords: 12},
		},
	})

	assert.Equal(t, 1024, opts.MaxValueBytes)
	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, kvstore.Retention{MaxRecords: 20}, opts.Retention[constants.KeyCollections])
	assert.Equal(t, kvstore.Retention{MaxRecords: 100, EvictTo: 40}, opts.Retention[constants.KeyDonations])
	assert.Equal(t, 12, opts.Retention[constants.KeyImages].MaxRecords)
	assert.Zero(t, opts.Retention[constants.KeyImages].QuotaEvictTo)
}

func TestStorePolicy_AppliesDefaultTargets(t *testing.T) {
	store := kvstore.New(kvstore.NewMemoryBackend(0), storeOptions(&config.StoreConfig{}), nil)

	images := store.Policy(constants.KeyImages)
	assert.Equal(t, 30, images.MaxRecords)
	assert.Equal(t, kvstore.DefaultEvictTo, images.EvictTo)
	assert.Equal(t, 10, images.QuotaEvictTo)

	users := store.Policy(constants.KeyUsers)
	assert.Zero(t, users.MaxRecords)
	assert.Equal(t, kvstore.DefaultEvictTo, users.QuotaEvictTo)
}

func TestOpenBackend(t *testing.T) {
	params := StoreParams{Ctx: context.Background(), Config: &config.Config{}}

	backend, err := openBackend(params, &config.StoreConfig{Backend: constants.StoreBackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &kvstore.MemoryBackend{}, backend)

	_, err = openBackend(params, &config.StoreConfig{Backend: "cassandra"})
	require.Error(t, err)

	_, err = openBackend(params, &config.StoreConfig{Backend: constants.StoreBackendPostgres})
	require.Error(t, err)
}
