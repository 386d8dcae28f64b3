package kv

import (
	"context"
	"log/slog"

	"foodbridge/config"
	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/errors"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/infra/kvstore/redis"
	"foodbridge/internal/infra/kvstore/sqlite"
	"foodbridge/internal/infra/persistence/postgres"

	"go.uber.org/fx"
)

const defaultSQLitePath = "foodbridge.db"

// StoreParams holds dependencies for the key-value store, injected by Fx.
type StoreParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewStore opens the configured backend and wraps it in a Store. The backend
// is closed on shutdown.
func NewStore(params StoreParams) (*kvstore.Store, error) {
	cfg := params.Config.Store

	backend, err := openBackend(params, cfg)
	if err != nil {
		return nil, err
	}

	params.Logger.Info("Key-value store opened", slog.String("backend", cfg.Backend))
	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return backend.Close()
		},
	})

	return kvstore.New(backend, storeOptions(cfg), params.Logger), nil
}

// NewSession exposes the immediate-commit store to the repositories.
func NewSession(store *kvstore.Store) kvstore.Session {
	return store
}

func openBackend(params StoreParams, cfg *config.StoreConfig) (kvstore.Backend, error) {
	switch cfg.Backend {
	case constants.StoreBackendMemory, "":
		return kvstore.NewMemoryBackend(cfg.QuotaBytes), nil

	case constants.StoreBackendSQLite:
		path := cfg.SQLite.Path
		if path == "" {
			path = defaultSQLitePath
		}

		backend, err := sqlite.Open(path, cfg.QuotaBytes)
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite store")
		}

		return backend, nil

	case constants.StoreBackendRedis:
		backend, err := redis.Open(params.Ctx, redis.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, errors.Wrap(err, "open redis store")
		}

		return backend, nil

	case constants.StoreBackendPostgres:
		if params.Config.Postgres == nil {
			return nil, errors.New("postgres store backend requires postgres configuration")
		}

		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lc,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		return postgres.NewKVBackend(db, params.Config)

	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// DefaultRetention caps the collection and image lists. Other keys are uncapped.
func DefaultRetention() map[string]kvstore.Retention {
	return map[string]kvstore.Retention{
		constants.KeyCollections: {MaxRecords: 20},
		constants.KeyImages:      {MaxRecords: 30, QuotaEvictTo: 10},
	}
}

func storeOptions(cfg *config.StoreConfig) kvstore.Options {
	opts := kvstore.Options{
		MaxValueBytes: cfg.MaxValueBytes,
		MaxRetries:    cfg.TransactionRetries,
		Retention:     DefaultRetention(),
	}

	for key, policy := range cfg.Retention {
		opts.Retention[key] = kvstore.Retention{
			MaxRecords:   policy.MaxRecords,
			EvictTo:      policy.EvictTo,
			QuotaEvictTo: policy.QuotaEvictTo,
		}
	}

	return opts
}

// SeedParams holds dependencies for the startup data seeding.
type SeedParams struct {
	fx.In

	Lc           fx.Lifecycle
	Config       *config.Config
	Logger       *slog.Logger
	DonationRepo repository.DonationRepository
	Clock        Clock
}

// RegisterSeed stores the sample donations on start when enabled and the
// store holds no donation yet.
func RegisterSeed(params SeedParams) {
	if !params.Config.Store.SeedSampleData {
		return
	}

	now := orNow(params.Clock)
	params.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			seeded, err := SeedSampleDonations(ctx, params.DonationRepo, now())
			if err != nil {
				return errors.Wrap(err, "seed sample donations")
			}
			if seeded {
				params.Logger.Info("Seeded sample donations")
			}

			return nil
		},
	})
}
