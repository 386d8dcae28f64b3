// Package postgres stores the key-value entries in PostgreSQL through GORM.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"foodbridge/config"
	"foodbridge/internal/errors"

	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	poolStatsInterval   = 5 * time.Second
	poolWaitWarnAfter   = 50 * time.Millisecond
	commitSlowThreshold = 200 * time.Millisecond
	pingTimeout         = 10 * time.Second
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the primary (and any replicas) configured under postgres. The
// connection is verified on start and closed on stop.
func New(params Params) (*gorm.DB, error) {
	db, err := pgLib.New(params.Config.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PostgreSQL client")
	}

	// Commits open their own transaction; single statements need none.
	db = db.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		Logger:                 newQueryLogger(params.Logger, params.Config.Env.Debug),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	statsCtx, stopStats := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, pingTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping PostgreSQL")
			}

			go watchPool(statsCtx, params.Logger, sqlDB)

			return nil
		},
		OnStop: func(context.Context) error {
			stopStats()

			return errors.WithStack(sqlDB.Close())
		},
	})

	return db, nil
}

// watchPool reports callers that had to wait for a connection. Every store
// commit takes one, so waits mean the pool is smaller than the request load.
func watchPool(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	last := sqlDB.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stats := sqlDB.Stats()
		waits := stats.WaitCount - last.WaitCount
		waited := stats.WaitDuration - last.WaitDuration
		last = stats

		if waits <= 0 {
			continue
		}

		level := slog.LevelDebug
		if waited >= poolWaitWarnAfter {
			level = slog.LevelWarn
		}

		logger.LogAttrs(ctx, level, "Store connections waited for",
			slog.Int64("waits", waits),
			slog.Duration("waited", waited),
			slog.Duration("avg_wait", waited/time.Duration(waits)),
			slog.Int("open", stats.OpenConnections),
			slog.Int("in_use", stats.InUse),
			slog.Int("max_open", stats.MaxOpenConnections),
		)
	}
}
