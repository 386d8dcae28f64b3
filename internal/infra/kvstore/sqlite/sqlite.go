// Package sqlite is the kvstore backend over an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"foodbridge/internal/errors"
	"foodbridge/internal/infra/kvstore"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Backend struct {
	db         *sql.DB
	quotaBytes int64
}

// Open opens (or creates) the database at path and applies pending migrations.
func Open(path string, quotaBytes int64) (*Backend, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("failed to run migrations: %w (also failed to close db: %v)", err, cerr)
		}

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Backend{db: db, quotaBytes: quotaBytes}, nil
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func (b *Backend) Load(ctx context.Context, key string) (kvstore.Entry, bool, error) {
	var entry kvstore.Entry
	err := b.db.QueryRowContext(ctx,
		"SELECT value, version FROM kv_entries WHERE key = ?", key,
	).Scan(&entry.Value, &entry.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return kvstore.Entry{}, false, nil
	}
	if err != nil {
		return kvstore.Entry{}, false, fmt.Errorf("failed to load %s: %w", key, err)
	}

	return entry, true, nil
}

func (b *Backend) Commit(ctx context.Context, writes []kvstore.Write) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, w := range writes {
		if err = applyWrite(ctx, tx, w, now); err != nil {
			return err
		}
	}

	if b.quotaBytes > 0 {
		var used int64
		if err = tx.QueryRowContext(ctx, "SELECT COALESCE(SUM(LENGTH(value)), 0) FROM kv_entries").Scan(&used); err != nil {
			return fmt.Errorf("failed to measure usage: %w", err)
		}
		if used > b.quotaBytes {
			err = kvstore.ErrQuotaExceeded

			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

func applyWrite(ctx context.Context, tx *sql.Tx, w kvstore.Write, now time.Time) error {
	var (
		res sql.Result
		err error
	)

	switch w.ExpectedVersion {
	case kvstore.AnyVersion:
		res, err = tx.ExecContext(ctx, `
			INSERT INTO kv_entries (key, value, version, updated_at) VALUES (?, ?, 1, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				version = kv_entries.version + 1,
				updated_at = excluded.updated_at`,
			w.Key, w.Value, now)
	case 0:
		res, err = tx.ExecContext(ctx, `
			INSERT INTO kv_entries (key, value, version, updated_at) VALUES (?, ?, 1, ?)
			ON CONFLICT(key) DO NOTHING`,
			w.Key, w.Value, now)
	default:
		res, err = tx.ExecContext(ctx, `
			UPDATE kv_entries SET value = ?, version = version + 1, updated_at = ?
			WHERE key = ? AND version = ?`,
			w.Value, now, w.Key, w.ExpectedVersion)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", w.Key, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", w.Key, err)
	}
	if affected == 0 {
		return kvstore.ErrVersionConflict
	}

	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
