package postgres

import (
	"context"
	"time"

	"foodbridge/config"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// kvBackend stores kvstore entries in the kv_entries table.
type kvBackend struct {
	db         *gorm.DB
	quotaBytes int64
}

// NewKVBackend migrates the kv_entries table and returns the backend.
func NewKVBackend(db *gorm.DB, cfg *config.Config) (kvstore.Backend, error) {
	if err := db.AutoMigrate(&model.KVEntryModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate kv_entries")
	}

	var quota int64
	if cfg != nil && cfg.Store != nil {
		quota = cfg.Store.QuotaBytes
	}

	return &kvBackend{db: db, quotaBytes: quota}, nil
}

// Load reads from the primary. A version read from a lagging replica would
// make every following commit fail its version check.
func (b *kvBackend) Load(ctx context.Context, key string) (kvstore.Entry, bool, error) {
	var entryM model.KVEntryModel

	if err := b.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("key = ?", key).
		First(&entryM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return kvstore.Entry{}, false, nil
		}

		return kvstore.Entry{}, false, errors.Wrapf(err, "failed to load %s", key)
	}

	return kvstore.Entry{Value: entryM.Value, Version: entryM.Version}, true, nil
}

func (b *kvBackend) Commit(ctx context.Context, writes []kvstore.Write) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for _, w := range writes {
			if err := applyKVWrite(tx, w, now); err != nil {
				return err
			}
		}

		if b.quotaBytes <= 0 {
			return nil
		}

		var used int64
		if err := tx.Model(&model.KVEntryModel{}).
			Select("COALESCE(SUM(octet_length(value)), 0)").
			Scan(&used).Error; err != nil {
			return errors.Wrap(err, "failed to measure usage")
		}
		if used > b.quotaBytes {
			return kvstore.ErrQuotaExceeded
		}

		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, kvstore.ErrVersionConflict), errors.Is(err, kvstore.ErrQuotaExceeded):
		return err
	case isUniqueConstraintViolation(err), isSerializationFailure(err):
		return kvstore.ErrVersionConflict
	case isOutOfSpace(err):
		return kvstore.ErrQuotaExceeded
	default:
		return errors.Wrap(err, "failed to commit kv entries")
	}
}

func applyKVWrite(tx *gorm.DB, w kvstore.Write, now time.Time) error {
	var result *gorm.DB

	switch w.ExpectedVersion {
	case kvstore.AnyVersion:
		result = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      gorm.Expr("excluded.value"),
				"version":    gorm.Expr("kv_entries.version + 1"),
				"updated_at": now,
			}),
		}).Create(&model.KVEntryModel{Key: w.Key, Value: w.Value, Version: 1, CreatedAt: now, UpdatedAt: now})
	case 0:
		result = tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.KVEntryModel{Key: w.Key, Value: w.Value, Version: 1, CreatedAt: now, UpdatedAt: now})
	default:
		result = tx.Model(&model.KVEntryModel{}).
			Where("key = ? AND version = ?", w.Key, w.ExpectedVersion).
			Updates(map[string]any{
				"value":      w.Value,
				"version":    gorm.Expr("version + 1"),
				"updated_at": now,
			})
	}

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return kvstore.ErrVersionConflict
	}

	return nil
}

func (b *kvBackend) Close() error {
	// The *gorm.DB is closed by the postgres fx lifecycle hook.
	return nil
}
