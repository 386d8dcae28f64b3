package kvstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"foodbridge/internal/errors"
)

const (
	DefaultMaxValueBytes = 4 * 1024 * 1024
	DefaultEvictTo       = 15
	DefaultMaxRetries    = 3
)

// Retention is the per-key record policy. MaxRecords 0 means uncapped.
// EvictTo applies when the encoded list exceeds the size threshold and
// QuotaEvictTo when the backend rejects a write for quota.
type Retention struct {
	MaxRecords   int
	EvictTo      int
	QuotaEvictTo int
}

type Options struct {
	MaxValueBytes int
	MaxRetries    int
	Retention     map[string]Retention
}

// Session is a view of the store that repositories read and write through.
// Both *Store and *Tx are sessions.
type Session interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	// Atomic runs fn so that its reads and writes commit together.
	Atomic(ctx context.Context, fn func(Session) error) error
	Policy(key string) Retention
	MaxValueBytes() int
}

// Store is the immediate-commit session over a Backend.
type Store struct {
	backend Backend
	opts    Options
	logger  *slog.Logger

	// commitMu serialises commits issued by this process.
	commitMu sync.Mutex
}

func New(backend Backend, opts Options, logger *slog.Logger) *Store {
	if opts.MaxValueBytes <= 0 {
		opts.MaxValueBytes = DefaultMaxValueBytes
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		backend: backend,
		opts:    opts,
		logger:  logger,
	}
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok, err := s.backend.Load(ctx, key)
	if err != nil {
		return nil, false, errors.Wrapf(err, "load %s", key)
	}

	return entry.Value, ok, nil
}

// Save overwrites key without a version check.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	return s.commit(ctx, []Write{{Key: key, Value: value, ExpectedVersion: AnyVersion}})
}

func (s *Store) Atomic(ctx context.Context, fn func(Session) error) error {
	return s.Transact(ctx, fn)
}

func (s *Store) Policy(key string) Retention {
	policy := s.opts.Retention[key]
	if policy.EvictTo <= 0 {
		policy.EvictTo = DefaultEvictTo
	}
	if policy.QuotaEvictTo <= 0 {
		policy.QuotaEvictTo = policy.EvictTo
	}

	return policy
}

func (s *Store) MaxValueBytes() int {
	return s.opts.MaxValueBytes
}

// Set encodes value as JSON and writes it. It reports false when the value
// could not be durably saved.
func (s *Store) Set(ctx context.Context, key string, value any) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode value", slog.String("key", key), slog.Any("error", err))

		return false
	}

	if err := s.Save(ctx, key, raw); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save value", slog.String("key", key), slog.Any("error", err))

		return false
	}

	return true
}

// Transact runs fn against a staged transaction and commits every write it
// made as one compare-and-swap batch. On version conflict fn is run again, up
// to the configured number of retries. When the backend rejects the batch for
// quota, fn is run once more with every written list cut to its quota target.
func (s *Store) Transact(ctx context.Context, fn func(Session) error) error {
	quotaRetry := false
	for attempt := 0; ; attempt++ {
		tx := newTx(s)
		tx.quotaRetry = quotaRetry
		if err := fn(tx); err != nil {
			return err
		}

		err := s.commit(ctx, tx.batch())
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrQuotaExceeded):
			if quotaRetry {
				return errors.Wrap(err, "transaction still over quota after eviction")
			}
			quotaRetry = true
			s.logger.WarnContext(ctx, "Store over quota, evicting to quota targets and retrying")

			continue
		case !errors.Is(err, ErrVersionConflict):
			return err
		}
		if attempt >= s.opts.MaxRetries {
			return errors.Wrapf(err, "transaction gave up after %d attempts", attempt+1)
		}

		s.logger.DebugContext(ctx, "Retrying transaction after version conflict", slog.Int("attempt", attempt+1))
	}
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) commit(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	return s.backend.Commit(ctx, writes)
}

// Tx stages writes in memory until the surrounding Transact commits them.
type Tx struct {
	store    *Store
	versions map[string]int64
	staged   map[string][]byte
	order    []string

	// quotaRetry is set when the previous attempt was rejected for quota.
	quotaRetry bool
}

func newTx(store *Store) *Tx {
	return &Tx{
		store:    store,
		versions: make(map[string]int64),
		staged:   make(map[string][]byte),
	}
}

func (tx *Tx) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if value, ok := tx.staged[key]; ok {
		return value, true, nil
	}

	entry, ok, err := tx.store.backend.Load(ctx, key)
	if err != nil {
		return nil, false, errors.Wrapf(err, "load %s", key)
	}
	if _, seen := tx.versions[key]; !seen {
		tx.versions[key] = entry.Version
	}

	return entry.Value, ok, nil
}

func (tx *Tx) Save(ctx context.Context, key string, value []byte) error {
	if _, seen := tx.versions[key]; !seen {
		if _, _, err := tx.Load(ctx, key); err != nil {
			return err
		}
	}
	if _, ok := tx.staged[key]; !ok {
		tx.order = append(tx.order, key)
	}
	tx.staged[key] = value

	return nil
}

func (tx *Tx) Atomic(_ context.Context, fn func(Session) error) error {
	return fn(tx)
}

func (tx *Tx) Policy(key string) Retention {
	return tx.store.Policy(key)
}

func (tx *Tx) MaxValueBytes() int {
	return tx.store.MaxValueBytes()
}

func (tx *Tx) evictForQuota() bool {
	return tx.quotaRetry
}

func (tx *Tx) batch() []Write {
	writes := make([]Write, 0, len(tx.order))
	for _, key := range tx.order {
		writes = append(writes, Write{
			Key:             key,
			Value:           tx.staged[key],
			ExpectedVersion: tx.versions[key],
		})
	}

	return writes
}
