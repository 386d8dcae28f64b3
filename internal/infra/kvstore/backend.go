// Package kvstore is the versioned key-value store every repository persists
// its record lists into. Values are JSON documents; every key carries a
// version so multi-key writes can commit with compare-and-swap.
package kvstore

import (
	"context"

	"foodbridge/internal/errors"
)

// AnyVersion skips the version check for a write.
const AnyVersion int64 = -1

var (
	// ErrVersionConflict reports that a key changed since it was read.
	ErrVersionConflict = errors.New("kvstore: version conflict")
	// ErrQuotaExceeded reports that the backend refused a write for lack of space.
	ErrQuotaExceeded = errors.New("kvstore: quota exceeded")
	// ErrWriteFailed reports that a write still failed after eviction and retry.
	ErrWriteFailed = errors.New("kvstore: write failed")
)

// Entry is a stored value together with its version. Version 0 means the key
// does not exist.
type Entry struct {
	Value   []byte
	Version int64
}

// Write is one element of an atomic commit. ExpectedVersion 0 requires the
// key to be absent; AnyVersion overwrites unconditionally.
type Write struct {
	Key             string
	Value           []byte
	ExpectedVersion int64
}

// Backend persists versioned values. Commit applies all writes or none.
type Backend interface {
	Load(ctx context.Context, key string) (Entry, bool, error)
	Commit(ctx context.Context, writes []Write) error
	Close() error
}
