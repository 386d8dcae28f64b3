package kvstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps values in process memory. QuotaBytes > 0 bounds the
// total size of all stored values.
type MemoryBackend struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	quotaBytes int64
	usedBytes  int64
}

func NewMemoryBackend(quotaBytes int64) *MemoryBackend {
	return &MemoryBackend{
		entries:    make(map[string]Entry),
		quotaBytes: quotaBytes,
	}
}

func (b *MemoryBackend) Load(_ context.Context, key string) (Entry, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[key]
	if !ok {
		return Entry{}, false, nil
	}

	value := make([]byte, len(entry.Value))
	copy(value, entry.Value)

	return Entry{Value: value, Version: entry.Version}, true, nil
}

func (b *MemoryBackend) Commit(_ context.Context, writes []Write) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	used := b.usedBytes
	for _, w := range writes {
		current := b.entries[w.Key]
		if w.ExpectedVersion != AnyVersion && current.Version != w.ExpectedVersion {
			return ErrVersionConflict
		}
		used += int64(len(w.Value)) - int64(len(current.Value))
	}

	if b.quotaBytes > 0 && used > b.quotaBytes {
		return ErrQuotaExceeded
	}

	for _, w := range writes {
		value := make([]byte, len(w.Value))
		copy(value, w.Value)
		b.entries[w.Key] = Entry{Value: value, Version: b.entries[w.Key].Version + 1}
	}
	b.usedBytes = used

	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}
