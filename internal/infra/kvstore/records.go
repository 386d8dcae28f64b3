package kvstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"foodbridge/internal/errors"
)

// Record is an element of a stored list.
type Record interface {
	RecordID() string
	RecordTime() time.Time
}

// Get decodes the value under key into a T, returning def when the key is
// missing or holds an undecodable value.
func Get[T any](ctx context.Context, s Session, key string, def T) (T, error) {
	raw, ok, err := s.Load(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok || len(raw) == 0 {
		return def, nil
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return def, nil
	}

	return value, nil
}

// quotaEvicter is implemented by sessions re-running after a quota rejection.
type quotaEvicter interface {
	evictForQuota() bool
}

// SetRecords writes a record list under key, applying the key's retention
// cap, the size-threshold eviction and one quota retry. Inside a transaction
// the quota retry happens at commit, see Store.Transact.
func SetRecords[T Record](ctx context.Context, s Session, key string, records []T) error {
	policy := s.Policy(key)

	if policy.MaxRecords > 0 && len(records) > policy.MaxRecords {
		records = NewestFirst(records, policy.MaxRecords)
	}
	if q, ok := s.(quotaEvicter); ok && q.evictForQuota() {
		records = NewestFirst(records, policy.QuotaEvictTo)
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}

	if len(raw) > s.MaxValueBytes() {
		records = NewestFirst(records, policy.EvictTo)
		if raw, err = json.Marshal(records); err != nil {
			return errors.Wrapf(err, "encode %s", key)
		}
	}

	err = s.Save(ctx, key, raw)
	if err == nil || !errors.Is(err, ErrQuotaExceeded) {
		return err
	}

	records = NewestFirst(records, policy.QuotaEvictTo)
	if raw, err = json.Marshal(records); err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := s.Save(ctx, key, raw); err != nil {
		return errors.Wrapf(ErrWriteFailed, "save %s: %v", key, err)
	}

	return nil
}

// Set is SetRecords reporting only whether the list was durably saved.
func Set[T Record](ctx context.Context, s Session, key string, records []T) bool {
	return SetRecords(ctx, s, key, records) == nil
}

// NewestFirst returns at most limit records sorted by descending record time.
// The input slice is not modified.
func NewestFirst[T Record](records []T, limit int) []T {
	sorted := make([]T, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordTime().After(sorted[j].RecordTime())
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	return sorted
}
