// Package kv implements the domain repositories over the key-value store.
// Each entity type lives as one JSON list under its storage key; every
// mutation is a read-modify-write of that list inside a store transaction.
package kv

import (
	"context"
	"encoding/json"
	"time"

	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/errors"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/util"
)

// Clock returns the current time.
type Clock = util.Clock

func orNow(clock Clock) Clock {
	if clock == nil {
		return time.Now
	}

	return clock
}

// donationRecord is the tagged envelope donations are persisted in.
type donationRecord struct {
	entity.Donation
}

type regularEnvelope struct {
	DonationType entity.DonationKind `json:"donationType"`
	*entity.RegularDonation
}

type wasteEnvelope struct {
	DonationType entity.DonationKind `json:"donationType"`
	*entity.WasteDonation
}

func (r donationRecord) MarshalJSON() ([]byte, error) {
	switch d := r.Donation.(type) {
	case *entity.RegularDonation:
		return json.Marshal(regularEnvelope{DonationType: entity.KindRegular, RegularDonation: d})
	case *entity.WasteDonation:
		return json.Marshal(wasteEnvelope{DonationType: entity.KindWaste, WasteDonation: d})
	default:
		return nil, errors.Errorf("unknown donation type %T", r.Donation)
	}
}

// UnmarshalJSON treats a record without discriminator as a regular donation.
func (r *donationRecord) UnmarshalJSON(data []byte) error {
	var probe struct {
		DonationType entity.DonationKind `json:"donationType"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if probe.DonationType == entity.KindWaste {
		waste := &entity.WasteDonation{}
		if err := json.Unmarshal(data, waste); err != nil {
			return err
		}
		r.Donation = waste

		return nil
	}

	regular := &entity.RegularDonation{}
	if err := json.Unmarshal(data, regular); err != nil {
		return err
	}
	r.Donation = regular

	return nil
}

func (r donationRecord) RecordID() string      { return r.Info().ID }
func (r donationRecord) RecordTime() time.Time { return r.Info().CreatedAt }

type collectionRecord struct{ *entity.Collection }

func (r collectionRecord) RecordID() string      { return r.ID }
func (r collectionRecord) RecordTime() time.Time { return r.CreatedAt }

type userRecord struct{ *entity.User }

func (r userRecord) RecordID() string      { return r.ID }
func (r userRecord) RecordTime() time.Time { return r.CreatedAt }

type imageRecord struct{ *entity.ImageRecord }

func (r imageRecord) RecordID() string      { return r.ID }
func (r imageRecord) RecordTime() time.Time { return r.UploadedAt }

type deviceRecord struct{ *entity.UserDevice }

func (r deviceRecord) RecordID() string      { return r.ID }
func (r deviceRecord) RecordTime() time.Time { return r.CreatedAt }

func loadList[R kvstore.Record](ctx context.Context, s kvstore.Session, key string) ([]R, error) {
	list, err := kvstore.Get(ctx, s, key, []R{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", key)
	}

	return list, nil
}

func saveList[R kvstore.Record](ctx context.Context, s kvstore.Session, key string, list []R) error {
	if err := kvstore.SetRecords(ctx, s, key, list); err != nil {
		if errors.Is(err, kvstore.ErrWriteFailed) || errors.Is(err, kvstore.ErrQuotaExceeded) {
			return errors.Wrapf(repository.ErrNotSaved, "%s: %v", key, err)
		}

		return errors.Wrapf(err, "failed to save %s", key)
	}

	return nil
}

// atomic runs fn in the session's transaction.
func atomic(ctx context.Context, s kvstore.Session, fn func(kvstore.Session) error) error {
	return mapCommitError(s.Atomic(ctx, fn))
}

// mapCommitError maps an exhausted version conflict or a write still over
// quota after eviction to the repository errors.
func mapCommitError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, kvstore.ErrVersionConflict):
		return errors.Wrap(repository.ErrVersionConflict, err.Error())
	case errors.Is(err, kvstore.ErrQuotaExceeded):
		return errors.Wrap(repository.ErrNotSaved, err.Error())
	default:
		return err
	}
}

func indexOf[R kvstore.Record](list []R, id string) int {
	for i, rec := range list {
		if rec.RecordID() == id {
			return i
		}
	}

	return -1
}
