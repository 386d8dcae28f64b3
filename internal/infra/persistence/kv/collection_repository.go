package kv

import (
	"context"

	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/util"
)

type collectionRepository struct {
	session kvstore.Session
	now     Clock
}

func NewCollectionRepository(session kvstore.Session, clock Clock) repository.CollectionRepository {
	return &collectionRepository{session: session, now: orNow(clock)}
}

func (repo *collectionRepository) load(ctx context.Context, s kvstore.Session) ([]collectionRecord, error) {
	return loadList[collectionRecord](ctx, s, constants.KeyCollections)
}

func (repo *collectionRepository) GetAll(ctx context.Context) ([]*entity.Collection, error) {
	return repo.filter(ctx, func(*entity.Collection) bool { return true })
}

func (repo *collectionRepository) GetByID(ctx context.Context, id string) (*entity.Collection, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	idx := indexOf(list, id)
	if idx < 0 {
		return nil, repository.ErrCollectionNotFound
	}

	return list[idx].Clone(), nil
}

func (repo *collectionRepository) Add(ctx context.Context, collection *entity.Collection) error {
	now := repo.now()
	if collection.ID == "" {
		collection.ID = util.NewID(util.PrefixCollection, now)
	}
	if collection.CreatedAt.IsZero() {
		collection.CreatedAt = now
	}
	collection.UpdatedAt = now
	collection.Version = 1

	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		return saveList(ctx, s, constants.KeyCollections, append(list, collectionRecord{collection.Clone()}))
	})
}

func (repo *collectionRepository) Update(ctx context.Context, collection *entity.Collection) error {
	updatedAt := repo.now()

	err := atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		idx := indexOf(list, collection.ID)
		if idx < 0 {
			return repository.ErrCollectionNotFound
		}
		if list[idx].Version != collection.Version {
			return repository.ErrVersionConflict
		}

		stored := collection.Clone()
		stored.Version++
		stored.UpdatedAt = updatedAt
		list[idx] = collectionRecord{stored}

		return saveList(ctx, s, constants.KeyCollections, list)
	})
	if err != nil {
		return err
	}

	collection.Version++
	collection.UpdatedAt = updatedAt

	return nil
}

func (repo *collectionRepository) GetByNGO(ctx context.Context, ngoID string) ([]*entity.Collection, error) {
	return repo.filter(ctx, func(c *entity.Collection) bool { return c.NGOID == ngoID })
}

func (repo *collectionRepository) GetByDriver(ctx context.Context, driverID string) ([]*entity.Collection, error) {
	return repo.filter(ctx, func(c *entity.Collection) bool { return c.DriverID == driverID })
}

func (repo *collectionRepository) GetByDonation(ctx context.Context, donationID string) ([]*entity.Collection, error) {
	return repo.filter(ctx, func(c *entity.Collection) bool { return c.DonationID == donationID })
}

func (repo *collectionRepository) GetActiveByDonation(ctx context.Context, donationID string) (*entity.Collection, error) {
	list, err := repo.filter(ctx, func(c *entity.Collection) bool {
		return c.DonationID == donationID && c.IsActive()
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.ErrCollectionNotFound
	}

	return list[0], nil
}

func (repo *collectionRepository) GetAvailable(ctx context.Context) ([]*entity.Collection, error) {
	return repo.filter(ctx, func(c *entity.Collection) bool {
		return c.Status == entity.CollectionRequested && !c.HasDriver()
	})
}

func (repo *collectionRepository) GetAssignedToDriver(ctx context.Context, driverID string) ([]*entity.Collection, error) {
	return repo.filter(ctx, func(c *entity.Collection) bool {
		return c.DriverID == driverID &&
			(c.Status == entity.CollectionAssigned || c.Status == entity.CollectionInTransit)
	})
}

func (repo *collectionRepository) filter(ctx context.Context, keep func(*entity.Collection) bool) ([]*entity.Collection, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.Collection, 0, len(list))
	for _, rec := range list {
		if keep(rec.Collection) {
			result = append(result, rec.Clone())
		}
	}

	return result, nil
}
