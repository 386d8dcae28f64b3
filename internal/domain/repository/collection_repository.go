package repository

import (
	"context"

	"foodbridge/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrCollectionNotFound is returned when a collection is not found.
var ErrCollectionNotFound = errors.New("collection not found")

type CollectionRepository interface {
	GetAll(ctx context.Context) ([]*entity.Collection, error)
	GetByID(ctx context.Context, id string) (*entity.Collection, error)
	Add(ctx context.Context, collection *entity.Collection) error
	Update(ctx context.Context, collection *entity.Collection) error

	GetByNGO(ctx context.Context, ngoID string) ([]*entity.Collection, error)
	GetByDriver(ctx context.Context, driverID string) ([]*entity.Collection, error)
	GetByDonation(ctx context.Context, donationID string) ([]*entity.Collection, error)

	// GetActiveByDonation returns the donation's non-cancelled collection.
	GetActiveByDonation(ctx context.Context, donationID string) (*entity.Collection, error)

	// GetAvailable returns requested collections no driver has taken.
	GetAvailable(ctx context.Context) ([]*entity.Collection, error)

	// GetAssignedToDriver returns the driver's assigned and in-transit collections.
	GetAssignedToDriver(ctx context.Context, driverID string) ([]*entity.Collection, error)
}
