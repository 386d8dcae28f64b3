package repository

import (
	"context"

	"foodbridge/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrDonationNotFound is returned when a donation is not found.
var ErrDonationNotFound = errors.New("donation not found")

// DonationRepository persists both donation variants in one list.
type DonationRepository interface {
	GetAll(ctx context.Context) ([]entity.Donation, error)

	// GetByID returns a copy of the donation; mutate it and pass it to Update.
	GetByID(ctx context.Context, id string) (entity.Donation, error)

	// Add assigns an ID and creation time when absent and stores the donation with version 1.
	Add(ctx context.Context, donation entity.Donation) error

	// Update replaces the donation with the same ID. The donation's version must
	// match the stored one; on success it is incremented.
	Update(ctx context.Context, donation entity.Donation) error

	GetByDonor(ctx context.Context, donorID string) ([]entity.Donation, error)

	// GetAvailable returns regular donations in pending status.
	GetAvailable(ctx context.Context) ([]*entity.RegularDonation, error)

	GetWasteAwaitingApproval(ctx context.Context) ([]*entity.WasteDonation, error)
	GetWasteByBiogasPlant(ctx context.Context, plantID string) ([]*entity.WasteDonation, error)
	GetWasteByDriver(ctx context.Context, driverID string) ([]*entity.WasteDonation, error)
	GetWasteByStatus(ctx context.Context, status entity.DonationStatus) ([]*entity.WasteDonation, error)
}
