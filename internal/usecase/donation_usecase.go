package usecase

import (
	"context"
	"time"

	"foodbridge/internal/domain/entity"
)

// DonationFilter narrows a donation listing. Zero fields match everything.
type DonationFilter struct {
	Status   entity.DonationStatus
	Kind     entity.DonationKind
	FoodType string
	DonorID  string
}

// DonationUsecase drives a donation through its lifecycle. Every transition
// takes the authenticated actor and checks the actor's role itself.
type DonationUsecase interface {
	// CreateDonation stores a regular donation as pending or a waste donation
	// as awaiting biogas approval.
	CreateDonation(ctx context.Context, actor entity.Actor, draft *entity.DonationDraft) (entity.Donation, error)

	GetDonation(ctx context.Context, donationID string) (entity.Donation, error)

	ListDonations(ctx context.Context, filter DonationFilter) ([]entity.Donation, error)

	// ListAvailable returns the pending regular donations NGOs can claim.
	ListAvailable(ctx context.Context) ([]*entity.RegularDonation, error)

	// ClaimDonation assigns a pending regular donation to the NGO and creates
	// its collection in one transaction. The first committed claim wins.
	ClaimDonation(ctx context.Context, actor entity.Actor, donationID string, pickupTime time.Time, notes string) (*entity.Collection, error)

	ApproveByBiogasPlant(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error)

	AcceptByDriver(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error)

	MarkWastePickedUp(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error)

	ConfirmWasteDelivery(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error)

	// ExpireDonation moves a pending regular donation to expired.
	ExpireDonation(ctx context.Context, actor entity.Actor, donationID string) (entity.Donation, error)

	// ExpireOverdue expires every pending regular donation whose expiry date
	// has passed and returns how many changed.
	ExpireOverdue(ctx context.Context) (int, error)
}
