package usecase

import (
	"context"

	"foodbridge/internal/domain/entity"
)

// Photo is an uploaded image before it is stored.
type Photo struct {
	Data        []byte
	ContentType string
	Filename    string
}

// VerificationResult is the outcome of a freshness check at pickup.
type VerificationResult struct {
	Collection *entity.Collection    `json:"collection"`
	Image      *entity.ImageRecord   `json:"image"`
	Assessment *entity.Assessment    `json:"assessment"`
	Redirected bool                  `json:"redirected"`
	Waste      *entity.WasteDonation `json:"wasteDonation,omitempty"`
}

// CollectionUsecase covers the NGO and driver side of a claimed donation.
type CollectionUsecase interface {
	GetCollection(ctx context.Context, collectionID string) (*entity.Collection, error)

	// ListCollections returns what the actor may see: an NGO its own, a driver
	// its assigned ones, an admin every collection.
	ListCollections(ctx context.Context, actor entity.Actor) ([]*entity.Collection, error)

	// ListAvailable returns requested collections without a driver.
	ListAvailable(ctx context.Context) ([]*entity.Collection, error)

	AssignDriver(ctx context.Context, actor entity.Actor, collectionID string) (*entity.Collection, error)

	// StartTransit marks the donation collected. A non-empty pickup code must
	// be the collection's scanned QR payload.
	StartTransit(ctx context.Context, actor entity.Actor, collectionID, pickupCode string) (*entity.Collection, error)

	// CompleteCollection delivers the donation. Completing twice is a no-op.
	CompleteCollection(ctx context.Context, actor entity.Actor, collectionID string) (*entity.Collection, error)

	CancelCollection(ctx context.Context, actor entity.Actor, collectionID string) (*entity.Collection, error)

	// VerifyCollection assesses a pickup photo. Spoiled food redirects the
	// donation to biogas plants and cancels the collection.
	VerifyCollection(ctx context.Context, actor entity.Actor, collectionID string, photo *Photo) (*VerificationResult, error)

	// PickupQR renders the QR code the driver scans at pickup.
	PickupQR(ctx context.Context, actor entity.Actor, collectionID string) ([]byte, error)
}
