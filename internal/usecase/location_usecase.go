package usecase

import (
	"context"

	"foodbridge/internal/domain/entity"
)

// LocationUsecase wraps geocoding and distance queries.
type LocationUsecase interface {
	// Geocode returns nil when no provider knows the address.
	Geocode(ctx context.Context, address string) (*entity.GeocodeResult, error)

	ReverseGeocode(ctx context.Context, point entity.Coordinates) (*entity.GeocodeResult, error)

	// NearbyDonations returns available donations within radiusKm, nearest first.
	// A non-positive radius uses the configured default.
	NearbyDonations(ctx context.Context, origin entity.Coordinates, radiusKm float64) ([]*entity.NearbyDonation, error)

	// DirectionsURL links to driving directions to the donation. Without an
	// origin it links to a map search for the destination.
	DirectionsURL(ctx context.Context, donationID string, origin *entity.Coordinates) (string, error)
}
