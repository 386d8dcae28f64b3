package service

import (
	"context"

	"foodbridge/internal/domain/entity"
)

// Geocoder resolves addresses. A nil result with a nil error means no
// provider found the place.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*entity.GeocodeResult, error)
	ReverseGeocode(ctx context.Context, point entity.Coordinates) (*entity.GeocodeResult, error)
}
