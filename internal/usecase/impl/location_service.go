package impl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"foodbridge/config"
	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/usecase"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const (
	defaultNearbyRadiusKm = 10.0
	maxNearbyRadiusKm     = 50.0

	mapsDirectionsURL = "https://www.google.com/maps/dir/?api=1"
	mapsSearchURL     = "https://www.google.com/maps/search/?api=1"
)

type locationService struct {
	donationRepo    repository.DonationRepository
	geocoder        service.Geocoder
	defaultRadiusKm float64
	maxRadiusKm     float64
	logger          *slog.Logger
}

// NewLocationService creates a new location service instance
func NewLocationService(
	donationRepo repository.DonationRepository,
	geocoder service.Geocoder,
	cfg *config.Config,
	logger *slog.Logger,
) usecase.LocationUsecase {
	srv := &locationService{
		donationRepo:    donationRepo,
		geocoder:        geocoder,
		defaultRadiusKm: defaultNearbyRadiusKm,
		maxRadiusKm:     maxNearbyRadiusKm,
		logger:          logger,
	}

	if cfg != nil && cfg.Geocoding != nil {
		if cfg.Geocoding.DefaultRadiusKm > 0 {
			srv.defaultRadiusKm = cfg.Geocoding.DefaultRadiusKm
		}
		if cfg.Geocoding.MaxRadiusKm > 0 {
			srv.maxRadiusKm = cfg.Geocoding.MaxRadiusKm
		}
	}
	if srv.defaultRadiusKm > srv.maxRadiusKm {
		srv.defaultRadiusKm = srv.maxRadiusKm
	}

	return srv
}

func (srv *locationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *locationService) Geocode(ctx context.Context, address string) (*entity.GeocodeResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, validationFailed("address is required")
	}

	result, err := srv.geocoder.Geocode(ctx, address)
	if err != nil {
		srv.log(ctx).Warn("Geocoding failed", slog.String("address", address), slog.Any("error", err))

		return nil, nil
	}

	return result, nil
}

func (srv *locationService) ReverseGeocode(ctx context.Context, point entity.Coordinates) (*entity.GeocodeResult, error) {
	if !point.Valid() {
		return nil, domainerrors.ErrInvalidCoordinates
	}

	result, err := srv.geocoder.ReverseGeocode(ctx, point)
	if err != nil {
		srv.log(ctx).Warn("Reverse geocoding failed", slog.Any("error", err))

		return nil, nil
	}

	return result, nil
}

func (srv *locationService) NearbyDonations(ctx context.Context, origin entity.Coordinates, radiusKm float64) ([]*entity.NearbyDonation, error) {
	if !origin.Valid() {
		return nil, domainerrors.ErrInvalidCoordinates
	}
	if radiusKm <= 0 {
		radiusKm = srv.defaultRadiusKm
	}
	radiusKm = min(radiusKm, srv.maxRadiusKm)

	available, err := srv.donationRepo.GetAvailable(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list available donations")
	}

	from := toPoint(origin)
	nearby := make([]*entity.NearbyDonation, 0, len(available))
	for _, donation := range available {
		if !donation.HasLocation() {
			continue
		}

		to := orb.Point{*donation.Longitude, *donation.Latitude}
		distanceKm := geo.DistanceHaversine(from, to) / 1000
		if distanceKm > radiusKm {
			continue
		}
		nearby = append(nearby, &entity.NearbyDonation{Donation: donation, DistanceKm: distanceKm})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	return nearby, nil
}

func toPoint(c entity.Coordinates) orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

func (srv *locationService) DirectionsURL(ctx context.Context, donationID string, origin *entity.Coordinates) (string, error) {
	donation, err := srv.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return "", mapRepoError(err, "find donation")
	}
	if origin != nil && !origin.Valid() {
		return "", domainerrors.ErrInvalidCoordinates
	}

	info := donation.Info()
	destination := info.Address
	if info.HasLocation() {
		destination = formatCoordinates(*info.Latitude, *info.Longitude)
	}

	return directionsURL(destination, origin), nil
}

// directionsURL links to driving directions. Without an origin, Google Maps
// uses the device location, so a plain search link is returned instead.
func directionsURL(destination string, origin *entity.Coordinates) string {
	if origin == nil {
		return mapsSearchURL + "&query=" + url.QueryEscape(destination)
	}

	query := url.Values{}
	query.Set("origin", formatCoordinates(origin.Latitude, origin.Longitude))
	query.Set("destination", destination)
	query.Set("travelmode", "driving")

	return mapsDirectionsURL + "&" + query.Encode()
}

func formatCoordinates(lat, lng float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lng)
}
