// Package handler contains the HTTP handlers of the API.
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"foodbridge/internal/delivery/api/response"
	"foodbridge/internal/delivery/api/validator"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}

// bind decodes the request into req and validates it. Failures come back as
// ErrValidationFailed carrying the offending fields.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}

	if err := c.Validate(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(validator.Summary(validator.FieldErrors(req, err)))
	}

	return nil
}

// coordinatesQuery reads the lat/lng query parameters. ok is false when
// neither is given.
func coordinatesQuery(c echo.Context) (point entity.Coordinates, ok bool, err error) {
	rawLat, rawLng := strings.TrimSpace(c.QueryParam("lat")), strings.TrimSpace(c.QueryParam("lng"))
	if rawLat == "" && rawLng == "" {
		return entity.Coordinates{}, false, nil
	}

	lat, latErr := strconv.ParseFloat(rawLat, 64)
	lng, lngErr := strconv.ParseFloat(rawLng, 64)
	if latErr != nil || lngErr != nil {
		return entity.Coordinates{}, false, domainerrors.ErrInvalidCoordinates.WithDetails("lat and lng must both be numbers")
	}

	return entity.Coordinates{Latitude: lat, Longitude: lng}, true, nil
}

type regularDonationView struct {
	DonationType entity.DonationKind `json:"donationType"`
	*entity.RegularDonation
}

type wasteDonationView struct {
	DonationType entity.DonationKind `json:"donationType"`
	*entity.WasteDonation
}

// donationView tags a donation with its variant for JSON clients.
func donationView(d entity.Donation) any {
	switch v := d.(type) {
	case *entity.RegularDonation:
		return regularDonationView{DonationType: entity.KindRegular, RegularDonation: v}
	case *entity.WasteDonation:
		return wasteDonationView{DonationType: entity.KindWaste, WasteDonation: v}
	default:
		return d
	}
}

func donationViews(donations []entity.Donation) []any {
	out := make([]any, 0, len(donations))
	for _, d := range donations {
		out = append(out, donationView(d))
	}

	return out
}
