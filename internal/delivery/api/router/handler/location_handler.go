package handler

import (
	"net/http"

	"foodbridge/internal/delivery/api/response"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// LocationHandlerParams holds dependencies for LocationHandler, injected by Fx.
type LocationHandlerParams struct {
	fx.In

	LocationUC usecase.LocationUsecase
}

// LocationHandler serves address lookups.
type LocationHandler struct {
	locationUC usecase.LocationUsecase
}

// NewLocationHandler is the constructor for LocationHandler.
func NewLocationHandler(params LocationHandlerParams) *LocationHandler {
	return &LocationHandler{
		locationUC: params.LocationUC,
	}
}

// Geocode resolves ?address= to coordinates. No match answers 404.
func (h *LocationHandler) Geocode(c echo.Context) error {
	address := c.QueryParam("address")
	if address == "" {
		return response.HandleAppError(c, domainerrors.ErrValidationFailed.WithDetails("address is required"))
	}

	result, err := h.locationUC.Geocode(c.Request().Context(), address)
	if err != nil {
		return response.HandleAppError(c, err)
	}
	if result == nil {
		return response.NotFound(c, "ADDRESS_NOT_FOUND", "No location found for this address")
	}

	return response.Success(c, http.StatusOK, result)
}

// ReverseGeocode resolves ?lat=&lng= to an address. No match answers 404.
func (h *LocationHandler) ReverseGeocode(c echo.Context) error {
	point, ok, err := coordinatesQuery(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}
	if !ok {
		return response.HandleAppError(c, domainerrors.ErrInvalidCoordinates.WithDetails("lat and lng are required"))
	}

	result, err := h.locationUC.ReverseGeocode(c.Request().Context(), point)
	if err != nil {
		return response.HandleAppError(c, err)
	}
	if result == nil {
		return response.NotFound(c, "ADDRESS_NOT_FOUND", "No address found for these coordinates")
	}

	return response.Success(c, http.StatusOK, result)
}
