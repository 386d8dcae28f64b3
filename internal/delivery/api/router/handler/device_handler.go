package handler

import (
	"net/http"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type DeviceHandlerParams struct {
	fx.In

	DeviceUC usecase.DeviceUsecase
}

// DeviceHandler exposes push registration for the signed-in user.
type DeviceHandler struct {
	deviceUC usecase.DeviceUsecase
}

func NewDeviceHandler(params DeviceHandlerParams) *DeviceHandler {
	return &DeviceHandler{deviceUC: params.DeviceUC}
}

type rotateTokenRequest struct {
	FCMToken string `json:"fcm_token" validate:"required"`
}

func (h *DeviceHandler) RegisterDevice(c echo.Context) error {
	var req usecase.RegisterDeviceInput
	if err := bind(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	device, err := h.deviceUC.Register(c.Request().Context(), middleware.MustActor(c), &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, device)
}

func (h *DeviceHandler) GetUserDevices(c echo.Context) error {
	devices, err := h.deviceUC.List(c.Request().Context(), middleware.MustActor(c))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, devices)
}

func (h *DeviceHandler) UpdateFCMToken(c echo.Context) error {
	var req rotateTokenRequest
	if err := bind(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	if err := h.deviceUC.RotateToken(c.Request().Context(), middleware.MustActor(c), c.Param("id"), req.FCMToken); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "FCM token updated"})
}

func (h *DeviceHandler) DeactivateDevice(c echo.Context) error {
	if err := h.deviceUC.Deactivate(c.Request().Context(), middleware.MustActor(c), c.Param("id")); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Device deactivated"})
}
