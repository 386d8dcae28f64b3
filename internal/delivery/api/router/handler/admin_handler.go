package handler

import (
	"net/http"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AdminHandlerParams holds dependencies for AdminHandler, injected by Fx.
type AdminHandlerParams struct {
	fx.In

	AdminUC     usecase.AdminUsecase
	DashboardUC usecase.DashboardUsecase
}

// AdminHandler serves user verification and the admin overview.
type AdminHandler struct {
	adminUC     usecase.AdminUsecase
	dashboardUC usecase.DashboardUsecase
}

// NewAdminHandler is the constructor for AdminHandler.
func NewAdminHandler(params AdminHandlerParams) *AdminHandler {
	return &AdminHandler{
		adminUC:     params.AdminUC,
		dashboardUC: params.DashboardUC,
	}
}

// SetUserStatusRequest carries the new verification state of a user.
type SetUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending verified rejected"`
}

// ListUsers lists users, optionally filtered by ?role=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.adminUC.ListUsers(c.Request().Context(), middleware.MustActor(c), entity.Role(c.QueryParam("role")))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, users)
}

// ListPendingVerification lists NGO, driver and biogas accounts awaiting review.
func (h *AdminHandler) ListPendingVerification(c echo.Context) error {
	users, err := h.adminUC.ListPendingVerification(c.Request().Context(), middleware.MustActor(c))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, users)
}

// SetUserStatus verifies or rejects a user.
func (h *AdminHandler) SetUserStatus(c echo.Context) error {
	var req SetUserStatusRequest
	if err := bind(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	user, err := h.adminUC.SetUserStatus(c.Request().Context(), middleware.MustActor(c), c.Param("id"), entity.UserStatus(req.Status))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, user)
}

// RemoveUser deletes a user account.
func (h *AdminHandler) RemoveUser(c echo.Context) error {
	if err := h.adminUC.RemoveUser(c.Request().Context(), middleware.MustActor(c), c.Param("id")); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Stats returns the admin counters.
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.dashboardUC.AdminStats(c.Request().Context(), middleware.MustActor(c))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, stats)
}

// Collections lists every collection joined with its donation.
func (h *AdminHandler) Collections(c echo.Context) error {
	enriched, err := h.dashboardUC.AdminCollections(c.Request().Context(), middleware.MustActor(c))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, enriched)
}
