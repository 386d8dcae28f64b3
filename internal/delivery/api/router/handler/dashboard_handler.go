package handler

import (
	"net/http"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// DashboardHandlerParams holds dependencies for DashboardHandler, injected by Fx.
type DashboardHandlerParams struct {
	fx.In

	DashboardUC usecase.DashboardUsecase
}

// DashboardHandler serves the role dashboards.
type DashboardHandler struct {
	dashboardUC usecase.DashboardUsecase
}

// NewDashboardHandler is the constructor for DashboardHandler.
func NewDashboardHandler(params DashboardHandlerParams) *DashboardHandler {
	return &DashboardHandler{
		dashboardUC: params.DashboardUC,
	}
}

type donorDashboardView struct {
	Donations []any `json:"donations"`
	Total     int   `json:"total"`
	Pending   int   `json:"pending"`
	Delivered int   `json:"delivered"`
}

// Dashboard returns the dashboard of the caller's role.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.MustActor(c)

	var (
		data any
		err  error
	)

	switch actor.Role {
	case entity.RoleDonor:
		var dashboard *entity.DonorDashboard
		if dashboard, err = h.dashboardUC.DonorDashboard(ctx, actor); err == nil {
			data = donorDashboardView{
				Donations: donationViews(dashboard.Donations),
				Total:     dashboard.Total,
				Pending:   dashboard.Pending,
				Delivered: dashboard.Delivered,
			}
		}
	case entity.RoleNGO:
		data, err = h.dashboardUC.NGODashboard(ctx, actor)
	case entity.RoleDriver:
		data, err = h.dashboardUC.DriverDashboard(ctx, actor)
	case entity.RoleBiogas:
		data, err = h.dashboardUC.BiogasDashboard(ctx, actor)
	case entity.RoleAdmin:
		data, err = h.dashboardUC.AdminStats(ctx, actor)
	default:
		err = domainerrors.ErrRoleNotAllowed
	}
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, data)
}
