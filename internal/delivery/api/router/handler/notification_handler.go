package handler

import (
	"net/http"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// NotificationHandlerParams holds dependencies for NotificationHandler, injected by Fx.
type NotificationHandlerParams struct {
	fx.In

	NotificationUC usecase.NotificationUsecase
}

// NotificationHandler serves the caller's in-app notification feed.
type NotificationHandler struct {
	notificationUC usecase.NotificationUsecase
}

// NewNotificationHandler is the constructor for NotificationHandler.
func NewNotificationHandler(params NotificationHandlerParams) *NotificationHandler {
	return &NotificationHandler{
		notificationUC: params.NotificationUC,
	}
}

// ListNotifications returns the caller's notifications newest-first.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	actor := middleware.MustActor(c)

	notifications, err := h.notificationUC.GetUserNotifications(c.Request().Context(), actor.UserID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, notifications)
}

// UnreadCount returns how many notifications the caller has not read.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	actor := middleware.MustActor(c)

	count, err := h.notificationUC.UnreadCount(c.Request().Context(), actor.UserID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"unread": count})
}

// MarkAsRead marks one notification read.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	if err := h.notificationUC.MarkAsRead(c.Request().Context(), middleware.MustActor(c), c.Param("id")); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// MarkAllAsRead marks every notification of the caller read.
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	actor := middleware.MustActor(c)

	changed, err := h.notificationUC.MarkAllAsRead(c.Request().Context(), actor.UserID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"updated": changed})
}

// DeleteNotification removes one notification of the caller.
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	if err := h.notificationUC.DeleteNotification(c.Request().Context(), middleware.MustActor(c), c.Param("id")); err != nil {
		return response.HandleAppError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
