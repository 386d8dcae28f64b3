package handler

import (
	"net/http"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/util"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// DebugHandler serves the probes mounted under /debug when env.debug is on.
type DebugHandler struct {
	session kvstore.Session
}

type DebugHandlerParams struct {
	fx.In

	Session kvstore.Session
}

func NewDebugHandler(params DebugHandlerParams) *DebugHandler {
	return &DebugHandler{session: params.Session}
}

// WhoAmI echoes the actor resolved from the Bearer token or the auth cookie.
func (h *DebugHandler) WhoAmI(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return response.HandleAppError(c, domainerrors.ErrUnauthenticated)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"userId": actor.UserID,
		"name":   actor.Name,
		"role":   actor.Role,
	})
}

type storeKeyReport struct {
	Key          string `json:"key"`
	Found        bool   `json:"found"`
	Size         string `json:"size"`
	MaxValueSize string `json:"maxValueSize"`
	MaxRecords   int    `json:"maxRecords"`
	EvictTo      int    `json:"evictTo"`
	QuotaEvictTo int    `json:"quotaEvictTo"`
}

// StoreKey reports how large a store key is and which retention applies to it.
func (h *DebugHandler) StoreKey(c echo.Context) error {
	key := c.QueryParam("key")
	if key == "" {
		return response.HandleAppError(c, domainerrors.ErrValidationFailed.WithDetails("key is required"))
	}

	value, found, err := h.session.Load(c.Request().Context(), key)
	if err != nil {
		return response.HandleAppError(c, domainerrors.ErrStorageUnavailable)
	}

	policy := h.session.Policy(key)

	return response.Success(c, http.StatusOK, storeKeyReport{
		Key:          key,
		Found:        found,
		Size:         util.FormatBytes(int64(len(value))),
		MaxValueSize: util.FormatBytes(int64(h.session.MaxValueBytes())),
		MaxRecords:   policy.MaxRecords,
		EvictTo:      policy.EvictTo,
		QuotaEvictTo: policy.QuotaEvictTo,
	})
}
