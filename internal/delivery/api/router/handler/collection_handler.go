package handler

import (
	"net/http"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CollectionHandlerParams holds dependencies for CollectionHandler, injected by Fx.
type CollectionHandlerParams struct {
	fx.In

	CollectionUC usecase.CollectionUsecase
	Processor    service.ImageProcessor
}

// CollectionHandler serves the pickup side of claimed donations.
type CollectionHandler struct {
	collectionUC usecase.CollectionUsecase
	processor    service.ImageProcessor
}

// NewCollectionHandler is the constructor for CollectionHandler.
func NewCollectionHandler(params CollectionHandlerParams) *CollectionHandler {
	return &CollectionHandler{
		collectionUC: params.CollectionUC,
		processor:    params.Processor,
	}
}

// StartTransitRequest carries the scanned pickup QR payload, if any.
type StartTransitRequest struct {
	PickupCode string `json:"pickupCode"`
}

// ListCollections lists the collections visible to the caller.
func (h *CollectionHandler) ListCollections(c echo.Context) error {
	collections, err := h.collectionUC.ListCollections(c.Request().Context(), middleware.MustActor(c))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, collections)
}

// ListAvailable lists requested collections that still need a driver.
func (h *CollectionHandler) ListAvailable(c echo.Context) error {
	collections, err := h.collectionUC.ListAvailable(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, collections)
}

// GetCollection returns one collection.
func (h *CollectionHandler) GetCollection(c echo.Context) error {
	collection, err := h.collectionUC.GetCollection(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, collection)
}

// Assign handles a driver taking a collection.
func (h *CollectionHandler) Assign(c echo.Context) error {
	return h.respond(c)(h.collectionUC.AssignDriver(c.Request().Context(), middleware.MustActor(c), c.Param("id")))
}

// StartTransit handles the driver picking the food up.
func (h *CollectionHandler) StartTransit(c echo.Context) error {
	var req StartTransitRequest
	if err := bind(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	return h.respond(c)(h.collectionUC.StartTransit(c.Request().Context(), middleware.MustActor(c), c.Param("id"), req.PickupCode))
}

// Complete handles the delivery to the NGO.
func (h *CollectionHandler) Complete(c echo.Context) error {
	return h.respond(c)(h.collectionUC.CompleteCollection(c.Request().Context(), middleware.MustActor(c), c.Param("id")))
}

// Cancel handles the NGO withdrawing its claim.
func (h *CollectionHandler) Cancel(c echo.Context) error {
	return h.respond(c)(h.collectionUC.CancelCollection(c.Request().Context(), middleware.MustActor(c), c.Param("id")))
}

// Verify assesses the pickup photo; spoiled food is redirected to biogas.
func (h *CollectionHandler) Verify(c echo.Context) error {
	var req PhotoRequest
	photo, err := readPhoto(c, h.processor, &req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	result, err := h.collectionUC.VerifyCollection(c.Request().Context(), middleware.MustActor(c), c.Param("id"), photo)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, result)
}

// PickupQR renders the collection's pickup code as a PNG.
func (h *CollectionHandler) PickupQR(c echo.Context) error {
	png, err := h.collectionUC.PickupQR(c.Request().Context(), middleware.MustActor(c), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *CollectionHandler) respond(c echo.Context) func(*entity.Collection, error) error {
	return func(collection *entity.Collection, err error) error {
		if err != nil {
			return response.HandleAppError(c, err)
		}

		return response.Success(c, http.StatusOK, collection)
	}
}
