package handler

import (
	"context"
	"net/http"
	"time"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// DonationHandlerParams holds dependencies for DonationHandler, injected by Fx.
type DonationHandlerParams struct {
	fx.In

	DonationUC usecase.DonationUsecase
	LocationUC usecase.LocationUsecase
	ImageUC    usecase.ImageUsecase
}

// DonationHandler serves donations and their lifecycle transitions.
type DonationHandler struct {
	donationUC usecase.DonationUsecase
	locationUC usecase.LocationUsecase
	imageUC    usecase.ImageUsecase
}

// NewDonationHandler is the constructor for DonationHandler.
func NewDonationHandler(params DonationHandlerParams) *DonationHandler {
	return &DonationHandler{
		donationUC: params.DonationUC,
		locationUC: params.LocationUC,
		imageUC:    params.ImageUC,
	}
}

// CreateDonationRequest is the donor's input for a donation. Regular
// donations need a condition, waste donations a waste condition.
type CreateDonationRequest struct {
	DonationType   string     `json:"donationType" form:"donationType" validate:"omitempty,oneof=regular waste"`
	FoodName       string     `json:"foodName" form:"foodName" validate:"min=2" msg:"Food name must be at least 2 characters."`
	FoodType       string     `json:"foodType" form:"foodType" validate:"required" msg:"Please select a food type."`
	Quantity       string     `json:"quantity" form:"quantity" validate:"required" msg:"Please specify the quantity."`
	Condition      string     `json:"condition" form:"condition" validate:"required_unless=DonationType waste" msg:"Please select the food condition."`
	WasteCondition string     `json:"wasteCondition" form:"wasteCondition" validate:"omitempty,oneof=edible inedible" msg:"Please select the waste condition."`
	ExpiryDate     *time.Time `json:"expiryDate" form:"expiryDate"`
	Address        string     `json:"address" form:"address" validate:"min=5" msg:"Please enter a valid address."`
	Description    string     `json:"description" form:"description"`
	Latitude       *float64   `json:"latitude" form:"latitude" validate:"omitempty,latitude"`
	Longitude      *float64   `json:"longitude" form:"longitude" validate:"omitempty,longitude"`
	// Image is an optional data:image/...;base64 photo of the food.
	Image string `json:"image" form:"image"`
}

// Draft converts the request into the domain draft.
func (r *CreateDonationRequest) Draft() *entity.DonationDraft {
	expiry := r.ExpiryDate
	if expiry != nil && expiry.IsZero() {
		expiry = nil
	}

	return &entity.DonationDraft{
		Kind:           entity.DonationKind(r.DonationType),
		FoodName:       r.FoodName,
		FoodType:       r.FoodType,
		Quantity:       r.Quantity,
		Condition:      entity.FoodCondition(r.Condition),
		WasteCondition: entity.WasteCondition(r.WasteCondition),
		Description:    r.Description,
		Address:        r.Address,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		ExpiryDate:     expiry,
	}
}

// ClaimDonationRequest is an NGO's pickup request for a donation.
type ClaimDonationRequest struct {
	PickupTime time.Time `json:"pickupTime" validate:"required" msg:"Please specify a pickup time."`
	Notes      string    `json:"notes"`
}

// CreateDonation handles a new donation, with an optional photo.
func (h *DonationHandler) CreateDonation(c echo.Context) error {
	var req CreateDonationRequest
	if err := bind(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	ctx := c.Request().Context()
	actor := middleware.MustActor(c)

	donation, err := h.donationUC.CreateDonation(ctx, actor, req.Draft())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if req.Image != "" {
		if _, err := h.imageUC.UploadDataURL(ctx, actor, req.Image, entity.ImageDonation, donation.Info().ID); err != nil {
			return response.HandleAppError(c, err)
		}
	}

	return response.Success(c, http.StatusCreated, donationView(donation))
}

// ListDonations lists donations filtered by ?status=, ?kind=, ?foodType= and ?donorId=.
func (h *DonationHandler) ListDonations(c echo.Context) error {
	filter := usecase.DonationFilter{
		Status:   entity.DonationStatus(c.QueryParam("status")),
		Kind:     entity.DonationKind(c.QueryParam("kind")),
		FoodType: c.QueryParam("foodType"),
		DonorID:  c.QueryParam("donorId"),
	}

	donations, err := h.donationUC.ListDonations(c.Request().Context(), filter)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, donationViews(donations))
}

// ListAvailable lists the donations NGOs can claim.
func (h *DonationHandler) ListAvailable(c echo.Context) error {
	donations, err := h.donationUC.ListAvailable(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	views := make([]any, 0, len(donations))
	for _, d := range donations {
		views = append(views, donationView(d))
	}

	return response.Success(c, http.StatusOK, views)
}

// Nearby lists available donations around ?lat=&lng= within ?radius= km.
func (h *DonationHandler) Nearby(c echo.Context) error {
	origin, ok, err := coordinatesQuery(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}
	if !ok {
		return response.HandleAppError(c, domainerrors.ErrInvalidCoordinates.WithDetails("lat and lng are required"))
	}

	var radius float64
	if err := echo.QueryParamsBinder(c).Float64("radius", &radius).BindError(); err != nil {
		return response.HandleAppError(c, domainerrors.ErrValidationFailed.WithDetails("radius must be a number"))
	}

	nearby, err := h.locationUC.NearbyDonations(c.Request().Context(), origin, radius)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, nearby)
}

// GetDonation returns one donation.
func (h *DonationHandler) GetDonation(c echo.Context) error {
	donation, err := h.donationUC.GetDonation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, donationView(donation))
}

// Images lists the photos attached to a donation.
func (h *DonationHandler) Images(c echo.Context) error {
	images, err := h.imageUC.ListByAssociation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, images)
}

// Directions returns a maps link to the donation, from ?lat=&lng= when given.
func (h *DonationHandler) Directions(c echo.Context) error {
	origin, ok, err := coordinatesQuery(c)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	var from *entity.Coordinates
	if ok {
		from = &origin
	}

	url, err := h.locationUC.DirectionsURL(c.Request().Context(), c.Param("id"), from)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"url": url})
}

// Claim handles an NGO claiming a pending donation.
func (h *DonationHandler) Claim(c echo.Context) error {
	var req ClaimDonationRequest
	if err := bind(c, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	collection, err := h.donationUC.ClaimDonation(c.Request().Context(), middleware.MustActor(c), c.Param("id"), req.PickupTime, req.Notes)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, collection)
}

// Approve handles a biogas plant approving a waste donation.
func (h *DonationHandler) Approve(c echo.Context) error {
	return h.wasteTransition(c, h.donationUC.ApproveByBiogasPlant)
}

// Accept handles a driver accepting an approved waste donation.
func (h *DonationHandler) Accept(c echo.Context) error {
	return h.wasteTransition(c, h.donationUC.AcceptByDriver)
}

// PickUp handles the driver collecting waste at the donor.
func (h *DonationHandler) PickUp(c echo.Context) error {
	return h.wasteTransition(c, h.donationUC.MarkWastePickedUp)
}

// Deliver handles the driver handing waste over to the plant.
func (h *DonationHandler) Deliver(c echo.Context) error {
	return h.wasteTransition(c, h.donationUC.ConfirmWasteDelivery)
}

// Expire handles a donor or admin withdrawing a pending donation.
func (h *DonationHandler) Expire(c echo.Context) error {
	donation, err := h.donationUC.ExpireDonation(c.Request().Context(), middleware.MustActor(c), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, donationView(donation))
}

type wasteTransitionFunc func(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error)

func (h *DonationHandler) wasteTransition(c echo.Context, transition wasteTransitionFunc) error {
	waste, err := transition(c.Request().Context(), middleware.MustActor(c), c.Param("id"))
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, donationView(waste))
}
