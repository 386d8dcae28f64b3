package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/validator"
	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/errors"
	"foodbridge/internal/usecase"

	"github.com/go-playground/form/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const correctErrorsMessage = "Please correct the errors above."

// formTimeLayouts are tried in order; datetime-local inputs carry no zone.
var formTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// FormState is what every form action answers, success or not.
type FormState struct {
	Errors  map[string][]string `json:"errors,omitempty"`
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	ID      string              `json:"id,omitempty"`
}

// CollectionForm is an NGO's pickup request submitted from the collect page.
type CollectionForm struct {
	DonationID string    `json:"donationId" form:"donationId" validate:"required" msg:"Donation ID is required."`
	PickupTime time.Time `json:"pickupTime" form:"pickupTime" validate:"required" msg:"Please specify a pickup time."`
	Notes      string    `json:"notes" form:"notes"`
}

// ActionHandlerParams holds dependencies for ActionHandler, injected by Fx.
type ActionHandlerParams struct {
	fx.In

	AuthUC     usecase.AuthUsecase
	DonationUC usecase.DonationUsecase
	ImageUC    usecase.ImageUsecase
	Sessions   *SessionCookies
	Logger     *slog.Logger
}

// ActionHandler serves the form actions of the web client.
type ActionHandler struct {
	authUC     usecase.AuthUsecase
	donationUC usecase.DonationUsecase
	imageUC    usecase.ImageUsecase
	sessions   *SessionCookies
	decoder    *form.Decoder
	logger     *slog.Logger
}

// NewActionHandler is the constructor for ActionHandler.
func NewActionHandler(params ActionHandlerParams) *ActionHandler {
	decoder := form.NewDecoder()
	decoder.SetTagName("form")
	decoder.RegisterCustomTypeFunc(decodeFormTime, time.Time{})

	return &ActionHandler{
		authUC:     params.AuthUC,
		donationUC: params.DonationUC,
		imageUC:    params.ImageUC,
		sessions:   params.Sessions,
		decoder:    decoder,
		logger:     params.Logger,
	}
}

func decodeFormTime(values []string) (any, error) {
	raw := strings.TrimSpace(values[0])
	if raw == "" {
		return time.Time{}, nil
	}

	for _, layout := range formTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return nil, errors.Errorf("unrecognised time %q", raw)
}

// Login signs the user in and sets the session cookies.
func (h *ActionHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if state, ok := h.decode(c, &input); !ok {
		return c.JSON(http.StatusBadRequest, state)
	}

	session, err := h.authUC.Login(c.Request().Context(), &input)
	if err != nil {
		return h.failure(c, err, "An error occurred during login. Please try again.")
	}

	if err := h.sessions.Set(c, session); err != nil {
		return h.failure(c, err, "An error occurred during login. Please try again.")
	}

	return c.JSON(http.StatusOK, FormState{Success: true, Message: "Login successful! Redirecting...", ID: session.User.ID})
}

// Signup opens an account and sets the session cookies.
func (h *ActionHandler) Signup(c echo.Context) error {
	var input usecase.SignupInput
	if state, ok := h.decode(c, &input); !ok {
		return c.JSON(http.StatusBadRequest, state)
	}

	session, err := h.authUC.Signup(c.Request().Context(), &input)
	if err != nil {
		return h.failure(c, err, "An error occurred during signup. Please try again.")
	}

	if err := h.sessions.Set(c, session); err != nil {
		return h.failure(c, err, "An error occurred during signup. Please try again.")
	}

	return c.JSON(http.StatusCreated, FormState{Success: true, Message: "Signup successful! Redirecting...", ID: session.User.ID})
}

// Logout deletes the session cookies.
func (h *ActionHandler) Logout(c echo.Context) error {
	h.sessions.Clear(c)

	return c.JSON(http.StatusOK, FormState{Success: true, Message: "Logged out"})
}

// SubmitDonation stores a donation from the donate page.
func (h *ActionHandler) SubmitDonation(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, formError("You must be logged in to donate food."))
	}

	var req CreateDonationRequest
	if state, ok := h.decode(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, state)
	}

	ctx := c.Request().Context()

	donation, err := h.donationUC.CreateDonation(ctx, actor, req.Draft())
	if err != nil {
		return h.failure(c, err, "An error occurred while submitting your donation. Please try again.")
	}

	if req.Image != "" {
		if _, err := h.imageUC.UploadDataURL(ctx, actor, req.Image, entity.ImageDonation, donation.Info().ID); err != nil {
			deliverycontext.GetLoggerOrDefault(ctx, h.logger).Warn("Donation stored without its photo",
				slog.String("donation_id", donation.Info().ID),
				slog.Any("error", err))
		}
	}

	return c.JSON(http.StatusCreated, FormState{Success: true, Message: "Donation submitted successfully!", ID: donation.Info().ID})
}

// SubmitCollection claims a donation for the calling NGO.
func (h *ActionHandler) SubmitCollection(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, formError("You must be logged in to collect food."))
	}
	if actor.Role != entity.RoleNGO {
		return c.JSON(http.StatusForbidden, formError("Only NGOs can collect food."))
	}

	var req CollectionForm
	if state, ok := h.decode(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, state)
	}

	collection, err := h.donationUC.ClaimDonation(c.Request().Context(), actor, req.DonationID, req.PickupTime, req.Notes)
	if err != nil {
		return h.failure(c, err, "An error occurred while submitting your collection request. Please try again.")
	}

	return c.JSON(http.StatusCreated, FormState{Success: true, Message: "Collection request submitted successfully!", ID: collection.ID})
}

// decode fills dst from a url-encoded form or a JSON body and validates it.
func (h *ActionHandler) decode(c echo.Context, dst any) (FormState, bool) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := c.Bind(dst); err != nil {
			return formError("The submitted data could not be read."), false
		}
	} else {
		values, err := c.FormParams()
		if err != nil {
			return formError("The submitted form could not be read."), false
		}
		if err := h.decoder.Decode(dst, values); err != nil {
			return formError("The submitted form could not be read."), false
		}
	}

	if err := c.Validate(dst); err != nil {
		return FormState{Errors: validator.FieldErrors(dst, err), Message: correctErrorsMessage}, false
	}

	return FormState{}, true
}

// failure renders a usecase error as a form-level message. Server errors get
// the generic fallback so internals never reach the page.
func (h *ActionHandler) failure(c echo.Context, err error, fallback string) error {
	appErr := domainerrors.Resolve(err)
	status := appErr.HTTPCode()

	if status >= http.StatusInternalServerError {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).Error("Form action failed",
			slog.String("path", c.Request().URL.Path),
			slog.Any("error", err))

		return c.JSON(status, formError(fallback))
	}

	message := appErr.Message()
	if domainerrors.Is(appErr, domainerrors.ErrValidationFailed) && appErr.Details() != "" {
		message = appErr.Details()
	}

	return c.JSON(status, formError(message))
}

func formError(message string) FormState {
	return FormState{Errors: map[string][]string{validator.FormKey: {message}}}
}
