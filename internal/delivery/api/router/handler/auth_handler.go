package handler

import (
	"log/slog"
	"net/http"

	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/response"
	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC   usecase.AuthUsecase
	Sessions *SessionCookies
	Logger   *slog.Logger
}

// AuthHandler serves signup, login and logout.
type AuthHandler struct {
	authUC   usecase.AuthUsecase
	sessions *SessionCookies
	logger   *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler.
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC:   params.AuthUC,
		sessions: params.Sessions,
		logger:   params.Logger,
	}
}

// Signup handles account creation and starts a session.
func (h *AuthHandler) Signup(c echo.Context) error {
	var input usecase.SignupInput
	if err := bind(c, &input); err != nil {
		return response.HandleAppError(c, err)
	}

	session, err := h.authUC.Signup(c.Request().Context(), &input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if err := h.sessions.Set(c, session); err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, session)
}

// Login handles the user login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var input usecase.LoginInput
	if err := bind(c, &input); err != nil {
		return response.HandleAppError(c, err)
	}

	session, err := h.authUC.Login(c.Request().Context(), &input)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	if err := h.sessions.Set(c, session); err != nil {
		return err
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).Info("User logged in",
		slog.String("user_id", session.User.ID),
		slog.String("role", session.User.Role.String()))

	return response.Success(c, http.StatusOK, session)
}

// Logout clears the session cookies. Bearer tokens simply expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.sessions.Clear(c)

	return response.Success(c, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	actor := middleware.MustActor(c)

	user, err := h.authUC.GetUser(c.Request().Context(), actor.UserID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, user)
}
