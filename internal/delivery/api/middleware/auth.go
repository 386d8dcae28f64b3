package middleware

import (
	"log/slog"
	"strings"

	"foodbridge/internal/delivery/api/response"
	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const actorKey = "actor"

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Cookie service.CookieCodec
	Logger *slog.Logger
}

// AuthMiddleware resolves the caller from a Bearer token or the auth cookie.
type AuthMiddleware struct {
	authUC usecase.AuthUsecase
	cookie service.CookieCodec
	logger *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		authUC: params.AuthUC,
		cookie: params.Cookie,
		logger: params.Logger,
	}
}

// Authenticate rejects requests without a valid access token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := m.resolve(c)
		if err != nil {
			return response.HandleAppError(c, err)
		}

		SetActor(c, actor)

		return next(c)
	}
}

// Optional sets the actor when the request carries a valid token and lets
// anonymous requests through.
func (m *AuthMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if actor, err := m.resolve(c); err == nil {
			SetActor(c, actor)
		}

		return next(c)
	}
}

// RequireRole is a middleware factory that checks the caller holds one of roles.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := GetActor(c)
			if !ok {
				return response.HandleAppError(c, domainerrors.ErrUnauthenticated)
			}
			if !actor.Is(roles...) {
				return response.HandleAppError(c, domainerrors.ErrRoleNotAllowed)
			}

			return next(c)
		}
	}
}

func (m *AuthMiddleware) resolve(c echo.Context) (entity.Actor, error) {
	token := m.token(c)
	if token == "" {
		return entity.Actor{}, domainerrors.ErrUnauthenticated
	}

	actor, err := m.authUC.Authenticate(c.Request().Context(), token)
	if err != nil {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Debug("Rejected access token",
			slog.Any("error", err))

		return entity.Actor{}, err
	}

	return actor, nil
}

func (m *AuthMiddleware) token(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}

		return ""
	}

	cookie, err := c.Cookie(constants.CookieAuthToken)
	if err != nil || cookie.Value == "" {
		return ""
	}

	token, err := m.cookie.Decode(constants.CookieAuthToken, cookie.Value)
	if err != nil {
		return ""
	}

	return token
}

// SetActor stores the authenticated caller on the request.
func SetActor(c echo.Context, actor entity.Actor) {
	c.Set(actorKey, actor)
}

// GetActor returns the authenticated caller, if any.
func GetActor(c echo.Context) (entity.Actor, bool) {
	actor, ok := c.Get(actorKey).(entity.Actor)
	if !ok || actor.UserID == "" {
		return entity.Actor{}, false
	}

	return actor, true
}

// MustActor returns the caller or the zero actor, which every usecase rejects
// as unauthenticated.
func MustActor(c echo.Context) entity.Actor {
	actor, _ := GetActor(c)

	return actor
}

