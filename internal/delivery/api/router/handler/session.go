package handler

import (
	"net/http"
	"time"

	"foodbridge/config"
	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const sessionMaxAge = 7 * 24 * time.Hour

// SessionCookiesParams holds dependencies for SessionCookies, injected by Fx.
type SessionCookiesParams struct {
	fx.In

	Cookie service.CookieCodec
	Config *config.Config
}

// SessionCookies writes and clears the signed auth cookies.
type SessionCookies struct {
	codec  service.CookieCodec
	secure bool
}

// NewSessionCookies is the constructor for SessionCookies.
func NewSessionCookies(params SessionCookiesParams) *SessionCookies {
	return &SessionCookies{
		codec:  params.Cookie,
		secure: params.Config.HTTP.SecureCookies || params.Config.IsProduction(),
	}
}

// Set stores the session token, e-mail and role cookies.
func (s *SessionCookies) Set(c echo.Context, session *usecase.Session) error {
	values := map[string]string{
		constants.CookieAuthToken: session.AccessToken,
		constants.CookieUserEmail: session.User.Email,
		constants.CookieUserRole:  session.User.Role.String(),
	}

	for name, value := range values {
		encoded, err := s.codec.Encode(name, value)
		if err != nil {
			return errors.WithStack(err)
		}
		c.SetCookie(s.cookie(name, encoded, int(sessionMaxAge.Seconds())))
	}

	return nil
}

// Clear expires every session cookie.
func (s *SessionCookies) Clear(c echo.Context) {
	for _, name := range []string{constants.CookieAuthToken, constants.CookieUserEmail, constants.CookieUserRole} {
		c.SetCookie(s.cookie(name, "", -1))
	}
}

func (s *SessionCookies) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
