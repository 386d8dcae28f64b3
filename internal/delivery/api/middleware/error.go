package middleware

import (
	"log/slog"
	"net/http"

	"foodbridge/internal/delivery/api/response"
	deliverycontext "foodbridge/internal/delivery/context"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/errors"

	"github.com/labstack/echo/v4"
)

// ErrorMiddleware is echo's HTTPErrorHandler: every error that escapes a
// handler ends up in the response envelope here.
type ErrorMiddleware struct {
	logger *slog.Logger
}

func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{logger: logger}
}

func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		appErr  domainerrors.AppError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &appErr):
		m.logServerError(c, appErr.HTTPCode(), err)
		_ = response.AppError(c, appErr)

	case errors.As(err, &httpErr):
		message := http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
		_ = response.Error(c, httpErr.Code, response.CodeHTTPError, message, nil)

	default:
		m.logServerError(c, http.StatusInternalServerError, err)
		_ = response.Internal(c)
	}
}

func (m *ErrorMiddleware) logServerError(c echo.Context, status int, err error) {
	if status < http.StatusInternalServerError {
		return
	}

	deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Error("Unhandled error",
		slog.Any("error", err),
		slog.Int("status", status),
		slog.String("method", c.Request().Method),
		slog.String("path", c.Request().URL.Path),
	)
}
