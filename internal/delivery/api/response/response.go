// Package response renders the JSON envelope every API endpoint answers with:
// {success, data, meta} on success and {success, error, meta} on failure.
package response

import (
	"net/http"

	deliverycontext "foodbridge/internal/delivery/context"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/errors"

	"github.com/labstack/echo/v4"
)

const (
	CodeHTTPError     = "HTTP_ERROR"
	CodeInternalError = "INTERNAL_ERROR"

	internalMessage = "Internal server error, please try again later"
)

type Meta struct {
	RequestID string `json:"request_id"`
}

type SuccessResponse struct {
	Success bool  `json:"success"`
	Data    any   `json:"data"`
	Meta    *Meta `json:"meta"`
}

type ErrorResponse struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error"`
	Meta    *Meta      `json:"meta"`
}

// ErrorInfo is the machine code, a human message and optional details.
// Details are only ever sent for client errors other than 401.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func metaOf(c echo.Context) *Meta {
	return &Meta{RequestID: deliverycontext.GetRequestID(c)}
}

func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, SuccessResponse{Success: true, Data: data, Meta: metaOf(c)})
}

func Error(c echo.Context, statusCode int, code, message string, details any) error {
	if statusCode >= http.StatusInternalServerError || statusCode == http.StatusUnauthorized {
		details = nil
	}

	return c.JSON(statusCode, ErrorResponse{
		Error: &ErrorInfo{Code: code, Message: message, Details: details},
		Meta:  metaOf(c),
	})
}

func NotFound(c echo.Context, code, message string) error {
	return Error(c, http.StatusNotFound, code, message, nil)
}

// Internal answers 500 without revealing what failed.
func Internal(c echo.Context) error {
	return Error(c, http.StatusInternalServerError, CodeInternalError, internalMessage, nil)
}

// AppError renders a domain error with its own status and code.
func AppError(c echo.Context, appErr domainerrors.AppError) error {
	var details any
	if d := appErr.Details(); d != "" {
		details = d
	}

	return Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), details)
}

// HandleAppError renders client-side domain errors in place. Server-side
// and unknown errors are returned for the central error handler to log and
// mask.
func HandleAppError(c echo.Context, err error) error {
	var appErr domainerrors.AppError
	if !errors.As(err, &appErr) || appErr.HTTPCode() >= http.StatusInternalServerError {
		return errors.WithStack(err)
	}

	return AppError(c, appErr)
}
