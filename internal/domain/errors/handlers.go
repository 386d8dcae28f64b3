package errors

import (
	"foodbridge/internal/errors"
)

// Resolve returns the AppError carried by err, or ErrInternalError with the
// error text as details when err carries none.
func Resolve(err error) AppError {
	if err == nil {
		return nil
	}

	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternalError.WithDetails(err.Error())
}

// Is reports whether err carries an AppError with the same business code as target.
func Is(err error, target AppError) bool {
	var appErr AppError
	if !errors.As(err, &appErr) {
		return false
	}

	return appErr.ErrorCode() == target.ErrorCode()
}
