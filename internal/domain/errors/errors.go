// Package errors holds the application errors rendered by the delivery layer.
package errors

import (
	"net/http"
)

// AppError is an error with a stable business code and the HTTP status it
// maps to. Details are for the caller, never for 5xx responses.
type AppError interface {
	error
	HTTPCode() int
	ErrorCode() string
	Message() string
	Details() string
}

// BaseError is the AppError used for every predefined error. It is
// immutable; WithDetails and Because return copies.
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
	cause     error
}

func newError(httpCode int, errorCode, message string) *BaseError {
	return &BaseError{httpCode: httpCode, errorCode: errorCode, message: message}
}

func (e *BaseError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}

	return e.message
}

func (e *BaseError) Unwrap() error { return e.cause }

func (e *BaseError) HTTPCode() int     { return e.httpCode }
func (e *BaseError) ErrorCode() string { return e.errorCode }
func (e *BaseError) Message() string   { return e.message }
func (e *BaseError) Details() string   { return e.details }

// WithDetails returns a copy of e carrying details.
func (e *BaseError) WithDetails(details string) *BaseError {
	c := *e
	c.details = details

	return &c
}

// Because returns a copy of e wrapping cause. The cause text becomes the
// details unless details were already set.
func (e *BaseError) Because(cause error) *BaseError {
	c := *e
	c.cause = cause
	if c.details == "" && cause != nil {
		c.details = cause.Error()
	}

	return &c
}

// Lifecycle
var (
	ErrDonationNotFound    = newError(http.StatusNotFound, "DONATION_NOT_FOUND", "Donation not found")
	ErrDonationUnavailable = newError(http.StatusConflict, "DONATION_UNAVAILABLE", "This donation is no longer available")
	ErrInvalidTransition   = newError(http.StatusConflict, "INVALID_TRANSITION", "The donation is not in a state that allows this action")
	ErrConcurrentUpdate    = newError(http.StatusConflict, "CONCURRENT_UPDATE", "The record was changed by another request, please retry")
	ErrCollectionNotFound  = newError(http.StatusNotFound, "COLLECTION_NOT_FOUND", "Collection not found")
	ErrInvalidPickupCode   = newError(http.StatusBadRequest, "INVALID_PICKUP_CODE", "The pickup code does not match this collection")
)

// Accounts and access
var (
	ErrUserNotFound       = newError(http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	ErrUserAlreadyExists  = newError(http.StatusConflict, "USER_ALREADY_EXISTS", "User with this email already exists")
	ErrInvalidCredentials = newError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrUnauthenticated    = newError(http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required")
	ErrRoleNotAllowed     = newError(http.StatusForbidden, "ROLE_NOT_ALLOWED", "Your role is not allowed to perform this action")
	ErrAccountRejected    = newError(http.StatusForbidden, "ACCOUNT_REJECTED", "This account has been rejected by an administrator")
	ErrPasswordHashFailed = newError(http.StatusInternalServerError, "PASSWORD_HASH_FAILED", "Failed to process password")
	ErrForbidden          = newError(http.StatusForbidden, "FORBIDDEN", "Access denied")
)

// Images, devices, notifications
var (
	ErrImageNotFound        = newError(http.StatusNotFound, "IMAGE_NOT_FOUND", "Image not found")
	ErrInvalidImage         = newError(http.StatusBadRequest, "INVALID_IMAGE", "The uploaded file is not a supported image")
	ErrDeviceNotFound       = newError(http.StatusNotFound, "DEVICE_NOT_FOUND", "Device not found")
	ErrNotificationNotFound = newError(http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
)

// Input and infrastructure
var (
	ErrValidationFailed   = newError(http.StatusBadRequest, "VALIDATION_FAILED", "Input validation failed")
	ErrInvalidCoordinates = newError(http.StatusBadRequest, "INVALID_COORDINATES", "Coordinates are out of range")
	ErrStorageUnavailable = newError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Data could not be saved, please try again later")
	ErrInternalError      = newError(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
)
