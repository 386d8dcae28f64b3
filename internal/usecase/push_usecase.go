package usecase

import (
	"context"

	"foodbridge/internal/domain/service"
)

// PushResult summarises one fan-out.
type PushResult struct {
	Devices       int
	Sent          int
	Failed        int
	InvalidTokens int
	Mailed        bool
}

// PushUsecase delivers a published notification to the user's devices and inbox.
type PushUsecase interface {
	// Deliver returns a RetryableError when redelivery could succeed.
	Deliver(ctx context.Context, event *service.NotificationEvent) (*PushResult, error)
}

// RetryableError marks a delivery failure worth another attempt.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}
