package repository

import (
	"context"

	"foodbridge/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrNotificationNotFound is returned when a notification is not found.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository holds in-app notifications for the lifetime of the process.
type NotificationRepository interface {
	Add(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)

	// ListByUser returns the user's notifications newest-first.
	ListByUser(ctx context.Context, userID string) ([]*entity.Notification, error)

	MarkRead(ctx context.Context, id string) error

	// MarkAllRead returns how many notifications changed.
	MarkAllRead(ctx context.Context, userID string) (int, error)

	Delete(ctx context.Context, id string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}
