package usecase

import (
	"context"

	"foodbridge/internal/domain/entity"
)

// NotificationUsecase manages the in-app notification feed.
type NotificationUsecase interface {
	// AddNotification stores the notification and publishes it for push
	// delivery. Publish failures are logged, never returned.
	AddNotification(ctx context.Context, userID string, notificationType entity.NotificationType, title, message string, metadata map[string]any) (*entity.Notification, error)

	// GetUserNotifications returns the user's notifications newest-first.
	GetUserNotifications(ctx context.Context, userID string) ([]*entity.Notification, error)

	UnreadCount(ctx context.Context, userID string) (int, error)

	MarkAsRead(ctx context.Context, actor entity.Actor, notificationID string) error

	MarkAllAsRead(ctx context.Context, userID string) (int, error)

	DeleteNotification(ctx context.Context, actor entity.Actor, notificationID string) error

	// NotifyNGO tells an NGO about the food condition found at pickup.
	NotifyNGO(ctx context.Context, ngoID, donationID, condition string, redirected bool) error

	// NotifyBiogasPlant tells a plant about a waste donation headed its way.
	NotifyBiogasPlant(ctx context.Context, plantID, donationID, condition string) error

	// NotifyDriver tells a driver the destination of a donation changed.
	NotifyDriver(ctx context.Context, driverID, donationID, destination string) error
}
