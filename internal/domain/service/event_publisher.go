package service

import (
	"context"
	"time"
)

// NotificationEvent carries one in-app notification to the push worker.
type NotificationEvent struct {
	RequestID      string            `json:"request_id,omitempty"`
	NotificationID string            `json:"notification_id"`
	UserID         string            `json:"user_id"`
	Type           string            `json:"type"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Data           map[string]string `json:"data,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// EventPublisher hands notification events to the push worker. Callers log
// publish failures; the notification itself is already stored.
type EventPublisher interface {
	PublishNotificationEvent(ctx context.Context, event *NotificationEvent) error
	Close() error
}
