package impl

import (
	"context"
	"fmt"
	"log/slog"

	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/usecase"
	"foodbridge/internal/util"

	"go.uber.org/fx"
)

type notificationService struct {
	notificationRepo repository.NotificationRepository
	publisher        service.EventPublisher
	now              util.Clock
	logger           *slog.Logger
}

// NotificationServiceParams holds dependencies for NotificationService, injected by Fx.
type NotificationServiceParams struct {
	fx.In

	NotificationRepo repository.NotificationRepository
	Publisher        service.EventPublisher
	Clock            util.Clock
	Logger           *slog.Logger
}

// NewNotificationService creates a new notification service instance
func NewNotificationService(params NotificationServiceParams) usecase.NotificationUsecase {
	clock := params.Clock
	if clock == nil {
		clock = util.SystemClock()
	}

	return &notificationService{
		notificationRepo: params.NotificationRepo,
		publisher:        params.Publisher,
		now:              clock,
		logger:           params.Logger,
	}
}

func (srv *notificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// AddNotification stores a notification and hands it to the push pipeline.
func (srv *notificationService) AddNotification(
	ctx context.Context,
	userID string,
	notificationType entity.NotificationType,
	title, message string,
	metadata map[string]any,
) (*entity.Notification, error) {
	if userID == "" {
		return nil, validationFailed("notification recipient is required")
	}

	now := srv.now()
	notification := &entity.Notification{
		ID:        util.NewID(util.PrefixNotification, now),
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		CreatedAt: now,
		Metadata:  metadata,
	}

	if err := srv.notificationRepo.Add(ctx, notification); err != nil {
		return nil, mapRepoError(err, "store notification")
	}

	srv.publish(ctx, notification)

	return notification, nil
}

func (srv *notificationService) publish(ctx context.Context, notification *entity.Notification) {
	if srv.publisher == nil {
		return
	}

	data := make(map[string]string, len(notification.Metadata))
	for k, v := range notification.Metadata {
		data[k] = fmt.Sprint(v)
	}

	event := &service.NotificationEvent{
		RequestID:      deliverycontext.GetRequestIDFromContext(ctx),
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		Type:           string(notification.Type),
		Title:          notification.Title,
		Message:        notification.Message,
		Data:           data,
		CreatedAt:      notification.CreatedAt,
	}

	if err := srv.publisher.PublishNotificationEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish notification event",
			slog.String("notificationID", notification.ID),
			slog.String("userID", notification.UserID),
			slog.Any("error", err))
	}
}

func (srv *notificationService) GetUserNotifications(ctx context.Context, userID string) ([]*entity.Notification, error) {
	notifications, err := srv.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "list notifications")
	}

	return notifications, nil
}

func (srv *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := srv.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, mapRepoError(err, "count unread notifications")
	}

	return count, nil
}

func (srv *notificationService) MarkAsRead(ctx context.Context, actor entity.Actor, notificationID string) error {
	if _, err := srv.owned(ctx, actor, notificationID); err != nil {
		return err
	}

	return mapRepoError(srv.notificationRepo.MarkRead(ctx, notificationID), "mark notification read")
}

func (srv *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	changed, err := srv.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, mapRepoError(err, "mark notifications read")
	}

	return changed, nil
}

func (srv *notificationService) DeleteNotification(ctx context.Context, actor entity.Actor, notificationID string) error {
	if _, err := srv.owned(ctx, actor, notificationID); err != nil {
		return err
	}

	return mapRepoError(srv.notificationRepo.Delete(ctx, notificationID), "delete notification")
}

// owned loads a notification addressed to the actor. Other users' notifications
// are reported as missing.
func (srv *notificationService) owned(ctx context.Context, actor entity.Actor, notificationID string) (*entity.Notification, error) {
	notification, err := srv.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, mapRepoError(err, "find notification")
	}
	if notification.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, domainerrors.ErrNotificationNotFound
	}

	return notification, nil
}

func (srv *notificationService) NotifyNGO(ctx context.Context, ngoID, donationID, condition string, redirected bool) error {
	short := util.ShortID(donationID)

	var title, message string
	switch {
	case redirected:
		title = "Donation Redirected"
		message = fmt.Sprintf("Donation #%s has been redirected to a biogas plant due to %s condition.", short, condition)
	case condition == "edible":
		title = "Food Condition Verified"
		message = fmt.Sprintf("Donation #%s has been verified as edible and is on its way to you.", short)
	default:
		title = "Food Condition Alert"
		message = fmt.Sprintf("Donation #%s has been found to be in %s condition.", short, condition)
	}

	_, err := srv.AddNotification(ctx, ngoID, entity.NotificationFoodCondition, title, message, map[string]any{
		"donationId":   donationID,
		"condition":    condition,
		"isRedirected": redirected,
	})

	return err
}

func (srv *notificationService) NotifyBiogasPlant(ctx context.Context, plantID, donationID, condition string) error {
	message := fmt.Sprintf("A new %s food donation #%s has been redirected to your facility.", condition, util.ShortID(donationID))

	_, err := srv.AddNotification(ctx, plantID, entity.NotificationPickupRequest, "New Waste Donation", message, map[string]any{
		"donationId": donationID,
		"condition":  condition,
	})

	return err
}

func (srv *notificationService) NotifyDriver(ctx context.Context, driverID, donationID, destination string) error {
	target := "an NGO"
	if destination == "biogas" {
		target = "a biogas plant"
	}
	message := fmt.Sprintf("Donation #%s destination has been updated to %s.", util.ShortID(donationID), target)

	_, err := srv.AddNotification(ctx, driverID, entity.NotificationRouteChange, "Destination Updated", message, map[string]any{
		"donationId":     donationID,
		"newDestination": destination,
	})

	return err
}
