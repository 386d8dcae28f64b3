package impl

import (
	"context"
	"log/slog"
	"maps"

	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
	"foodbridge/internal/usecase"

	"go.uber.org/fx"
)

type pushService struct {
	deviceRepo repository.DeviceRepository
	userRepo   repository.UserRepository
	push       service.PushSender
	mailer     service.Mailer
	logger     *slog.Logger
}

// PushServiceParams holds dependencies for PushService, injected by Fx.
type PushServiceParams struct {
	fx.In

	DeviceRepo repository.DeviceRepository
	UserRepo   repository.UserRepository
	Push       service.PushSender
	Mailer     service.Mailer `optional:"true"`
	Logger     *slog.Logger
}

// NewPushService creates the worker-side fan-out of notification events.
func NewPushService(params PushServiceParams) usecase.PushUsecase {
	return &pushService{
		deviceRepo: params.DeviceRepo,
		userRepo:   params.UserRepo,
		push:       params.Push,
		mailer:     params.Mailer,
		logger:     params.Logger,
	}
}

func (srv *pushService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Deliver sends the event to every active device of the user and mails a
// copy. Store failures are retryable; a rejected push is not, since FCM
// already reported which tokens are bad.
func (srv *pushService) Deliver(ctx context.Context, event *service.NotificationEvent) (*usecase.PushResult, error) {
	if event == nil || event.UserID == "" {
		return nil, errors.New("notification event has no recipient")
	}

	result := &usecase.PushResult{}

	devices, err := srv.deviceRepo.FindActiveDevicesByUser(ctx, event.UserID)
	if err != nil {
		return nil, &usecase.RetryableError{Err: errors.Wrap(err, "failed to load devices")}
	}
	result.Devices = len(devices)

	if len(devices) > 0 {
		tokens := make([]string, 0, len(devices))
		for _, device := range devices {
			tokens = append(tokens, device.FCMToken)
		}

		report, err := srv.push.Push(ctx, tokens, pushMessage(event))
		if err != nil {
			return nil, &usecase.RetryableError{Err: errors.Wrap(err, "failed to send push notification")}
		}
		result.Sent = report.Sent
		result.Failed = report.Failed
		result.InvalidTokens = len(report.InvalidTokens)

		srv.pruneTokens(ctx, report.InvalidTokens)
	}

	result.Mailed = srv.mail(ctx, event)

	srv.log(ctx).Info("Notification delivered",
		slog.String("notificationID", event.NotificationID),
		slog.String("userID", event.UserID),
		slog.Int("devices", result.Devices),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Bool("mailed", result.Mailed))

	return result, nil
}

func (srv *pushService) mail(ctx context.Context, event *service.NotificationEvent) bool {
	if srv.mailer == nil {
		return false
	}

	user, err := srv.userRepo.GetByID(ctx, event.UserID)
	if err != nil {
		srv.log(ctx).Warn("Skipping e-mail copy, user lookup failed", slog.String("userID", event.UserID), slog.Any("error", err))

		return false
	}
	if user.Email == "" || user.Status == entity.UserRejected {
		return false
	}

	if err := srv.mailer.Send(ctx, user.Email, event.Title, event.Message); err != nil {
		srv.log(ctx).Warn("Failed to send e-mail copy", slog.String("userID", event.UserID), slog.Any("error", err))

		return false
	}

	return true
}

func (srv *pushService) pruneTokens(ctx context.Context, tokens []string) {
	if len(tokens) == 0 {
		return
	}

	deactivated, err := srv.deviceRepo.DeactivateByTokens(ctx, tokens)
	if err != nil {
		srv.log(ctx).Warn("Failed to deactivate invalid tokens", slog.Int("count", len(tokens)), slog.Any("error", err))

		return
	}
	srv.log(ctx).Info("Deactivated devices with invalid tokens", slog.Int("count", deactivated))
}

// pushMessage carries the event's data plus its id and type, so the client
// can open the matching notification.
func pushMessage(event *service.NotificationEvent) service.PushMessage {
	data := maps.Clone(event.Data)
	if data == nil {
		data = make(map[string]string, 2)
	}
	data["notification_id"] = event.NotificationID
	data["type"] = event.Type

	return service.PushMessage{Title: event.Title, Body: event.Message, Data: data}
}
