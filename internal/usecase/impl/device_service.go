package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/errors"
	"foodbridge/internal/usecase"
)

type deviceService struct {
	deviceRepo repository.DeviceRepository
	logger     *slog.Logger
}

func NewDeviceService(deviceRepo repository.DeviceRepository, logger *slog.Logger) usecase.DeviceUsecase {
	return &deviceService{
		deviceRepo: deviceRepo,
		logger:     logger,
	}
}

func (srv *deviceService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *deviceService) Register(ctx context.Context, actor entity.Actor, input *usecase.RegisterDeviceInput) (*entity.UserDevice, error) {
	if actor.UserID == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	platform := strings.ToLower(input.Platform)

	existing, err := srv.deviceRepo.FindByClientDeviceID(ctx, actor.UserID, input.DeviceID)
	switch {
	case err == nil:
		existing.FCMToken = input.FCMToken
		existing.Platform = platform
		existing.IsActive = true
		if err := srv.deviceRepo.UpdateDevice(ctx, existing); err != nil {
			return nil, mapRepoError(err, "update device")
		}
		srv.log(ctx).Info("Device re-registered", slog.String("deviceID", existing.ID))

		return existing, nil
	case !errors.Is(err, repository.ErrDeviceNotFound):
		return nil, mapRepoError(err, "find device")
	}

	device := &entity.UserDevice{
		UserID:   actor.UserID,
		FCMToken: input.FCMToken,
		DeviceID: input.DeviceID,
		Platform: platform,
		IsActive: true,
	}
	if err := srv.deviceRepo.CreateDevice(ctx, device); err != nil {
		return nil, mapRepoError(err, "create device")
	}
	srv.log(ctx).Info("Device registered", slog.String("deviceID", device.ID), slog.String("platform", platform))

	return device, nil
}

// owned loads a device of the actor. Someone else's device is forbidden
// rather than hidden.
func (srv *deviceService) owned(ctx context.Context, actor entity.Actor, deviceID string) (*entity.UserDevice, error) {
	device, err := srv.deviceRepo.FindDeviceByID(ctx, deviceID)
	if err != nil {
		return nil, mapRepoError(err, "find device")
	}
	if device.UserID != actor.UserID {
		return nil, domainerrors.ErrForbidden.WithDetails("device belongs to another user")
	}

	return device, nil
}

func (srv *deviceService) List(ctx context.Context, actor entity.Actor) ([]*entity.UserDevice, error) {
	devices, err := srv.deviceRepo.FindActiveDevicesByUser(ctx, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "list devices")
	}

	return devices, nil
}

func (srv *deviceService) RotateToken(ctx context.Context, actor entity.Actor, deviceID, fcmToken string) error {
	if strings.TrimSpace(fcmToken) == "" {
		return validationFailed("fcm_token is required")
	}

	device, err := srv.owned(ctx, actor, deviceID)
	if err != nil {
		return err
	}

	device.FCMToken = fcmToken
	device.IsActive = true

	return mapRepoError(srv.deviceRepo.UpdateDevice(ctx, device), "rotate token")
}

// Deactivate is idempotent.
func (srv *deviceService) Deactivate(ctx context.Context, actor entity.Actor, deviceID string) error {
	device, err := srv.owned(ctx, actor, deviceID)
	if err != nil || !device.IsActive {
		return err
	}

	device.IsActive = false

	return mapRepoError(srv.deviceRepo.UpdateDevice(ctx, device), "deactivate device")
}
