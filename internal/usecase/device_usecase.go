package usecase

import (
	"context"

	"foodbridge/internal/domain/entity"
)

// RegisterDeviceInput is a client's push registration. DeviceID is chosen by
// the client and stays stable across token rotations.
type RegisterDeviceInput struct {
	FCMToken string `json:"fcm_token" validate:"required"`
	DeviceID string `json:"device_id" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

// DeviceUsecase manages the push targets of the calling user. Every
// operation is scoped to devices the actor owns.
type DeviceUsecase interface {
	// Register upserts by client device id and reactivates the device.
	Register(ctx context.Context, actor entity.Actor, input *RegisterDeviceInput) (*entity.UserDevice, error)
	List(ctx context.Context, actor entity.Actor) ([]*entity.UserDevice, error)
	RotateToken(ctx context.Context, actor entity.Actor, deviceID, fcmToken string) error
	Deactivate(ctx context.Context, actor entity.Actor, deviceID string) error
}
