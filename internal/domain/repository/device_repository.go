package repository

import (
	"context"

	"foodbridge/internal/domain/entity"
	"foodbridge/internal/errors"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	// ErrDuplicateDevice means the user already registered this client device id.
	ErrDuplicateDevice = errors.New("device already exists")
)

// DeviceRepository stores the push targets of every user. Devices are never
// deleted; a dead token only deactivates its device.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device *entity.UserDevice) error
	FindDeviceByID(ctx context.Context, id string) (*entity.UserDevice, error)
	// FindByClientDeviceID finds the user's registration for a client-chosen device id.
	FindByClientDeviceID(ctx context.Context, userID, deviceID string) (*entity.UserDevice, error)
	FindActiveDevicesByUser(ctx context.Context, userID string) ([]*entity.UserDevice, error)
	UpdateDevice(ctx context.Context, device *entity.UserDevice) error
	// DeactivateByTokens marks every active device holding one of tokens
	// inactive and returns how many changed.
	DeactivateByTokens(ctx context.Context, tokens []string) (int, error)
}
