package kv

import (
	"context"
	"slices"

	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/util"
)

// deviceRepository implements the repository.DeviceRepository interface.
type deviceRepository struct {
	session kvstore.Session
	now     Clock
}

// NewDeviceRepository is the constructor for deviceRepository.
func NewDeviceRepository(session kvstore.Session, clock Clock) repository.DeviceRepository {
	return &deviceRepository{session: session, now: orNow(clock)}
}

func (repo *deviceRepository) load(ctx context.Context, s kvstore.Session) ([]deviceRecord, error) {
	return loadList[deviceRecord](ctx, s, constants.KeyDevices)
}

// CreateDevice persists a new device for a user.
func (repo *deviceRepository) CreateDevice(ctx context.Context, device *entity.UserDevice) error {
	now := repo.now()
	if device.ID == "" {
		device.ID = util.NewID(util.PrefixDevice, now)
	}
	device.CreatedAt = now
	device.UpdatedAt = now

	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		for _, rec := range list {
			if rec.UserID == device.UserID && rec.DeviceID == device.DeviceID {
				return repository.ErrDuplicateDevice
			}
		}

		stored := *device

		return saveList(ctx, s, constants.KeyDevices, append(list, deviceRecord{&stored}))
	})
}

// FindDeviceByID retrieves a device by its unique ID.
func (repo *deviceRepository) FindDeviceByID(ctx context.Context, id string) (*entity.UserDevice, error) {
	devices, err := repo.filter(ctx, func(d *entity.UserDevice) bool { return d.ID == id })
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, repository.ErrDeviceNotFound
	}

	return devices[0], nil
}

func (repo *deviceRepository) FindByClientDeviceID(ctx context.Context, userID, deviceID string) (*entity.UserDevice, error) {
	devices, err := repo.filter(ctx, func(d *entity.UserDevice) bool {
		return d.UserID == userID && d.DeviceID == deviceID
	})
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, repository.ErrDeviceNotFound
	}

	return devices[0], nil
}

// FindActiveDevicesByUser retrieves all active devices for a specific user.
func (repo *deviceRepository) FindActiveDevicesByUser(ctx context.Context, userID string) ([]*entity.UserDevice, error) {
	return repo.filter(ctx, func(d *entity.UserDevice) bool { return d.UserID == userID && d.IsActive })
}

func (repo *deviceRepository) UpdateDevice(ctx context.Context, device *entity.UserDevice) error {
	device.UpdatedAt = repo.now()

	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		idx := indexOf(list, device.ID)
		if idx < 0 {
			return repository.ErrDeviceNotFound
		}
		stored := *device
		list[idx] = deviceRecord{&stored}

		return saveList(ctx, s, constants.KeyDevices, list)
	})
}

func (repo *deviceRepository) DeactivateByTokens(ctx context.Context, tokens []string) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	var changed int
	err := atomic(ctx, repo.session, func(s kvstore.Session) error {
		changed = 0

		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		now := repo.now()
		for _, rec := range list {
			if rec.IsActive && slices.Contains(tokens, rec.FCMToken) {
				rec.IsActive = false
				rec.UpdatedAt = now
				changed++
			}
		}
		if changed == 0 {
			return nil
		}

		return saveList(ctx, s, constants.KeyDevices, list)
	})

	return changed, err
}

func (repo *deviceRepository) filter(ctx context.Context, keep func(*entity.UserDevice) bool) ([]*entity.UserDevice, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.UserDevice, 0, len(list))
	for _, rec := range list {
		if keep(rec.UserDevice) {
			device := *rec.UserDevice
			result = append(result, &device)
		}
	}

	return result, nil
}
