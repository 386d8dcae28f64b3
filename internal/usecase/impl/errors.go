package impl

import (
	"fmt"

	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/errors"
)

// mapRepoError turns persistence sentinels into the application errors the
// delivery layer renders. Errors that already are application errors pass
// through unchanged.
func mapRepoError(err error, action string) error {
	if err == nil {
		return nil
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, repository.ErrDonationNotFound):
		return domainerrors.ErrDonationNotFound
	case errors.Is(err, repository.ErrCollectionNotFound):
		return domainerrors.ErrCollectionNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return domainerrors.ErrUserNotFound
	case errors.Is(err, repository.ErrImageNotFound):
		return domainerrors.ErrImageNotFound
	case errors.Is(err, repository.ErrDeviceNotFound):
		return domainerrors.ErrDeviceNotFound
	case errors.Is(err, repository.ErrNotificationNotFound):
		return domainerrors.ErrNotificationNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return domainerrors.ErrUserAlreadyExists
	case errors.Is(err, repository.ErrVersionConflict):
		return domainerrors.ErrConcurrentUpdate.Because(err)
	case errors.Is(err, repository.ErrNotSaved):
		return domainerrors.ErrStorageUnavailable.Because(err)
	default:
		return errors.Wrap(err, "failed to "+action)
	}
}

func requireRole(actor entity.Actor, roles ...entity.Role) error {
	if actor.UserID == "" {
		return domainerrors.ErrUnauthenticated
	}
	if !actor.Is(roles...) {
		return domainerrors.ErrRoleNotAllowed.WithDetails(
			fmt.Sprintf("%s accounts cannot perform this action", actor.Role.Label()))
	}

	return nil
}

func invalidTransition(format string, args ...any) error {
	return domainerrors.ErrInvalidTransition.WithDetails(fmt.Sprintf(format, args...))
}

func validationFailed(format string, args ...any) error {
	return domainerrors.ErrValidationFailed.WithDetails(fmt.Sprintf(format, args...))
}
