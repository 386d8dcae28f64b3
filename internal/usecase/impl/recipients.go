package impl

import (
	"context"
	"log/slog"

	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/usecase"
)

// verifiedUsers returns the accounts of a role an admin has verified.
func verifiedUsers(ctx context.Context, userRepo repository.UserRepository, role entity.Role) ([]*entity.User, error) {
	users, err := userRepo.GetByRole(ctx, role)
	if err != nil {
		return nil, mapRepoError(err, "list users by role")
	}

	verified := make([]*entity.User, 0, len(users))
	for _, user := range users {
		if user.Status == entity.UserVerified {
			verified = append(verified, user)
		}
	}

	return verified, nil
}

// actorDisplayName is the name shown to other parties: the organization of
// NGO and biogas accounts, the person's name otherwise.
func actorDisplayName(ctx context.Context, userRepo repository.UserRepository, actor entity.Actor) string {
	if userRepo == nil {
		return actor.Name
	}

	user, err := userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return actor.Name
	}
	if org := user.DisplayOrganization(); org != "" {
		return org
	}

	return user.Name
}

// notifyUser records a notification and only logs when that fails; the
// lifecycle change it reports has already been committed.
func notifyUser(
	ctx context.Context,
	notifications usecase.NotificationUsecase,
	logger *slog.Logger,
	userID string,
	notificationType entity.NotificationType,
	title, message string,
	metadata map[string]any,
) {
	if notifications == nil || userID == "" {
		return
	}

	if _, err := notifications.AddNotification(ctx, userID, notificationType, title, message, metadata); err != nil {
		logger.Warn("Failed to add notification",
			slog.String("userID", userID),
			slog.String("type", string(notificationType)),
			slog.Any("error", err))
	}
}
