// Package memory holds repositories whose data lives only for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
)

// notificationRepository implements repository.NotificationRepository.
type notificationRepository struct {
	mu            sync.RWMutex
	notifications []*entity.Notification
}

// NewNotificationRepository returns an empty repository. Each call creates an
// independent instance.
func NewNotificationRepository() repository.NotificationRepository {
	return &notificationRepository{}
}

func (repo *notificationRepository) Add(_ context.Context, notification *entity.Notification) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.notifications = append(repo.notifications, notification.Clone())

	return nil
}

func (repo *notificationRepository) GetByID(_ context.Context, id string) (*entity.Notification, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, n := range repo.notifications {
		if n.ID == id {
			return n.Clone(), nil
		}
	}

	return nil, repository.ErrNotificationNotFound
}

func (repo *notificationRepository) ListByUser(_ context.Context, userID string) ([]*entity.Notification, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	result := make([]*entity.Notification, 0)
	for _, n := range repo.notifications {
		if n.UserID == userID {
			result = append(result, n.Clone())
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, n := range repo.notifications {
		if n.ID == id {
			n.Read = true

			return nil
		}
	}

	return repository.ErrNotificationNotFound
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, userID string) (int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	changed := 0
	for _, n := range repo.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			changed++
		}
	}

	return changed, nil
}

func (repo *notificationRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for i, n := range repo.notifications {
		if n.ID == id {
			repo.notifications = append(repo.notifications[:i], repo.notifications[i+1:]...)

			return nil
		}
	}

	return repository.ErrNotificationNotFound
}

func (repo *notificationRepository) CountUnread(_ context.Context, userID string) (int, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	count := 0
	for _, n := range repo.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}

	return count, nil
}
