package memory

import (
	"context"
	"testing"
	"time"

	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"n1", "n2", "n3"} {
		require.NoError(t, repo.Add(ctx, &entity.Notification{ID: id, UserID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, repo.Add(ctx, &entity.Notification{ID: "other", UserID: "u2", CreatedAt: base}))

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"n3", "n2", "n1"}, []string{list[0].ID, list[1].ID, list[2].ID})

	require.NoError(t, repo.MarkRead(ctx, "n2"))
	unread, err := repo.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	changed, err := repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	require.NoError(t, repo.Delete(ctx, "n1"))
	assert.ErrorIs(t, repo.Delete(ctx, "n1"), repository.ErrNotificationNotFound)
	assert.ErrorIs(t, repo.MarkRead(ctx, "missing"), repository.ErrNotificationNotFound)

	other, err := repo.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
	assert.False(t, other[0].Read)
}

func TestNotificationRepository_InstancesAreIndependent(t *testing.T) {
	ctx := context.Background()
	a := NewNotificationRepository()
	b := NewNotificationRepository()

	require.NoError(t, a.Add(ctx, &entity.Notification{ID: "n1", UserID: "u1"}))

	list, err := b.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
