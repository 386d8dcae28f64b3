package impl

import (
	"context"
	"testing"

	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/infra/persistence/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNotificationFixture(t *testing.T) (*notificationService, *mockPublisher) {
	t.Helper()

	publisher := &mockPublisher{}
	clock := &testClock{}
	srv := NewNotificationService(NotificationServiceParams{
		NotificationRepo: memory.NewNotificationRepository(),
		Publisher:        publisher,
		Clock:            clock.Now,
		Logger:           discardLogger(),
	}).(*notificationService)

	return srv, publisher
}

func TestNotificationService_AddNotificationPublishesEvent(t *testing.T) {
	srv, publisher := newNotificationFixture(t)
	ctx := deliverycontext.WithRequestID(context.Background(), "req-42")

	var published *service.NotificationEvent
	publisher.On("PublishNotificationEvent", mock.Anything, mock.AnythingOfType("*service.NotificationEvent")).
		Run(func(args mock.Arguments) {
			published = args.Get(1).(*service.NotificationEvent)
		}).
		Return(nil).Once()

	notification, err := srv.AddNotification(ctx, "ngo1", entity.NotificationDonationClaimed, "Donation Claimed", "claimed",
		map[string]any{"donationId": "don_1", "isRedirected": true})
	require.NoError(t, err)
	assert.False(t, notification.Read)

	require.NotNil(t, published)
	assert.Equal(t, "req-42", published.RequestID)
	assert.Equal(t, notification.ID, published.NotificationID)
	assert.Equal(t, "ngo1", published.UserID)
	assert.Equal(t, "donation_claimed", published.Type)
	assert.Equal(t, map[string]string{"donationId": "don_1", "isRedirected": "true"}, published.Data)
	publisher.AssertExpectations(t)
}

func TestNotificationService_PublishFailureIsNotFatal(t *testing.T) {
	srv, publisher := newNotificationFixture(t)
	publisher.On("PublishNotificationEvent", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	_, err := srv.AddNotification(context.Background(), "ngo1", entity.NotificationRouteChange, "t", "m", nil)
	require.NoError(t, err)

	count, err := srv.UnreadCount(context.Background(), "ngo1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotificationService_RequiresRecipient(t *testing.T) {
	srv, _ := newNotificationFixture(t)

	_, err := srv.AddNotification(context.Background(), "", entity.NotificationRouteChange, "t", "m", nil)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidationFailed))
}

func TestNotificationService_ReadAndDelete(t *testing.T) {
	srv, publisher := newNotificationFixture(t)
	publisher.On("PublishNotificationEvent", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	first, err := srv.AddNotification(ctx, "ngo1", entity.NotificationRouteChange, "one", "m", nil)
	require.NoError(t, err)
	_, err = srv.AddNotification(ctx, "ngo1", entity.NotificationRouteChange, "two", "m", nil)
	require.NoError(t, err)
	_, err = srv.AddNotification(ctx, "ngo2", entity.NotificationRouteChange, "three", "m", nil)
	require.NoError(t, err)

	err = srv.MarkAsRead(ctx, otherNGO, first.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotificationNotFound))

	require.NoError(t, srv.MarkAsRead(ctx, ngoActor, first.ID))
	count, err := srv.UnreadCount(ctx, "ngo1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	changed, err := srv.MarkAllAsRead(ctx, "ngo1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	err = srv.DeleteNotification(ctx, otherNGO, first.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotificationNotFound))
	require.NoError(t, srv.DeleteNotification(ctx, ngoActor, first.ID))

	remaining, err := srv.GetUserNotifications(ctx, "ngo1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "two", remaining[0].Title)

	err = srv.DeleteNotification(ctx, ngoActor, first.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotificationNotFound))
}

func TestNotificationService_LifecycleMessages(t *testing.T) {
	srv, publisher := newNotificationFixture(t)
	publisher.On("PublishNotificationEvent", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		send      func() error
		userID    string
		wantType  entity.NotificationType
		wantTitle string
		contains  string
	}{
		{
			name:      "ngo edible",
			send:      func() error { return srv.NotifyNGO(ctx, "u1", "don_abcdef123456", "edible", false) },
			userID:    "u1",
			wantType:  entity.NotificationFoodCondition,
			wantTitle: "Food Condition Verified",
			contains:  "verified as edible",
		},
		{
			name:      "ngo inedible",
			send:      func() error { return srv.NotifyNGO(ctx, "u2", "don_abcdef123456", "expired", false) },
			userID:    "u2",
			wantType:  entity.NotificationFoodCondition,
			wantTitle: "Food Condition Alert",
			contains:  "expired condition",
		},
		{
			name:      "ngo redirected",
			send:      func() error { return srv.NotifyNGO(ctx, "u3", "don_abcdef123456", "inedible", true) },
			userID:    "u3",
			wantType:  entity.NotificationFoodCondition,
			wantTitle: "Donation Redirected",
			contains:  "redirected to a biogas plant",
		},
		{
			name:      "biogas plant",
			send:      func() error { return srv.NotifyBiogasPlant(ctx, "u4", "don_abcdef123456", "inedible") },
			userID:    "u4",
			wantType:  entity.NotificationPickupRequest,
			wantTitle: "New Waste Donation",
			contains:  "inedible food donation",
		},
		{
			name:      "driver to ngo",
			send:      func() error { return srv.NotifyDriver(ctx, "u5", "don_abcdef123456", "ngo") },
			userID:    "u5",
			wantType:  entity.NotificationRouteChange,
			wantTitle: "Destination Updated",
			contains:  "updated to an NGO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.send())

			inbox, err := srv.GetUserNotifications(ctx, tt.userID)
			require.NoError(t, err)
			require.Len(t, inbox, 1)
			assert.Equal(t, tt.wantType, inbox[0].Type)
			assert.Equal(t, tt.wantTitle, inbox[0].Title)
			assert.Contains(t, inbox[0].Message, tt.contains)
		})
	}
}
