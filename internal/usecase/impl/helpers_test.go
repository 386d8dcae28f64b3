package impl

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"foodbridge/config"
	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/infra/imagestore"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/infra/persistence/kv"
	"foodbridge/internal/infra/persistence/memory"
	"foodbridge/internal/infra/qrcode"
	"foodbridge/internal/usecase"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishNotificationEvent(ctx context.Context, event *service.NotificationEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

type mockAssessor struct {
	mock.Mock
}

func (m *mockAssessor) Assess(ctx context.Context, data []byte, mimeType, foodType string) (*entity.Assessment, error) {
	args := m.Called(ctx, data, mimeType, foodType)
	assessment, _ := args.Get(0).(*entity.Assessment)

	return assessment, args.Error(1)
}

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*entity.GeocodeResult, error) {
	args := m.Called(ctx, address)
	result, _ := args.Get(0).(*entity.GeocodeResult)

	return result, args.Error(1)
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, point entity.Coordinates) (*entity.GeocodeResult, error) {
	args := m.Called(ctx, point)
	result, _ := args.Get(0).(*entity.GeocodeResult)

	return result, args.Error(1)
}

// testClock hands out strictly increasing times.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)

	return c.now
}

// lifecycleFixtures wires the lifecycle services over an in-memory store.
type lifecycleFixtures struct {
	clock            *testClock
	repos            repository.RepositoryFactory
	notificationRepo repository.NotificationRepository
	publisher        *mockPublisher
	assessor         *mockAssessor
	geocoder         *mockGeocoder

	notifications usecase.NotificationUsecase
	donations     usecase.DonationUsecase
	collections   usecase.CollectionUsecase
	images        usecase.ImageUsecase
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func createLifecycleFixtures(t *testing.T) *lifecycleFixtures {
	t.Helper()

	logger := discardLogger()
	clock := &testClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}

	store := kvstore.New(kvstore.NewMemoryBackend(0), kvstore.Options{
		Retention: map[string]kvstore.Retention{
			constants.KeyCollections: {MaxRecords: 20},
			constants.KeyImages:      {MaxRecords: 30, EvictTo: 15, QuotaEvictTo: 10},
		},
	}, logger)
	repos := kv.NewRepositoryFactory(store, clock.Now)
	txManager := kv.NewTransactionManager(store, clock.Now)

	bucket, err := imagestore.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })

	publisher := &mockPublisher{}
	publisher.On("PublishNotificationEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	assessor := &mockAssessor{}
	geocoder := &mockGeocoder{}

	fx := &lifecycleFixtures{
		clock:            clock,
		repos:            repos,
		notificationRepo: memory.NewNotificationRepository(),
		publisher:        publisher,
		assessor:         assessor,
		geocoder:         geocoder,
	}

	fx.notifications = NewNotificationService(NotificationServiceParams{
		NotificationRepo: fx.notificationRepo,
		Publisher:        publisher,
		Clock:            clock.Now,
		Logger:           logger,
	})
	fx.images = NewImageService(ImageServiceParams{
		ImageRepo: repos.NewImageRepository(),
		Blobs:     bucket,
		Processor: imagestore.NewProcessor(&config.Config{}),
		Assessor:  assessor,
		Clock:     clock.Now,
		Logger:    logger,
	})
	fx.donations = NewDonationService(DonationServiceParams{
		TxManager:     txManager,
		DonationRepo:  repos.NewDonationRepository(),
		UserRepo:      repos.NewUserRepository(),
		Notifications: fx.notifications,
		Geocoder:      geocoder,
		Clock:         clock.Now,
		Logger:        logger,
	})
	fx.collections = NewCollectionService(CollectionServiceParams{
		TxManager:      txManager,
		CollectionRepo: repos.NewCollectionRepository(),
		DonationRepo:   repos.NewDonationRepository(),
		UserRepo:       repos.NewUserRepository(),
		Images:         fx.images,
		QRCodes:        qrcode.NewQRCodeService(128, "medium"),
		Notifications:  fx.notifications,
		Clock:          clock.Now,
		Logger:         logger,
	})

	return fx
}

func (fx *lifecycleFixtures) addUser(t *testing.T, id, name string, role entity.Role, status entity.UserStatus) *entity.User {
	t.Helper()

	user := &entity.User{
		ID:     id,
		Name:   name,
		Email:  id + "@example.org",
		Role:   role,
		Status: status,
	}
	require.NoError(t, fx.repos.NewUserRepository().Add(context.Background(), user))

	return user
}

func (fx *lifecycleFixtures) inbox(t *testing.T, userID string) []*entity.Notification {
	t.Helper()

	notifications, err := fx.notifications.GetUserNotifications(context.Background(), userID)
	require.NoError(t, err)

	return notifications
}

func coords(lat, lng float64) (*float64, *float64) {
	return &lat, &lng
}

func regularDraft() *entity.DonationDraft {
	lat, lng := coords(40.7128, -74.006)

	return &entity.DonationDraft{
		Kind:      entity.KindRegular,
		FoodName:  "Vegetable soup",
		FoodType:  "cooked",
		Quantity:  "20 portions",
		Condition: entity.FoodFresh,
		Address:   "12 Market Street",
		Latitude:  lat,
		Longitude: lng,
	}
}

func wasteDraft() *entity.DonationDraft {
	lat, lng := coords(40.73, -73.99)

	return &entity.DonationDraft{
		Kind:           entity.KindWaste,
		FoodName:       "Bread ends",
		FoodType:       "bakery",
		Quantity:       "5 kg",
		WasteCondition: entity.WasteInedible,
		Address:        "99 Baker Avenue",
		Latitude:       lat,
		Longitude:      lng,
	}
}

func pngPhoto(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := range 64 {
		for y := range 48 {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y * 4), B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

var (
	donorActor  = entity.Actor{UserID: "donor1", Name: "Dana", Role: entity.RoleDonor}
	ngoActor    = entity.Actor{UserID: "ngo1", Name: "Food Rescue", Role: entity.RoleNGO}
	otherNGO    = entity.Actor{UserID: "ngo2", Name: "Shelter Kitchen", Role: entity.RoleNGO}
	driverActor = entity.Actor{UserID: "d1", Name: "Jane", Role: entity.RoleDriver}
	plantActor  = entity.Actor{UserID: "bp1", Name: "Acme Biogas", Role: entity.RoleBiogas}
	adminActor  = entity.Actor{UserID: "admin1", Name: "Admin", Role: entity.RoleAdmin}
)
