package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/infra/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(time.Second)

	return c.now
}

func newTestStore() *kvstore.Store {
	return kvstore.New(kvstore.NewMemoryBackend(0), kvstore.Options{
		Retention: map[string]kvstore.Retention{
			constants.KeyCollections: {MaxRecords: 20},
			constants.KeyImages:      {MaxRecords: 30, EvictTo: 15, QuotaEvictTo: 10},
		},
	}, nil)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func TestDonationRepository_PersistsBothVariants(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	repo := NewDonationRepository(store, newClock().Now)

	regular := &entity.RegularDonation{DonationInfo: entity.DonationInfo{FoodName: "Rice", DonorID: "d1", Status: entity.DonationPending}}
	waste := &entity.WasteDonation{
		DonationInfo:   entity.DonationInfo{FoodName: "Peels", DonorID: "d1", Status: entity.DonationAwaitingBiogasApproval},
		WasteCondition: entity.WasteInedible,
	}
	require.NoError(t, repo.Add(ctx, regular))
	require.NoError(t, repo.Add(ctx, waste))

	assert.Regexp(t, `^don_\d+_[0-9a-z]{6}$`, regular.ID)
	assert.Equal(t, int64(1), regular.Version)

	got, err := repo.GetByID(ctx, waste.ID)
	require.NoError(t, err)
	gotWaste, ok := entity.AsWaste(got)
	require.True(t, ok)
	assert.Equal(t, entity.WasteInedible, gotWaste.WasteCondition)
	assert.Equal(t, "Peels", gotWaste.FoodName)

	raw, ok, err := store.Load(ctx, constants.KeyDonations)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"donationType":"regular"`)
	assert.Contains(t, string(raw), `"donationType":"waste"`)

	byDonor, err := repo.GetByDonor(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, byDonor, 2)

	available, err := repo.GetAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, regular.ID, available[0].ID)

	awaiting, err := repo.GetWasteAwaitingApproval(ctx)
	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Equal(t, waste.ID, awaiting[0].ID)
}

func TestDonationRepository_LegacyRecordWithoutDiscriminator(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	require.NoError(t, store.Save(ctx, constants.KeyDonations,
		[]byte(`[{"id":"don1","foodName":"Soup","status":"pending","createdAt":"2024-01-01T00:00:00Z"}]`)))

	repo := NewDonationRepository(store, nil)
	got, err := repo.GetByID(ctx, "don1")
	require.NoError(t, err)

	_, ok := entity.AsRegular(got)
	assert.True(t, ok)
	assert.Equal(t, "Soup", got.Info().FoodName)
}

func TestDonationRepository_UpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewDonationRepository(newTestStore(), newClock().Now)

	d := &entity.RegularDonation{DonationInfo: entity.DonationInfo{FoodName: "Bread", Status: entity.DonationPending}}
	require.NoError(t, repo.Add(ctx, d))

	first, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)

	first.Info().Status = entity.DonationAssigned
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(2), first.Info().Version)

	second.Info().Status = entity.DonationExpired
	err = repo.Update(ctx, second)
	require.ErrorIs(t, err, repository.ErrVersionConflict)

	stored, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DonationAssigned, stored.Info().Status)
}

func TestDonationRepository_GetByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewDonationRepository(newTestStore(), nil)

	d := &entity.RegularDonation{DonationInfo: entity.DonationInfo{FoodName: "Bread"}}
	require.NoError(t, repo.Add(ctx, d))
	d.FoodName = "changed after add"

	got, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread", got.Info().FoodName)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrDonationNotFound)
}

func TestCollectionRepository_RetainsTwentyMostRecent(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	store := newTestStore()
	repo := NewCollectionRepository(store, clock.Now)

	var ids []string
	for i := 1; i <= 25; i++ {
		c := &entity.Collection{DonationID: fmt.Sprintf("don_%d", i), NGOID: "ngo1", Status: entity.CollectionRequested}
		require.NoError(t, repo.Add(ctx, c))
		ids = append(ids, c.ID)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		if i <= 20 {
			assert.Len(t, all, i)
			continue
		}

		require.Len(t, all, 20, "after insert %d", i)
		assert.Equal(t, ids[i-1], all[0].ID, "newest first")
		assert.Equal(t, ids[i-20], all[19].ID, "oldest kept")
	}
}

func TestCollectionRepository_Filters(t *testing.T) {
	ctx := context.Background()
	repo := NewCollectionRepository(newTestStore(), newClock().Now)

	requested := &entity.Collection{DonationID: "don_a", NGOID: "ngo1", Status: entity.CollectionRequested}
	assigned := &entity.Collection{DonationID: "don_b", NGOID: "ngo1", DriverID: "drv1", Status: entity.CollectionAssigned}
	transit := &entity.Collection{DonationID: "don_c", NGOID: "ngo2", DriverID: "drv1", Status: entity.CollectionInTransit}
	cancelled := &entity.Collection{DonationID: "don_a", NGOID: "ngo2", Status: entity.CollectionCancelled}
	for _, c := range []*entity.Collection{cancelled, requested, assigned, transit} {
		require.NoError(t, repo.Add(ctx, c))
	}

	available, err := repo.GetAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, requested.ID, available[0].ID)

	forDriver, err := repo.GetAssignedToDriver(ctx, "drv1")
	require.NoError(t, err)
	assert.Len(t, forDriver, 2)

	byNGO, err := repo.GetByNGO(ctx, "ngo1")
	require.NoError(t, err)
	assert.Len(t, byNGO, 2)

	active, err := repo.GetActiveByDonation(ctx, "don_a")
	require.NoError(t, err)
	assert.Equal(t, requested.ID, active.ID)

	byDonation, err := repo.GetByDonation(ctx, "don_a")
	require.NoError(t, err)
	assert.Len(t, byDonation, 2)

	_, err = repo.GetActiveByDonation(ctx, "don_zzz")
	assert.ErrorIs(t, err, repository.ErrCollectionNotFound)
}

func TestUserRepository_EmailUniqueAndCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestStore(), nil)

	u := &entity.User{Name: "Ann", Email: "Ann@Example.com", Role: entity.RoleDonor, Status: entity.UserPending}
	require.NoError(t, repo.Add(ctx, u))
	assert.Equal(t, "ann@example.com", u.Email)

	err := repo.Add(ctx, &entity.User{Name: "Other", Email: "ANN@example.com"})
	require.ErrorIs(t, err, repository.ErrDuplicateEmail)

	found, err := repo.GetByEmail(ctx, " ann@EXAMPLE.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	pending, err := repo.GetPendingVerification(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestImageRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewImageRepository(newTestStore(), newClock().Now)

	img := &entity.ImageRecord{Type: entity.ImageVerification, AssociatedID: "col_1", Metadata: &entity.ImageMetadata{Width: 10}}
	require.NoError(t, repo.Add(ctx, img))
	require.NoError(t, repo.Add(ctx, &entity.ImageRecord{Type: entity.ImageDonation, AssociatedID: "don_1"}))

	byAssoc, err := repo.GetByAssociatedID(ctx, "col_1")
	require.NoError(t, err)
	require.Len(t, byAssoc, 1)

	img.Metadata.MLAssessment = &entity.MLAssessment{Condition: entity.FreshnessFresh, Confidence: 0.9}
	require.NoError(t, repo.Update(ctx, img))

	got, err := repo.GetByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.FreshnessFresh, got.Metadata.MLAssessment.Condition)

	byType, err := repo.GetByType(ctx, entity.ImageDonation)
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	require.NoError(t, repo.Delete(ctx, img.ID))
	assert.ErrorIs(t, repo.Delete(ctx, img.ID), repository.ErrImageNotFound)
}

func newQuotaStore(quotaBytes int64) *kvstore.Store {
	return kvstore.New(kvstore.NewMemoryBackend(quotaBytes), kvstore.Options{
		Retention: map[string]kvstore.Retention{
			constants.KeyImages: {MaxRecords: 30, EvictTo: 15, QuotaEvictTo: 2},
		},
	}, nil)
}

func TestImageRepository_QuotaEvictsAndRetries(t *testing.T) {
	ctx := context.Background()
	store := newQuotaStore(4000)
	repo := NewImageRepository(store, newClock().Now)

	var last *entity.ImageRecord
	for i := 1; i <= 12; i++ {
		last = &entity.ImageRecord{
			URL:          fmt.Sprintf("blob://%d/%s", i, strings.Repeat("x", 300)),
			Type:         entity.ImageDonation,
			AssociatedID: "don_1",
		}
		require.NoError(t, repo.Add(ctx, last), "insert %d", i)
	}

	all, err := repo.GetByAssociatedID(ctx, "don_1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
	assert.Less(t, len(all), 12)

	ids := make([]string, 0, len(all))
	for _, img := range all {
		ids = append(ids, img.ID)
	}
	assert.Contains(t, ids, last.ID)
}

func TestTransactionManager_QuotaEvictsAndRetries(t *testing.T) {
	ctx := context.Background()
	store := newQuotaStore(4000)
	repo := NewImageRepository(store, newClock().Now)
	for i := 1; i <= 7; i++ {
		require.NoError(t, repo.Add(ctx, &entity.ImageRecord{URL: strings.Repeat("y", 400), Type: entity.ImageDonation}))
	}

	tm := NewTransactionManager(store, nil)
	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		return f.NewImageRepository().Add(ctx, &entity.ImageRecord{ID: "img_new", URL: strings.Repeat("z", 400), Type: entity.ImageDonation})
	})
	require.NoError(t, err)

	all, err := repo.GetByType(ctx, entity.ImageDonation)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "img_new", all[0].ID)
}

func TestImageRepository_OverQuotaAfterEvictionIsNotSaved(t *testing.T) {
	ctx := context.Background()
	repo := NewImageRepository(newQuotaStore(300), newClock().Now)

	err := repo.Add(ctx, &entity.ImageRecord{URL: strings.Repeat("w", 500)})
	require.ErrorIs(t, err, repository.ErrNotSaved)

	all, err := repo.GetByType(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeviceRepository_FindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewDeviceRepository(newTestStore(), nil)

	device := &entity.UserDevice{UserID: "u1", DeviceID: "phone", FCMToken: "t1", IsActive: true}
	require.NoError(t, repo.CreateDevice(ctx, device))

	got, err := repo.FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	got.FCMToken = "changed"

	again, err := repo.FindByClientDeviceID(ctx, "u1", "phone")
	require.NoError(t, err)
	assert.Equal(t, "t1", again.FCMToken)

	_, err = repo.FindDeviceByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrDeviceNotFound)
}

func TestDeviceRepository_DeactivateByTokens(t *testing.T) {
	ctx := context.Background()
	repo := NewDeviceRepository(newTestStore(), nil)

	require.NoError(t, repo.CreateDevice(ctx, &entity.UserDevice{UserID: "u1", DeviceID: "phone", FCMToken: "t1", IsActive: true}))
	require.NoError(t, repo.CreateDevice(ctx, &entity.UserDevice{UserID: "u1", DeviceID: "tablet", FCMToken: "t2", IsActive: true}))
	assert.ErrorIs(t, repo.CreateDevice(ctx, &entity.UserDevice{UserID: "u1", DeviceID: "phone"}), repository.ErrDuplicateDevice)

	changed, err := repo.DeactivateByTokens(ctx, []string{"t1", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	active, err := repo.FindActiveDevicesByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "tablet", active[0].DeviceID)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	tm := NewTransactionManager(store, nil)

	errBoom := errors.New("boom")
	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		if err := f.NewCollectionRepository().Add(ctx, &entity.Collection{DonationID: "don_1"}); err != nil {
			return err
		}

		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	all, err := NewCollectionRepository(store, nil).GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTransactionManager_CommitsAcrossKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	tm := NewTransactionManager(store, nil)

	err := tm.Execute(ctx, func(f repository.RepositoryFactory) error {
		if err := f.NewDonationRepository().Add(ctx, &entity.RegularDonation{DonationInfo: entity.DonationInfo{ID: "don_x"}}); err != nil {
			return err
		}

		return f.NewCollectionRepository().Add(ctx, &entity.Collection{DonationID: "don_x"})
	})
	require.NoError(t, err)

	factory := NewRepositoryFactory(store, nil)
	_, err = factory.NewDonationRepository().GetByID(ctx, "don_x")
	require.NoError(t, err)
	cols, err := factory.NewCollectionRepository().GetByDonation(ctx, "don_x")
	require.NoError(t, err)
	assert.Len(t, cols, 1)
}

func TestSeedSampleDonations(t *testing.T) {
	ctx := context.Background()
	repo := NewDonationRepository(newTestStore(), nil)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	seeded, err := SeedSampleDonations(ctx, repo, now)
	require.NoError(t, err)
	assert.True(t, seeded)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "don1", all[0].Info().ID)
	assert.Equal(t, now.Add(8*time.Hour), *all[0].Info().ExpiryDate)
	assert.InDelta(t, 40.7128, *all[0].Info().Latitude, 1e-9)

	seeded, err = SeedSampleDonations(ctx, repo, now)
	require.NoError(t, err)
	assert.False(t, seeded)
}
