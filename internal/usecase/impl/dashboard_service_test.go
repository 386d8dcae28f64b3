package impl

import (
	"context"
	"testing"
	"time"

	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboard(fx *lifecycleFixtures) usecase.DashboardUsecase {
	return NewDashboardService(
		fx.repos.NewDonationRepository(),
		fx.repos.NewCollectionRepository(),
		fx.repos.NewUserRepository(),
	)
}

func TestDashboardService_RoleViews(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	dashboards := newDashboard(fx)
	fx.addUser(t, "ngo1", "Food Rescue", entity.RoleNGO, entity.UserVerified)
	fx.addUser(t, "d1", "Jane", entity.RoleDriver, entity.UserPending)

	claimed, err := fx.donations.CreateDonation(ctx, donorActor, regularDraft())
	require.NoError(t, err)
	_, err = fx.donations.CreateDonation(ctx, donorActor, regularDraft())
	require.NoError(t, err)
	waste, err := fx.donations.CreateDonation(ctx, donorActor, wasteDraft())
	require.NoError(t, err)

	collection, err := fx.donations.ClaimDonation(ctx, ngoActor, claimed.Info().ID, time.Now(), "")
	require.NoError(t, err)
	_, err = fx.donations.ApproveByBiogasPlant(ctx, plantActor, waste.Info().ID)
	require.NoError(t, err)

	donor, err := dashboards.DonorDashboard(ctx, donorActor)
	require.NoError(t, err)
	assert.Equal(t, 3, donor.Total)
	assert.Equal(t, 1, donor.Pending)

	ngo, err := dashboards.NGODashboard(ctx, ngoActor)
	require.NoError(t, err)
	assert.Equal(t, 1, ngo.Total)
	assert.Equal(t, 1, ngo.Pending)
	assert.Len(t, ngo.AvailableDonations, 1)

	driver, err := dashboards.DriverDashboard(ctx, driverActor)
	require.NoError(t, err)
	assert.Empty(t, driver.AssignedCollections)
	assert.Len(t, driver.AvailableCollections, 1)
	require.Len(t, driver.WastePickups, 1)
	assert.Equal(t, waste.Info().ID, driver.WastePickups[0].ID)

	_, err = fx.collections.AssignDriver(ctx, driverActor, collection.ID)
	require.NoError(t, err)
	_, err = fx.donations.AcceptByDriver(ctx, driverActor, waste.Info().ID)
	require.NoError(t, err)

	driver, err = dashboards.DriverDashboard(ctx, driverActor)
	require.NoError(t, err)
	assert.Equal(t, 1, driver.Total)
	assert.Equal(t, 1, driver.Pending)
	assert.Empty(t, driver.AvailableCollections)
	require.Len(t, driver.WastePickups, 1)
	assert.Equal(t, entity.DonationDriverAccepted, driver.WastePickups[0].Status)

	plant, err := dashboards.BiogasDashboard(ctx, plantActor)
	require.NoError(t, err)
	assert.Empty(t, plant.IncomingWaste)
	assert.Len(t, plant.Approved, 1)
	assert.Zero(t, plant.Delivered)

	_, err = dashboards.BiogasDashboard(ctx, donorActor)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrRoleNotAllowed))
}

func TestDashboardService_Admin(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	dashboards := newDashboard(fx)
	fx.addUser(t, "ngo1", "Food Rescue", entity.RoleNGO, entity.UserVerified)
	fx.addUser(t, "d1", "Jane", entity.RoleDriver, entity.UserPending)
	fx.addUser(t, "donor1", "Dana", entity.RoleDonor, entity.UserPending)

	regular, err := fx.donations.CreateDonation(ctx, donorActor, regularDraft())
	require.NoError(t, err)
	_, err = fx.donations.CreateDonation(ctx, donorActor, wasteDraft())
	require.NoError(t, err)
	collection, err := fx.donations.ClaimDonation(ctx, ngoActor, regular.Info().ID, time.Now(), "")
	require.NoError(t, err)

	_, err = dashboards.AdminStats(ctx, ngoActor)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrRoleNotAllowed))

	stats, err := dashboards.AdminStats(ctx, adminActor)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 2, stats.PendingVerifications)
	assert.Equal(t, 1, stats.UsersByRole[entity.RoleNGO])
	assert.Equal(t, 2, stats.TotalDonations)
	assert.Equal(t, 1, stats.DonationsByStatus[entity.DonationAssigned])
	assert.Equal(t, 1, stats.DonationsByStatus[entity.DonationAwaitingBiogasApproval])
	assert.Equal(t, 1, stats.TotalCollections)
	assert.Zero(t, stats.CompletedCollections)

	enriched, err := dashboards.AdminCollections(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, collection.ID, enriched[0].ID)
	assert.Equal(t, "Vegetable soup", enriched[0].FoodName)
	assert.Equal(t, "Dana", enriched[0].DonorName)
	assert.Equal(t, "12 Market Street", enriched[0].Address)
	assert.Equal(t, string(entity.FoodFresh), enriched[0].Condition)
}
