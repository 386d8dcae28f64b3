package impl

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// claimed creates a regular donation and claims it for ngo1.
func (fx *lifecycleFixtures) claimed(t *testing.T) *entity.Collection {
	t.Helper()

	ctx := context.Background()
	donation, err := fx.donations.CreateDonation(ctx, donorActor, regularDraft())
	require.NoError(t, err)

	collection, err := fx.donations.ClaimDonation(ctx, ngoActor, donation.Info().ID, time.Date(2024, 6, 2, 15, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)

	return collection
}

func (fx *lifecycleFixtures) donationStatus(t *testing.T, donationID string) entity.DonationStatus {
	t.Helper()

	donation, err := fx.donations.GetDonation(context.Background(), donationID)
	require.NoError(t, err)

	return donation.Info().Status
}

func pickupPayload(t *testing.T, c *entity.Collection) string {
	t.Helper()

	data, err := json.Marshal(service.PickupCode{CollectionID: c.ID, DonationID: c.DonationID, Type: "pickup"})
	require.NoError(t, err)

	return string(data)
}

func TestCollectionService_HappyPath(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)

	assigned, err := fx.collections.AssignDriver(ctx, driverActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionAssigned, assigned.Status)
	assert.Equal(t, "d1", assigned.DriverID)
	assert.Equal(t, "Jane", assigned.DriverName)

	_, err = fx.collections.AssignDriver(ctx, entity.Actor{UserID: "d2", Name: "Sam", Role: entity.RoleDriver}, collection.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidTransition))

	available, err := fx.collections.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	inTransit, err := fx.collections.StartTransit(ctx, driverActor, collection.ID, pickupPayload(t, collection))
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionInTransit, inTransit.Status)
	assert.Equal(t, entity.DonationCollected, fx.donationStatus(t, collection.DonationID))

	completed, err := fx.collections.CompleteCollection(ctx, driverActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, entity.DonationDelivered, fx.donationStatus(t, collection.DonationID))

	again, err := fx.collections.CompleteCollection(ctx, ngoActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, *completed.CompletedAt, *again.CompletedAt)
	assert.Equal(t, completed.Version, again.Version)

	ngoTypes := make([]entity.NotificationType, 0)
	for _, n := range fx.inbox(t, "ngo1") {
		ngoTypes = append(ngoTypes, n.Type)
	}
	assert.ElementsMatch(t, []entity.NotificationType{
		entity.NotificationDriverAssigned,
		entity.NotificationRouteChange,
		entity.NotificationDeliveryConfirmation,
	}, ngoTypes)
}

func TestCollectionService_StartTransit(t *testing.T) {
	t.Run("wrong pickup code", func(t *testing.T) {
		fx := createLifecycleFixtures(t)
		ctx := context.Background()
		collection := fx.claimed(t)
		_, err := fx.collections.AssignDriver(ctx, driverActor, collection.ID)
		require.NoError(t, err)

		other := *collection
		other.ID = "col_other"
		_, err = fx.collections.StartTransit(ctx, driverActor, collection.ID, pickupPayload(t, &other))
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidPickupCode))

		_, err = fx.collections.StartTransit(ctx, driverActor, collection.ID, "not json")
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidPickupCode))

		assert.Equal(t, entity.DonationAssigned, fx.donationStatus(t, collection.DonationID))
	})

	t.Run("only the bound driver", func(t *testing.T) {
		fx := createLifecycleFixtures(t)
		ctx := context.Background()
		collection := fx.claimed(t)
		_, err := fx.collections.AssignDriver(ctx, driverActor, collection.ID)
		require.NoError(t, err)

		_, err = fx.collections.StartTransit(ctx, entity.Actor{UserID: "d2", Role: entity.RoleDriver}, collection.ID, "")
		assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
	})

	t.Run("requires an assigned driver", func(t *testing.T) {
		fx := createLifecycleFixtures(t)
		collection := fx.claimed(t)

		_, err := fx.collections.StartTransit(context.Background(), driverActor, collection.ID, "")
		assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
	})
}

func TestCollectionService_CancelCollection(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)
	_, err := fx.collections.AssignDriver(ctx, driverActor, collection.ID)
	require.NoError(t, err)

	_, err = fx.collections.CancelCollection(ctx, otherNGO, collection.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	cancelled, err := fx.collections.CancelCollection(ctx, ngoActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	donation, err := fx.donations.GetDonation(ctx, collection.DonationID)
	require.NoError(t, err)
	regular, ok := entity.AsRegular(donation)
	require.True(t, ok)
	assert.Equal(t, entity.DonationPending, regular.Status)
	assert.Empty(t, regular.AssignedTo)

	driverInbox := fx.inbox(t, "d1")
	require.Len(t, driverInbox, 1)
	assert.Equal(t, "Collection Cancelled", driverInbox[0].Title)

	_, err = fx.collections.CompleteCollection(ctx, ngoActor, collection.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidTransition))

	reclaimed, err := fx.donations.ClaimDonation(ctx, otherNGO, collection.DonationID, time.Now(), "")
	require.NoError(t, err)
	assert.NotEqual(t, collection.ID, reclaimed.ID)
}

func TestCollectionService_CompleteFromAnyOpenStatus(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)

	completed, err := fx.collections.CompleteCollection(ctx, ngoActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionCompleted, completed.Status)
	assert.Equal(t, entity.DonationDelivered, fx.donationStatus(t, collection.DonationID))
}

func TestCollectionService_CompleteCancelledIsRejected(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)
	_, err := fx.collections.CancelCollection(ctx, ngoActor, collection.ID)
	require.NoError(t, err)

	_, err = fx.collections.CompleteCollection(ctx, adminActor, collection.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidTransition), "got %v", err)

	got, err := fx.collections.GetCollection(ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CollectionCancelled, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, entity.DonationPending, fx.donationStatus(t, collection.DonationID))
}

func TestCollectionService_CancelInTransitFails(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)
	_, err := fx.collections.AssignDriver(ctx, driverActor, collection.ID)
	require.NoError(t, err)
	_, err = fx.collections.StartTransit(ctx, driverActor, collection.ID, "")
	require.NoError(t, err)

	_, err = fx.collections.CancelCollection(ctx, ngoActor, collection.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidTransition))
}

func TestCollectionService_ListCollections(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)
	_, err := fx.collections.AssignDriver(ctx, driverActor, collection.ID)
	require.NoError(t, err)

	for _, tt := range []struct {
		actor entity.Actor
		want  int
	}{
		{ngoActor, 1},
		{otherNGO, 0},
		{driverActor, 1},
		{donorActor, 1},
		{adminActor, 1},
	} {
		got, err := fx.collections.ListCollections(ctx, tt.actor)
		require.NoError(t, err, tt.actor.UserID)
		assert.Len(t, got, tt.want, tt.actor.UserID)
	}

	_, err = fx.collections.ListCollections(ctx, plantActor)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrRoleNotAllowed))
}

func TestCollectionService_PickupQR(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)

	png, err := fx.collections.PickupQR(ctx, ngoActor, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = fx.collections.PickupQR(ctx, otherNGO, collection.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))
}

func TestCollectionService_VerifyFresh(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)
	_, err := fx.collections.AssignDriver(ctx, driverActor, collection.ID)
	require.NoError(t, err)

	fx.assessor.On("Assess", mock.Anything, mock.Anything, "image/png", "cooked").
		Return(&entity.Assessment{Condition: entity.FreshnessFresh, Confidence: 0.82, Label: "edible", Source: "model"}, nil).Once()

	result, err := fx.collections.VerifyCollection(ctx, driverActor, collection.ID, &usecase.Photo{Data: pngPhoto(t), Filename: "pickup.png"})
	require.NoError(t, err)

	assert.False(t, result.Redirected)
	assert.Nil(t, result.Waste)
	assert.Equal(t, entity.CollectionAssigned, result.Collection.Status)
	assert.Equal(t, entity.FreshnessFresh, result.Collection.VerificationResult)
	assert.InDelta(t, 0.82, result.Collection.VerificationConfidence, 1e-9)
	assert.Equal(t, result.Image.ID, result.Collection.VerificationPhotoID)
	require.NotNil(t, result.Image.Metadata.MLAssessment)
	assert.Equal(t, entity.ImageVerification, result.Image.Type)
	assert.Equal(t, collection.ID, result.Image.AssociatedID)

	assert.Equal(t, entity.DonationAssigned, fx.donationStatus(t, collection.DonationID))

	var foodCondition []*entity.Notification
	for _, n := range fx.inbox(t, "ngo1") {
		if n.Type == entity.NotificationFoodCondition {
			foodCondition = append(foodCondition, n)
		}
	}
	require.Len(t, foodCondition, 1)
	assert.Contains(t, foodCondition[0].Message, "edible")
	fx.assessor.AssertExpectations(t)
}

func TestCollectionService_VerifySpoiledRedirectsToBiogas(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	fx.addUser(t, "bp1", "Acme", entity.RoleBiogas, entity.UserVerified)
	collection := fx.claimed(t)
	_, err := fx.collections.AssignDriver(ctx, driverActor, collection.ID)
	require.NoError(t, err)

	fx.assessor.On("Assess", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&entity.Assessment{Condition: entity.FreshnessSpoiled, Confidence: 0.9, Label: "inedible"}, nil).Once()

	result, err := fx.collections.VerifyCollection(ctx, driverActor, collection.ID, &usecase.Photo{Data: pngPhoto(t)})
	require.NoError(t, err)

	assert.True(t, result.Redirected)
	assert.Equal(t, entity.CollectionCancelled, result.Collection.Status)
	assert.True(t, result.Collection.Redirected)
	require.NotNil(t, result.Waste)
	assert.Equal(t, collection.ID, result.Waste.RedirectedFrom)

	stored, err := fx.donations.GetDonation(ctx, collection.DonationID)
	require.NoError(t, err)
	waste, ok := entity.AsWaste(stored)
	require.True(t, ok, "donation should now be a waste donation")
	assert.Equal(t, entity.DonationAwaitingBiogasApproval, waste.Status)
	assert.Equal(t, entity.WasteInedible, waste.WasteCondition)
	assert.Equal(t, collection.ID, waste.RedirectedFrom)
	assert.Equal(t, collection.DonationID, waste.ID)

	assert.NotEmpty(t, fx.inbox(t, "ngo1"))
	plantInbox := fx.inbox(t, "bp1")
	require.Len(t, plantInbox, 1)
	assert.Equal(t, entity.NotificationPickupRequest, plantInbox[0].Type)

	driverInbox := fx.inbox(t, "d1")
	require.Len(t, driverInbox, 1)
	assert.Equal(t, entity.NotificationRouteChange, driverInbox[0].Type)
	assert.Contains(t, driverInbox[0].Message, "a biogas plant")

	approved, err := fx.donations.ApproveByBiogasPlant(ctx, plantActor, collection.DonationID)
	require.NoError(t, err)
	assert.Equal(t, entity.DonationBiogasApproved, approved.Status)

	_, err = fx.collections.VerifyCollection(ctx, driverActor, collection.ID, &usecase.Photo{Data: pngPhoto(t)})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidTransition))
}

func TestCollectionService_VerifyRejects(t *testing.T) {
	fx := createLifecycleFixtures(t)
	ctx := context.Background()
	collection := fx.claimed(t)

	_, err := fx.collections.VerifyCollection(ctx, ngoActor, collection.ID, nil)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidationFailed))

	_, err = fx.collections.VerifyCollection(ctx, otherNGO, collection.ID, &usecase.Photo{Data: pngPhoto(t)})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden))

	_, err = fx.collections.VerifyCollection(ctx, ngoActor, collection.ID, &usecase.Photo{Data: []byte("not an image")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidImage))

	fx.assessor.AssertNotCalled(t, "Assess", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
