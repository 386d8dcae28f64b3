package impl

import (
	"context"
	"fmt"
	"log/slog"

	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/entity"
	domainerrors "foodbridge/internal/domain/errors"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
	"foodbridge/internal/usecase"
	"foodbridge/internal/util"

	"go.uber.org/fx"
)

// collectionService implements the CollectionUsecase interface.
type collectionService struct {
	txManager      repository.TransactionManager
	collectionRepo repository.CollectionRepository
	donationRepo   repository.DonationRepository
	userRepo       repository.UserRepository
	images         usecase.ImageUsecase
	qrCodes        service.QRCodeService
	notifications  usecase.NotificationUsecase
	now            util.Clock
	logger         *slog.Logger
}

// CollectionServiceParams holds dependencies for CollectionService, injected by Fx.
type CollectionServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	CollectionRepo repository.CollectionRepository
	DonationRepo   repository.DonationRepository
	UserRepo       repository.UserRepository
	Images         usecase.ImageUsecase
	QRCodes        service.QRCodeService
	Notifications  usecase.NotificationUsecase
	Clock          util.Clock
	Logger         *slog.Logger
}

// NewCollectionService is the constructor for collectionService.
func NewCollectionService(params CollectionServiceParams) usecase.CollectionUsecase {
	clock := params.Clock
	if clock == nil {
		clock = util.SystemClock()
	}

	return &collectionService{
		txManager:      params.TxManager,
		collectionRepo: params.CollectionRepo,
		donationRepo:   params.DonationRepo,
		userRepo:       params.UserRepo,
		images:         params.Images,
		qrCodes:        params.QRCodes,
		notifications:  params.Notifications,
		now:            clock,
		logger:         params.Logger,
	}
}

func (srv *collectionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *collectionService) notify(ctx context.Context, userID string, notificationType entity.NotificationType, title, message string, c *entity.Collection) {
	notifyUser(ctx, srv.notifications, srv.log(ctx), userID, notificationType, title, message, map[string]any{
		"donationId":   c.DonationID,
		"collectionId": c.ID,
	})
}

func isBoundDriver(actor entity.Actor, c *entity.Collection) bool {
	return actor.Role == entity.RoleDriver && c.DriverID == actor.UserID
}

func isOwningNGO(actor entity.Actor, c *entity.Collection) bool {
	return actor.Role == entity.RoleNGO && c.NGOID == actor.UserID
}

func (srv *collectionService) GetCollection(ctx context.Context, collectionID string) (*entity.Collection, error) {
	collection, err := srv.collectionRepo.GetByID(ctx, collectionID)
	if err != nil {
		return nil, mapRepoError(err, "find collection")
	}

	return collection, nil
}

func (srv *collectionService) ListCollections(ctx context.Context, actor entity.Actor) ([]*entity.Collection, error) {
	var (
		collections []*entity.Collection
		err         error
	)

	switch actor.Role {
	case entity.RoleNGO:
		collections, err = srv.collectionRepo.GetByNGO(ctx, actor.UserID)
	case entity.RoleDriver:
		collections, err = srv.collectionRepo.GetByDriver(ctx, actor.UserID)
	case entity.RoleAdmin:
		collections, err = srv.collectionRepo.GetAll(ctx)
	case entity.RoleDonor:
		collections, err = srv.collectionsOfDonor(ctx, actor.UserID)
	default:
		return nil, requireRole(actor, entity.RoleNGO, entity.RoleDriver, entity.RoleDonor, entity.RoleAdmin)
	}
	if err != nil {
		return nil, mapRepoError(err, "list collections")
	}

	return collections, nil
}

func (srv *collectionService) collectionsOfDonor(ctx context.Context, donorID string) ([]*entity.Collection, error) {
	donations, err := srv.donationRepo.GetByDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	var collections []*entity.Collection
	for _, donation := range donations {
		found, err := srv.collectionRepo.GetByDonation(ctx, donation.Info().ID)
		if err != nil {
			return nil, err
		}
		collections = append(collections, found...)
	}

	return collections, nil
}

func (srv *collectionService) ListAvailable(ctx context.Context) ([]*entity.Collection, error) {
	collections, err := srv.collectionRepo.GetAvailable(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list available collections")
	}

	return collections, nil
}

// transition loads a collection and its regular donation inside a transaction,
// applies mutate and stores both. mutate reports whether anything changed;
// unchanged records are not written.
func (srv *collectionService) transition(
	ctx context.Context,
	collectionID string,
	mutate func(c *entity.Collection, donation *entity.RegularDonation) (bool, error),
) (*entity.Collection, bool, error) {
	var (
		updated *entity.Collection
		changed bool
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		collectionRepo := repoFactory.NewCollectionRepository()
		donationRepo := repoFactory.NewDonationRepository()

		collection, err := collectionRepo.GetByID(ctx, collectionID)
		if err != nil {
			return err
		}

		var regular *entity.RegularDonation
		donation, err := donationRepo.GetByID(ctx, collection.DonationID)
		switch {
		case err == nil:
			regular, _ = entity.AsRegular(donation)
		case !errors.Is(err, repository.ErrDonationNotFound):
			return err
		}

		var before entity.RegularDonation
		if regular != nil {
			before = *regular
		}

		changed, err = mutate(collection, regular)
		if err != nil {
			return err
		}
		updated = collection
		if !changed {
			return nil
		}

		if err := collectionRepo.Update(ctx, collection); err != nil {
			return err
		}
		if regular != nil && donationMoved(&before, regular) {
			return donationRepo.Update(ctx, regular)
		}

		return nil
	})
	if err != nil {
		return nil, false, mapRepoError(err, "update collection")
	}

	return updated, changed, nil
}

func donationMoved(before, after *entity.RegularDonation) bool {
	return before.Status != after.Status ||
		before.AssignedTo != after.AssignedTo ||
		before.CollectedBy != after.CollectedBy
}

func (srv *collectionService) AssignDriver(ctx context.Context, actor entity.Actor, collectionID string) (*entity.Collection, error) {
	if err := requireRole(actor, entity.RoleDriver, entity.RoleAdmin); err != nil {
		return nil, err
	}

	collection, _, err := srv.transition(ctx, collectionID, func(c *entity.Collection, _ *entity.RegularDonation) (bool, error) {
		if c.Status != entity.CollectionRequested || c.HasDriver() {
			return false, invalidTransition("collection %s is %s", c.ID, c.Status)
		}

		c.Status = entity.CollectionAssigned
		c.DriverID = actor.UserID
		c.DriverName = actor.Name

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Driver assigned", slog.String("collectionID", collectionID), slog.String("driverID", actor.UserID))
	srv.notify(ctx, collection.NGOID, entity.NotificationDriverAssigned, "Driver Assigned",
		fmt.Sprintf("%s will collect donation #%s.", actor.Name, util.ShortID(collection.DonationID)), collection)

	return collection, nil
}

func (srv *collectionService) StartTransit(ctx context.Context, actor entity.Actor, collectionID, pickupCode string) (*entity.Collection, error) {
	if err := requireRole(actor, entity.RoleDriver); err != nil {
		return nil, err
	}

	var scanned *service.PickupCode
	if pickupCode != "" {
		code, err := srv.qrCodes.ParsePickupQR(pickupCode)
		if err != nil {
			return nil, domainerrors.ErrInvalidPickupCode.WithDetails(err.Error())
		}
		scanned = code
	}

	collection, _, err := srv.transition(ctx, collectionID, func(c *entity.Collection, donation *entity.RegularDonation) (bool, error) {
		if !isBoundDriver(actor, c) {
			return false, domainerrors.ErrForbidden.WithDetails("collection is bound to another driver")
		}
		if scanned != nil && (scanned.CollectionID != c.ID || scanned.DonationID != c.DonationID) {
			return false, domainerrors.ErrInvalidPickupCode
		}
		if c.Status != entity.CollectionAssigned {
			return false, invalidTransition("collection %s is %s", c.ID, c.Status)
		}
		if donation == nil || donation.Status != entity.DonationAssigned {
			return false, invalidTransition("donation %s cannot be collected", c.DonationID)
		}

		c.Status = entity.CollectionInTransit
		donation.Status = entity.DonationCollected
		donation.CollectedBy = actor.UserID

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	srv.notify(ctx, collection.NGOID, entity.NotificationRouteChange, "Donation Picked Up",
		fmt.Sprintf("Donation #%s has been picked up and is on its way to you.", util.ShortID(collection.DonationID)), collection)

	return collection, nil
}

func (srv *collectionService) CompleteCollection(ctx context.Context, actor entity.Actor, collectionID string) (*entity.Collection, error) {
	if err := requireRole(actor, entity.RoleDriver, entity.RoleNGO, entity.RoleAdmin); err != nil {
		return nil, err
	}

	collection, changed, err := srv.transition(ctx, collectionID, func(c *entity.Collection, donation *entity.RegularDonation) (bool, error) {
		if !actor.IsAdmin() && !isBoundDriver(actor, c) && !isOwningNGO(actor, c) {
			return false, domainerrors.ErrForbidden.WithDetails("collection belongs to another NGO or driver")
		}

		switch c.Status {
		case entity.CollectionCancelled:
			return false, invalidTransition("collection %s is cancelled", c.ID)
		case entity.CollectionCompleted:
			return false, nil
		}

		completedAt := srv.now()
		c.Status = entity.CollectionCompleted
		if c.CompletedAt == nil {
			c.CompletedAt = &completedAt
		}
		if donation != nil {
			donation.Status = entity.DonationDelivered
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return collection, nil
	}

	srv.log(ctx).Info("Collection completed", slog.String("collectionID", collectionID))

	message := fmt.Sprintf("Donation #%s has been delivered to %s.", util.ShortID(collection.DonationID), collection.NGOName)
	srv.notify(ctx, collection.NGOID, entity.NotificationDeliveryConfirmation, "Delivery Confirmed", message, collection)
	if donation, err := srv.donationRepo.GetByID(ctx, collection.DonationID); err == nil {
		srv.notify(ctx, donation.Info().DonorID, entity.NotificationDeliveryConfirmation, "Delivery Confirmed", message, collection)
	}

	return collection, nil
}

func (srv *collectionService) CancelCollection(ctx context.Context, actor entity.Actor, collectionID string) (*entity.Collection, error) {
	if err := requireRole(actor, entity.RoleNGO, entity.RoleAdmin); err != nil {
		return nil, err
	}

	collection, _, err := srv.transition(ctx, collectionID, func(c *entity.Collection, donation *entity.RegularDonation) (bool, error) {
		if !actor.IsAdmin() && !isOwningNGO(actor, c) {
			return false, domainerrors.ErrForbidden.WithDetails("collection belongs to another NGO")
		}
		if c.Status != entity.CollectionRequested && c.Status != entity.CollectionAssigned {
			return false, invalidTransition("collection %s is %s", c.ID, c.Status)
		}

		cancelledAt := srv.now()
		c.Status = entity.CollectionCancelled
		c.CancelledAt = &cancelledAt
		if donation != nil && donation.Status == entity.DonationAssigned {
			donation.Status = entity.DonationPending
			donation.AssignedTo = ""
			donation.CollectedBy = ""
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if collection.HasDriver() {
		srv.notify(ctx, collection.DriverID, entity.NotificationRouteChange, "Collection Cancelled",
			fmt.Sprintf("The collection of donation #%s has been cancelled.", util.ShortID(collection.DonationID)), collection)
	}

	return collection, nil
}

func (srv *collectionService) PickupQR(ctx context.Context, actor entity.Actor, collectionID string) ([]byte, error) {
	collection, err := srv.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !isBoundDriver(actor, collection) && !isOwningNGO(actor, collection) {
		return nil, domainerrors.ErrForbidden.WithDetails("collection belongs to another NGO or driver")
	}

	png, err := srv.qrCodes.GeneratePickupQR(collection.ID, collection.DonationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate pickup QR code")
	}

	return png, nil
}

// VerifyCollection stores the pickup photo, assesses it and applies the
// verdict. Spoiled food cancels the collection and turns the donation into
// a waste donation awaiting biogas approval, both in one transaction.
func (srv *collectionService) VerifyCollection(
	ctx context.Context,
	actor entity.Actor,
	collectionID string,
	photo *usecase.Photo,
) (*usecase.VerificationResult, error) {
	if err := requireRole(actor, entity.RoleDriver, entity.RoleNGO); err != nil {
		return nil, err
	}
	if photo == nil || len(photo.Data) == 0 {
		return nil, validationFailed("a verification photo is required")
	}

	collection, err := srv.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !isBoundDriver(actor, collection) && !isOwningNGO(actor, collection) {
		return nil, domainerrors.ErrForbidden.WithDetails("collection belongs to another NGO or driver")
	}
	if !verifiable(collection) {
		return nil, invalidTransition("collection %s is %s", collection.ID, collection.Status)
	}

	donation, err := srv.donationRepo.GetByID(ctx, collection.DonationID)
	if err != nil {
		return nil, mapRepoError(err, "find donation")
	}

	image, err := srv.images.Upload(ctx, actor, &usecase.ImageUpload{
		Photo:        *photo,
		Type:         entity.ImageVerification,
		AssociatedID: collection.ID,
	})
	if err != nil {
		return nil, err
	}

	image, assessment, err := srv.images.Assess(ctx, image.ID, donation.Info().FoodType)
	if err != nil {
		return nil, err
	}

	result := &usecase.VerificationResult{Image: image, Assessment: assessment}
	label := conditionLabel(assessment)

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		collectionRepo := repoFactory.NewCollectionRepository()
		donationRepo := repoFactory.NewDonationRepository()

		current, err := collectionRepo.GetByID(ctx, collectionID)
		if err != nil {
			return err
		}
		if !verifiable(current) {
			return invalidTransition("collection %s is %s", current.ID, current.Status)
		}

		verifiedAt := srv.now()
		current.VerificationPhotoID = image.ID
		current.VerificationResult = assessment.Condition
		current.VerificationConfidence = assessment.Confidence
		current.VerifiedAt = &verifiedAt

		result.Collection = current
		result.Redirected = false
		result.Waste = nil

		if assessment.Condition != entity.FreshnessSpoiled {
			return collectionRepo.Update(ctx, current)
		}

		stored, err := donationRepo.GetByID(ctx, current.DonationID)
		if err != nil {
			return err
		}
		regular, ok := entity.AsRegular(stored)
		if !ok {
			return invalidTransition("donation %s is already a waste donation", current.DonationID)
		}

		current.Status = entity.CollectionCancelled
		current.CancelledAt = &verifiedAt
		current.Redirected = true
		if err := collectionRepo.Update(ctx, current); err != nil {
			return err
		}

		waste := redirectToBiogas(regular, current.ID)
		if err := donationRepo.Update(ctx, waste); err != nil {
			return err
		}

		result.Redirected = true
		result.Waste = waste

		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "record verification")
	}

	srv.log(ctx).Info("Collection verified",
		slog.String("collectionID", collectionID),
		slog.String("condition", string(assessment.Condition)),
		slog.Float64("confidence", assessment.Confidence),
		slog.String("source", assessment.Source),
		slog.Bool("redirected", result.Redirected))

	srv.notifyVerification(ctx, result.Collection, label, result.Redirected)

	return result, nil
}

func verifiable(c *entity.Collection) bool {
	switch c.Status {
	case entity.CollectionRequested, entity.CollectionAssigned, entity.CollectionInTransit:
		return true
	default:
		return false
	}
}

func conditionLabel(assessment *entity.Assessment) string {
	if assessment.Label != "" {
		return assessment.Label
	}
	if assessment.Condition == entity.FreshnessFresh {
		return "edible"
	}

	return "inedible"
}

// redirectToBiogas rewrites a regular donation into a waste donation under the
// same id and version.
func redirectToBiogas(regular *entity.RegularDonation, collectionID string) *entity.WasteDonation {
	info := regular.DonationInfo
	info.Status = entity.DonationAwaitingBiogasApproval

	return &entity.WasteDonation{
		DonationInfo:   info,
		WasteCondition: entity.WasteInedible,
		RedirectedFrom: collectionID,
	}
}

func (srv *collectionService) notifyVerification(ctx context.Context, collection *entity.Collection, label string, redirected bool) {
	logger := srv.log(ctx)

	if err := srv.notifications.NotifyNGO(ctx, collection.NGOID, collection.DonationID, label, redirected); err != nil {
		logger.Warn("Failed to notify NGO", slog.String("ngoID", collection.NGOID), slog.Any("error", err))
	}
	if !redirected {
		return
	}

	plants, err := verifiedUsers(ctx, srv.userRepo, entity.RoleBiogas)
	if err != nil {
		logger.Warn("Failed to list biogas plants", slog.Any("error", err))
	}
	for _, plant := range plants {
		if err := srv.notifications.NotifyBiogasPlant(ctx, plant.ID, collection.DonationID, label); err != nil {
			logger.Warn("Failed to notify biogas plant", slog.String("plantID", plant.ID), slog.Any("error", err))
		}
	}

	if collection.HasDriver() {
		if err := srv.notifications.NotifyDriver(ctx, collection.DriverID, collection.DonationID, "biogas"); err != nil {
			logger.Warn("Failed to notify driver", slog.String("driverID", collection.DriverID), slog.Any("error", err))
		}
	}
}
