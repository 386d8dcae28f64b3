package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

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

// donationService implements the DonationUsecase interface.
type donationService struct {
	txManager     repository.TransactionManager
	donationRepo  repository.DonationRepository
	userRepo      repository.UserRepository
	notifications usecase.NotificationUsecase
	geocoder      service.Geocoder
	now           util.Clock
	logger        *slog.Logger
}

// DonationServiceParams holds dependencies for DonationService, injected by Fx.
type DonationServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	DonationRepo  repository.DonationRepository
	UserRepo      repository.UserRepository
	Notifications usecase.NotificationUsecase
	Geocoder      service.Geocoder `optional:"true"`
	Clock         util.Clock
	Logger        *slog.Logger
}

// NewDonationService is the constructor for donationService.
func NewDonationService(params DonationServiceParams) usecase.DonationUsecase {
	clock := params.Clock
	if clock == nil {
		clock = util.SystemClock()
	}

	return &donationService{
		txManager:     params.TxManager,
		donationRepo:  params.DonationRepo,
		userRepo:      params.UserRepo,
		notifications: params.Notifications,
		geocoder:      params.Geocoder,
		now:           clock,
		logger:        params.Logger,
	}
}

func (srv *donationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *donationService) CreateDonation(ctx context.Context, actor entity.Actor, draft *entity.DonationDraft) (entity.Donation, error) {
	if err := requireRole(actor, entity.RoleDonor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	info := entity.DonationInfo{
		FoodName:    strings.TrimSpace(draft.FoodName),
		FoodType:    draft.FoodType,
		Quantity:    strings.TrimSpace(draft.Quantity),
		Condition:   draft.Condition,
		Description: draft.Description,
		Address:     strings.TrimSpace(draft.Address),
		Latitude:    draft.Latitude,
		Longitude:   draft.Longitude,
		DonorID:     actor.UserID,
		DonorName:   actor.Name,
		ExpiryDate:  draft.ExpiryDate,
	}
	if !info.HasLocation() {
		srv.geocode(ctx, &info)
	}

	var donation entity.Donation
	if draft.Kind == entity.KindWaste {
		info.Status = entity.DonationAwaitingBiogasApproval
		wasteCondition := draft.WasteCondition
		if wasteCondition == "" {
			wasteCondition = entity.WasteInedible
		}
		donation = &entity.WasteDonation{DonationInfo: info, WasteCondition: wasteCondition}
	} else {
		info.Status = entity.DonationPending
		donation = &entity.RegularDonation{DonationInfo: info}
	}

	if err := srv.donationRepo.Add(ctx, donation); err != nil {
		srv.log(ctx).Error("Failed to store donation", slog.String("donorID", actor.UserID), slog.Any("error", err))

		return nil, mapRepoError(err, "store donation")
	}

	srv.log(ctx).Info("Donation created",
		slog.String("donationID", donation.Info().ID),
		slog.String("kind", string(donation.Kind())))

	if waste, ok := entity.AsWaste(donation); ok {
		srv.notifyPlantsOfWaste(ctx, waste)
	}

	return donation, nil
}

func validateDraft(draft *entity.DonationDraft) error {
	if draft == nil {
		return validationFailed("donation details are required")
	}
	if draft.Kind == "" {
		draft.Kind = entity.KindRegular
	}

	switch {
	case draft.Kind != entity.KindRegular && draft.Kind != entity.KindWaste:
		return validationFailed("unknown donation kind %q", draft.Kind)
	case len(strings.TrimSpace(draft.FoodName)) < 2:
		return validationFailed("Food name must be at least 2 characters.")
	case strings.TrimSpace(draft.Quantity) == "":
		return validationFailed("Please specify the quantity.")
	case len(strings.TrimSpace(draft.Address)) < 5:
		return validationFailed("Please enter a valid address.")
	case (draft.Latitude == nil) != (draft.Longitude == nil):
		return validationFailed("latitude and longitude must be given together")
	}

	if draft.Latitude != nil {
		point := entity.Coordinates{Latitude: *draft.Latitude, Longitude: *draft.Longitude}
		if !point.Valid() {
			return domainerrors.ErrInvalidCoordinates
		}
	}

	if draft.Kind == entity.KindRegular {
		switch draft.Condition {
		case entity.FoodFresh, entity.FoodGood, entity.FoodStaple:
		default:
			return validationFailed("Please select a valid condition.")
		}
	} else {
		switch draft.WasteCondition {
		case "", entity.WasteEdible, entity.WasteInedible:
		default:
			return validationFailed("Please select a valid waste condition.")
		}
	}

	return nil
}

// geocode fills in coordinates from the address. Lookup failures leave the
// donation without a location.
func (srv *donationService) geocode(ctx context.Context, info *entity.DonationInfo) {
	if srv.geocoder == nil {
		return
	}

	result, err := srv.geocoder.Geocode(ctx, info.Address)
	if err != nil {
		srv.log(ctx).Warn("Geocoding donation address failed", slog.Any("error", err))

		return
	}
	if result == nil {
		return
	}

	lat, lng := result.Latitude, result.Longitude
	info.Latitude = &lat
	info.Longitude = &lng
}

func (srv *donationService) notifyPlantsOfWaste(ctx context.Context, waste *entity.WasteDonation) {
	plants, err := verifiedUsers(ctx, srv.userRepo, entity.RoleBiogas)
	if err != nil {
		srv.log(ctx).Warn("Failed to list biogas plants", slog.Any("error", err))

		return
	}

	message := fmt.Sprintf("A new waste donation #%s (%s) is awaiting your approval.", util.ShortID(waste.ID), waste.FoodName)
	for _, plant := range plants {
		srv.notify(ctx, plant.ID, entity.NotificationPickupRequest, "New Waste Donation", message, waste.ID)
	}
}

func (srv *donationService) notify(ctx context.Context, userID string, notificationType entity.NotificationType, title, message, donationID string) {
	notifyUser(ctx, srv.notifications, srv.log(ctx), userID, notificationType, title, message, map[string]any{
		"donationId": donationID,
	})
}

func (srv *donationService) GetDonation(ctx context.Context, donationID string) (entity.Donation, error) {
	donation, err := srv.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return nil, mapRepoError(err, "find donation")
	}

	return donation, nil
}

func (srv *donationService) ListDonations(ctx context.Context, filter usecase.DonationFilter) ([]entity.Donation, error) {
	var (
		donations []entity.Donation
		err       error
	)
	if filter.DonorID != "" {
		donations, err = srv.donationRepo.GetByDonor(ctx, filter.DonorID)
	} else {
		donations, err = srv.donationRepo.GetAll(ctx)
	}
	if err != nil {
		return nil, mapRepoError(err, "list donations")
	}

	matched := make([]entity.Donation, 0, len(donations))
	for _, donation := range donations {
		info := donation.Info()
		if filter.Status != "" && info.Status != filter.Status {
			continue
		}
		if filter.Kind != "" && donation.Kind() != filter.Kind {
			continue
		}
		if filter.FoodType != "" && !strings.EqualFold(info.FoodType, filter.FoodType) {
			continue
		}
		matched = append(matched, donation)
	}

	return matched, nil
}

func (srv *donationService) ListAvailable(ctx context.Context) ([]*entity.RegularDonation, error) {
	donations, err := srv.donationRepo.GetAvailable(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list available donations")
	}

	return donations, nil
}

// ClaimDonation runs the assignment and the collection insert in one
// transaction. A claim racing a committed one re-reads the donation as
// assigned and fails with ErrDonationUnavailable.
func (srv *donationService) ClaimDonation(
	ctx context.Context,
	actor entity.Actor,
	donationID string,
	pickupTime time.Time,
	notes string,
) (*entity.Collection, error) {
	if err := requireRole(actor, entity.RoleNGO); err != nil {
		return nil, err
	}
	if pickupTime.IsZero() {
		return nil, validationFailed("Pickup time is required.")
	}

	ngoName := actorDisplayName(ctx, srv.userRepo, actor)

	var (
		collection *entity.Collection
		donorID    string
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		donationRepo := repoFactory.NewDonationRepository()
		collectionRepo := repoFactory.NewCollectionRepository()

		donation, err := donationRepo.GetByID(ctx, donationID)
		if err != nil {
			return err
		}

		regular, ok := entity.AsRegular(donation)
		if !ok {
			return invalidTransition("donation %s is a waste donation", donationID)
		}
		if regular.Status != entity.DonationPending {
			return domainerrors.ErrDonationUnavailable.WithDetails(
				fmt.Sprintf("donation %s is %s", donationID, regular.Status))
		}

		if _, err := collectionRepo.GetActiveByDonation(ctx, donationID); err == nil {
			return domainerrors.ErrDonationUnavailable.WithDetails("donation already has an active collection")
		} else if !errors.Is(err, repository.ErrCollectionNotFound) {
			return err
		}

		regular.Status = entity.DonationAssigned
		regular.AssignedTo = actor.UserID
		if err := donationRepo.Update(ctx, regular); err != nil {
			return err
		}

		collection = &entity.Collection{
			DonationID: donationID,
			NGOID:      actor.UserID,
			NGOName:    ngoName,
			PickupTime: pickupTime,
			Notes:      notes,
			Status:     entity.CollectionRequested,
		}
		donorID = regular.DonorID

		return collectionRepo.Add(ctx, collection)
	})
	if err != nil {
		srv.log(ctx).Warn("Claim failed",
			slog.String("donationID", donationID),
			slog.String("ngoID", actor.UserID),
			slog.Any("error", err))

		return nil, mapRepoError(err, "claim donation")
	}

	srv.log(ctx).Info("Donation claimed",
		slog.String("donationID", donationID),
		slog.String("collectionID", collection.ID))

	srv.notify(ctx, donorID, entity.NotificationDonationClaimed, "Donation Claimed",
		fmt.Sprintf("Donation #%s has been claimed by %s.", util.ShortID(donationID), ngoName), donationID)

	return collection, nil
}

// updateWaste loads a waste donation inside a transaction, lets mutate check
// preconditions and apply the change, and stores the result.
func (srv *donationService) updateWaste(
	ctx context.Context,
	donationID string,
	mutate func(waste *entity.WasteDonation) error,
) (*entity.WasteDonation, error) {
	var updated *entity.WasteDonation
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		donationRepo := repoFactory.NewDonationRepository()

		donation, err := donationRepo.GetByID(ctx, donationID)
		if err != nil {
			return err
		}

		waste, ok := entity.AsWaste(donation)
		if !ok {
			return invalidTransition("donation %s is not a waste donation", donationID)
		}
		if err := mutate(waste); err != nil {
			return err
		}
		if err := donationRepo.Update(ctx, waste); err != nil {
			return err
		}
		updated = waste

		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "update waste donation")
	}

	return updated, nil
}

func (srv *donationService) ApproveByBiogasPlant(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error) {
	if err := requireRole(actor, entity.RoleBiogas); err != nil {
		return nil, err
	}

	plantName := actorDisplayName(ctx, srv.userRepo, actor)
	waste, err := srv.updateWaste(ctx, donationID, func(waste *entity.WasteDonation) error {
		if waste.Status != entity.DonationAwaitingBiogasApproval {
			return invalidTransition("donation %s is %s", donationID, waste.Status)
		}

		reviewedAt := srv.now()
		waste.Status = entity.DonationBiogasApproved
		waste.BiogasPlantID = actor.UserID
		waste.BiogasPlantName = plantName
		waste.ReviewedAt = &reviewedAt

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.notify(ctx, waste.DonorID, entity.NotificationWasteApproved, "Waste Donation Approved",
		fmt.Sprintf("Donation #%s has been approved by %s.", util.ShortID(donationID), plantName), donationID)

	return waste, nil
}

func (srv *donationService) AcceptByDriver(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error) {
	if err := requireRole(actor, entity.RoleDriver); err != nil {
		return nil, err
	}

	waste, err := srv.updateWaste(ctx, donationID, func(waste *entity.WasteDonation) error {
		if waste.Status != entity.DonationBiogasApproved {
			return invalidTransition("donation %s is %s", donationID, waste.Status)
		}

		acceptedAt := srv.now()
		waste.Status = entity.DonationDriverAccepted
		waste.DriverID = actor.UserID
		waste.DriverName = actor.Name
		waste.AcceptedAt = &acceptedAt

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.notify(ctx, waste.BiogasPlantID, entity.NotificationWasteAccepted, "Driver Assigned",
		fmt.Sprintf("%s will pick up donation #%s.", actor.Name, util.ShortID(donationID)), donationID)

	return waste, nil
}

func (srv *donationService) MarkWastePickedUp(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error) {
	if err := requireRole(actor, entity.RoleDriver); err != nil {
		return nil, err
	}

	waste, err := srv.updateWaste(ctx, donationID, func(waste *entity.WasteDonation) error {
		if waste.Status != entity.DonationDriverAccepted {
			return invalidTransition("donation %s is %s", donationID, waste.Status)
		}
		if waste.DriverID != actor.UserID {
			return domainerrors.ErrForbidden.WithDetails("donation is bound to another driver")
		}

		pickedUpAt := srv.now()
		waste.Status = entity.DonationCollected
		waste.PickedUpAt = &pickedUpAt

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.notify(ctx, waste.BiogasPlantID, entity.NotificationPickupRequest, "Waste Picked Up",
		fmt.Sprintf("Donation #%s has been picked up and is on its way to your facility.", util.ShortID(donationID)), donationID)

	return waste, nil
}

func (srv *donationService) ConfirmWasteDelivery(ctx context.Context, actor entity.Actor, donationID string) (*entity.WasteDonation, error) {
	if err := requireRole(actor, entity.RoleBiogas); err != nil {
		return nil, err
	}

	waste, err := srv.updateWaste(ctx, donationID, func(waste *entity.WasteDonation) error {
		if waste.Status != entity.DonationCollected {
			return invalidTransition("donation %s is %s", donationID, waste.Status)
		}
		if waste.BiogasPlantID != actor.UserID {
			return domainerrors.ErrForbidden.WithDetails("donation is bound to another biogas plant")
		}

		deliveredAt := srv.now()
		waste.Status = entity.DonationDelivered
		waste.DeliveredAt = &deliveredAt

		return nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Donation #%s has been delivered to %s.", util.ShortID(donationID), waste.BiogasPlantName)
	srv.notify(ctx, waste.DonorID, entity.NotificationDeliveryConfirmation, "Delivery Confirmed", message, donationID)
	srv.notify(ctx, waste.DriverID, entity.NotificationDeliveryConfirmation, "Delivery Confirmed", message, donationID)

	return waste, nil
}

func (srv *donationService) ExpireDonation(ctx context.Context, actor entity.Actor, donationID string) (entity.Donation, error) {
	if err := requireRole(actor, entity.RoleDonor, entity.RoleAdmin); err != nil {
		return nil, err
	}

	var expired *entity.RegularDonation
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		donationRepo := repoFactory.NewDonationRepository()

		donation, err := donationRepo.GetByID(ctx, donationID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && donation.Info().DonorID != actor.UserID {
			return domainerrors.ErrForbidden.WithDetails("donation belongs to another donor")
		}

		regular, ok := entity.AsRegular(donation)
		if !ok || regular.Status != entity.DonationPending {
			return invalidTransition("donation %s is %s", donationID, donation.Info().Status)
		}

		regular.Status = entity.DonationExpired
		if err := donationRepo.Update(ctx, regular); err != nil {
			return err
		}
		expired = regular

		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "expire donation")
	}

	if expired.DonorID != actor.UserID {
		srv.notifyExpired(ctx, expired)
	}

	return expired, nil
}

func (srv *donationService) notifyExpired(ctx context.Context, donation *entity.RegularDonation) {
	srv.notify(ctx, donation.DonorID, entity.NotificationDonationExpired, "Donation Expired",
		fmt.Sprintf("Donation #%s (%s) has expired and is no longer available.", util.ShortID(donation.ID), donation.FoodName),
		donation.ID)
}

func (srv *donationService) ExpireOverdue(ctx context.Context) (int, error) {
	var expired []*entity.RegularDonation
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		donationRepo := repoFactory.NewDonationRepository()
		expired = expired[:0]

		available, err := donationRepo.GetAvailable(ctx)
		if err != nil {
			return err
		}

		now := srv.now()
		for _, donation := range available {
			if !donation.IsPastExpiry(now) {
				continue
			}
			donation.Status = entity.DonationExpired
			if err := donationRepo.Update(ctx, donation); err != nil {
				return err
			}
			expired = append(expired, donation)
		}

		return nil
	})
	if err != nil {
		return 0, mapRepoError(err, "expire overdue donations")
	}

	for _, donation := range expired {
		srv.notifyExpired(ctx, donation)
	}
	if len(expired) > 0 {
		srv.log(ctx).Info("Expired overdue donations", slog.Int("count", len(expired)))
	}

	return len(expired), nil
}
