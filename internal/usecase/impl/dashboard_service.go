package impl

import (
	"context"

	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/usecase"
)

type dashboardService struct {
	donationRepo   repository.DonationRepository
	collectionRepo repository.CollectionRepository
	userRepo       repository.UserRepository
}

// NewDashboardService creates the role-scoped read models.
func NewDashboardService(
	donationRepo repository.DonationRepository,
	collectionRepo repository.CollectionRepository,
	userRepo repository.UserRepository,
) usecase.DashboardUsecase {
	return &dashboardService{
		donationRepo:   donationRepo,
		collectionRepo: collectionRepo,
		userRepo:       userRepo,
	}
}

func (srv *dashboardService) DonorDashboard(ctx context.Context, actor entity.Actor) (*entity.DonorDashboard, error) {
	if err := requireRole(actor, entity.RoleDonor, entity.RoleAdmin); err != nil {
		return nil, err
	}

	donations, err := srv.donationRepo.GetByDonor(ctx, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "list donor donations")
	}

	dashboard := &entity.DonorDashboard{Donations: donations, Total: len(donations)}
	for _, donation := range donations {
		switch donation.Info().Status {
		case entity.DonationPending, entity.DonationAwaitingBiogasApproval:
			dashboard.Pending++
		case entity.DonationDelivered:
			dashboard.Delivered++
		}
	}

	return dashboard, nil
}

func (srv *dashboardService) NGODashboard(ctx context.Context, actor entity.Actor) (*entity.NGODashboard, error) {
	if err := requireRole(actor, entity.RoleNGO); err != nil {
		return nil, err
	}

	collections, err := srv.collectionRepo.GetByNGO(ctx, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "list NGO collections")
	}
	available, err := srv.donationRepo.GetAvailable(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list available donations")
	}

	dashboard := &entity.NGODashboard{
		Collections:        collections,
		AvailableDonations: available,
		Total:              len(collections),
	}
	for _, c := range collections {
		switch c.Status {
		case entity.CollectionRequested:
			dashboard.Pending++
		case entity.CollectionCompleted:
			dashboard.Completed++
		}
	}

	return dashboard, nil
}

func (srv *dashboardService) DriverDashboard(ctx context.Context, actor entity.Actor) (*entity.DriverDashboard, error) {
	if err := requireRole(actor, entity.RoleDriver); err != nil {
		return nil, err
	}

	assigned, err := srv.collectionRepo.GetByDriver(ctx, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "list driver collections")
	}
	available, err := srv.collectionRepo.GetAvailable(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list available collections")
	}
	approved, err := srv.donationRepo.GetWasteByStatus(ctx, entity.DonationBiogasApproved)
	if err != nil {
		return nil, mapRepoError(err, "list approved waste")
	}
	mine, err := srv.donationRepo.GetWasteByDriver(ctx, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "list driver waste pickups")
	}

	pickups := approved
	for _, waste := range mine {
		if waste.Status == entity.DonationDriverAccepted {
			pickups = append(pickups, waste)
		}
	}

	dashboard := &entity.DriverDashboard{
		AssignedCollections:  assigned,
		AvailableCollections: available,
		WastePickups:         pickups,
		Total:                len(assigned),
	}
	for _, c := range assigned {
		switch c.Status {
		case entity.CollectionAssigned:
			dashboard.Pending++
		case entity.CollectionCompleted:
			dashboard.Completed++
		}
	}

	return dashboard, nil
}

func (srv *dashboardService) BiogasDashboard(ctx context.Context, actor entity.Actor) (*entity.BiogasDashboard, error) {
	if err := requireRole(actor, entity.RoleBiogas); err != nil {
		return nil, err
	}

	incoming, err := srv.donationRepo.GetWasteAwaitingApproval(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list waste awaiting approval")
	}
	mine, err := srv.donationRepo.GetWasteByBiogasPlant(ctx, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "list plant waste")
	}

	dashboard := &entity.BiogasDashboard{IncomingWaste: incoming, Approved: mine}
	for _, waste := range mine {
		if waste.Status == entity.DonationDelivered {
			dashboard.Delivered++
		}
	}

	return dashboard, nil
}

func (srv *dashboardService) AdminStats(ctx context.Context, actor entity.Actor) (*entity.AdminStats, error) {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := srv.userRepo.GetAll(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list users")
	}
	donations, err := srv.donationRepo.GetAll(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list donations")
	}
	collections, err := srv.collectionRepo.GetAll(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list collections")
	}

	stats := &entity.AdminStats{
		UsersByRole:       make(map[entity.Role]int),
		TotalUsers:        len(users),
		DonationsByStatus: make(map[entity.DonationStatus]int),
		TotalDonations:    len(donations),
		TotalCollections:  len(collections),
	}
	for _, user := range users {
		stats.UsersByRole[user.Role]++
		if user.Status == entity.UserPending {
			stats.PendingVerifications++
		}
	}
	for _, donation := range donations {
		stats.DonationsByStatus[donation.Info().Status]++
	}
	for _, c := range collections {
		if c.Status == entity.CollectionCompleted {
			stats.CompletedCollections++
		}
	}

	return stats, nil
}

func (srv *dashboardService) AdminCollections(ctx context.Context, actor entity.Actor) ([]*entity.EnrichedCollection, error) {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}

	collections, err := srv.collectionRepo.GetAll(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list collections")
	}
	donations, err := srv.donationRepo.GetAll(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list donations")
	}

	byID := make(map[string]entity.Donation, len(donations))
	for _, donation := range donations {
		byID[donation.Info().ID] = donation
	}

	enriched := make([]*entity.EnrichedCollection, 0, len(collections))
	for _, c := range collections {
		item := &entity.EnrichedCollection{Collection: c}
		if donation, ok := byID[c.DonationID]; ok {
			info := donation.Info()
			item.FoodName = info.FoodName
			item.DonorName = info.DonorName
			item.Address = info.Address
			item.Condition = string(info.Condition)
			if waste, ok := entity.AsWaste(donation); ok {
				item.Condition = string(waste.WasteCondition)
			}
		}
		enriched = append(enriched, item)
	}

	return enriched, nil
}
