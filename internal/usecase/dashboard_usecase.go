package usecase

import (
	"context"

	"foodbridge/internal/domain/entity"
)

// DashboardUsecase builds the role-scoped read models.
type DashboardUsecase interface {
	DonorDashboard(ctx context.Context, actor entity.Actor) (*entity.DonorDashboard, error)
	NGODashboard(ctx context.Context, actor entity.Actor) (*entity.NGODashboard, error)
	DriverDashboard(ctx context.Context, actor entity.Actor) (*entity.DriverDashboard, error)
	BiogasDashboard(ctx context.Context, actor entity.Actor) (*entity.BiogasDashboard, error)

	// AdminStats counts users, donations and collections.
	AdminStats(ctx context.Context, actor entity.Actor) (*entity.AdminStats, error)

	// AdminCollections lists every collection joined with its donation.
	AdminCollections(ctx context.Context, actor entity.Actor) ([]*entity.EnrichedCollection, error)
}
