package kv

import (
	"context"

	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/util"
)

// donationRepository implements the repository.DonationRepository interface.
type donationRepository struct {
	session kvstore.Session
	now     Clock
}

// NewDonationRepository is the constructor for donationRepository.
func NewDonationRepository(session kvstore.Session, clock Clock) repository.DonationRepository {
	return &donationRepository{session: session, now: orNow(clock)}
}

func (repo *donationRepository) load(ctx context.Context, s kvstore.Session) ([]donationRecord, error) {
	return loadList[donationRecord](ctx, s, constants.KeyDonations)
}

func (repo *donationRepository) GetAll(ctx context.Context) ([]entity.Donation, error) {
	return repo.filter(ctx, func(entity.Donation) bool { return true })
}

func (repo *donationRepository) GetByID(ctx context.Context, id string) (entity.Donation, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	idx := indexOf(list, id)
	if idx < 0 {
		return nil, repository.ErrDonationNotFound
	}

	return list[idx].Clone(), nil
}

func (repo *donationRepository) Add(ctx context.Context, donation entity.Donation) error {
	info := donation.Info()
	now := repo.now()
	if info.ID == "" {
		info.ID = util.NewID(util.PrefixDonation, now)
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = now
	}
	info.UpdatedAt = now
	info.Version = 1

	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		return saveList(ctx, s, constants.KeyDonations, append(list, donationRecord{donation.Clone()}))
	})
}

func (repo *donationRepository) Update(ctx context.Context, donation entity.Donation) error {
	info := donation.Info()
	updatedAt := repo.now()

	err := atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		idx := indexOf(list, info.ID)
		if idx < 0 {
			return repository.ErrDonationNotFound
		}
		if list[idx].Info().Version != info.Version {
			return repository.ErrVersionConflict
		}

		stored := donation.Clone()
		stored.Info().Version = info.Version + 1
		stored.Info().UpdatedAt = updatedAt
		list[idx] = donationRecord{stored}

		return saveList(ctx, s, constants.KeyDonations, list)
	})
	if err != nil {
		return err
	}

	info.Version++
	info.UpdatedAt = updatedAt

	return nil
}

func (repo *donationRepository) GetByDonor(ctx context.Context, donorID string) ([]entity.Donation, error) {
	return repo.filter(ctx, func(d entity.Donation) bool { return d.Info().DonorID == donorID })
}

func (repo *donationRepository) GetAvailable(ctx context.Context) ([]*entity.RegularDonation, error) {
	return regularOnly(repo.filter(ctx, func(d entity.Donation) bool {
		_, ok := entity.AsRegular(d)

		return ok && d.Info().Status == entity.DonationPending
	}))
}

func (repo *donationRepository) GetWasteAwaitingApproval(ctx context.Context) ([]*entity.WasteDonation, error) {
	return repo.GetWasteByStatus(ctx, entity.DonationAwaitingBiogasApproval)
}

func (repo *donationRepository) GetWasteByBiogasPlant(ctx context.Context, plantID string) ([]*entity.WasteDonation, error) {
	return wasteOnly(repo.filter(ctx, func(d entity.Donation) bool {
		waste, ok := entity.AsWaste(d)

		return ok && waste.BiogasPlantID == plantID
	}))
}

func (repo *donationRepository) GetWasteByDriver(ctx context.Context, driverID string) ([]*entity.WasteDonation, error) {
	return wasteOnly(repo.filter(ctx, func(d entity.Donation) bool {
		waste, ok := entity.AsWaste(d)

		return ok && waste.DriverID == driverID
	}))
}

func (repo *donationRepository) GetWasteByStatus(ctx context.Context, status entity.DonationStatus) ([]*entity.WasteDonation, error) {
	return wasteOnly(repo.filter(ctx, func(d entity.Donation) bool {
		_, ok := entity.AsWaste(d)

		return ok && d.Info().Status == status
	}))
}

func (repo *donationRepository) filter(ctx context.Context, keep func(entity.Donation) bool) ([]entity.Donation, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	result := make([]entity.Donation, 0, len(list))
	for _, rec := range list {
		if keep(rec.Donation) {
			result = append(result, rec.Clone())
		}
	}

	return result, nil
}

func regularOnly(donations []entity.Donation, err error) ([]*entity.RegularDonation, error) {
	if err != nil {
		return nil, err
	}

	result := make([]*entity.RegularDonation, 0, len(donations))
	for _, d := range donations {
		if regular, ok := entity.AsRegular(d); ok {
			result = append(result, regular)
		}
	}

	return result, nil
}

func wasteOnly(donations []entity.Donation, err error) ([]*entity.WasteDonation, error) {
	if err != nil {
		return nil, err
	}

	result := make([]*entity.WasteDonation, 0, len(donations))
	for _, d := range donations {
		if waste, ok := entity.AsWaste(d); ok {
			result = append(result, waste)
		}
	}

	return result, nil
}
