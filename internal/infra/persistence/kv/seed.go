package kv

import (
	"context"
	"time"

	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
)

// SeedSampleDonations stores three sample donations when no donation exists.
// It reports whether anything was written.
func SeedSampleDonations(ctx context.Context, repo repository.DonationRepository, now time.Time) (bool, error) {
	existing, err := repo.GetAll(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	for _, d := range sampleDonations(now) {
		if err := repo.Add(ctx, d); err != nil {
			return false, err
		}
	}

	return true, nil
}

func sampleDonations(now time.Time) []entity.Donation {
	sample := func(id, food, foodType, quantity string, condition entity.FoodCondition, address, donorID, donorName string,
		age, expiresIn time.Duration, lat, lng float64,
	) entity.Donation {
		expiry := now.Add(expiresIn)

		return &entity.RegularDonation{DonationInfo: entity.DonationInfo{
			ID:         id,
			FoodName:   food,
			FoodType:   foodType,
			Quantity:   quantity,
			Condition:  condition,
			Address:    address,
			Latitude:   &lat,
			Longitude:  &lng,
			DonorID:    donorID,
			DonorName:  donorName,
			CreatedAt:  now.Add(-age),
			ExpiryDate: &expiry,
			Status:     entity.DonationPending,
		}}
	}

	return []entity.Donation{
		sample("don1", "Fresh Cooked Meals", "cooked", "10 kg (approx. 20 servings)", entity.FoodFresh,
			"123 Main St, City", "user1", "Green Bistro Restaurant", 0, 8*time.Hour, 40.7128, -74.0060),
		sample("don2", "Bakery Items", "bakery", "5 kg (various items)", entity.FoodGood,
			"456 Oak St, City", "user2", "Daily Bread Bakery", time.Hour, 24*time.Hour, 40.7138, -74.0070),
		sample("don3", "Fresh Produce", "raw", "8 kg", entity.FoodFresh,
			"789 Pine St, City", "user3", "FreshMart Supermarket", 2*time.Hour, 5*time.Hour, 40.7148, -74.0080),
	}
}
