package repository

import "context"

// TransactionManager defines the interface for managing store transactions.
// This allows the use case layer to handle transactions without depending on a specific store backend.
type TransactionManager interface {
	// Execute runs a function within a transaction.
	// If the function returns an error nothing it wrote is kept. Otherwise all of its writes commit together.
	// The function may be run more than once when a concurrent writer wins; it must not have side effects
	// outside the repositories it is given.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances that are bound to a specific transaction.
type RepositoryFactory interface {
	NewDonationRepository() DonationRepository
	NewCollectionRepository() CollectionRepository
	NewUserRepository() UserRepository
	NewImageRepository() ImageRepository
	NewDeviceRepository() DeviceRepository
}
