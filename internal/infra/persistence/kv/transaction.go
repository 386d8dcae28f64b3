package kv

import (
	"context"

	"foodbridge/internal/domain/repository"
	"foodbridge/internal/infra/kvstore"
)

// kvTransactionManager implements the domain's TransactionManager interface over the store.
type kvTransactionManager struct {
	store *kvstore.Store
	now   Clock
}

// kvRepositoryFactory implements the domain's RepositoryFactory interface.
// It holds one staged store transaction and uses it to create repository
// instances that are bound to that single transaction.
type kvRepositoryFactory struct {
	session kvstore.Session
	now     Clock
}

// NewRepositoryFactory returns a factory whose repositories commit every
// operation on its own.
func NewRepositoryFactory(store *kvstore.Store, clock Clock) repository.RepositoryFactory {
	return &kvRepositoryFactory{session: store, now: orNow(clock)}
}

func (f *kvRepositoryFactory) NewDonationRepository() repository.DonationRepository {
	return NewDonationRepository(f.session, f.now)
}

func (f *kvRepositoryFactory) NewCollectionRepository() repository.CollectionRepository {
	return NewCollectionRepository(f.session, f.now)
}

func (f *kvRepositoryFactory) NewUserRepository() repository.UserRepository {
	return NewUserRepository(f.session, f.now)
}

func (f *kvRepositoryFactory) NewImageRepository() repository.ImageRepository {
	return NewImageRepository(f.session, f.now)
}

func (f *kvRepositoryFactory) NewDeviceRepository() repository.DeviceRepository {
	return NewDeviceRepository(f.session, f.now)
}

// NewTransactionManager is the constructor for kvTransactionManager.
// This function will be used as an Fx provider.
func NewTransactionManager(store *kvstore.Store, clock Clock) repository.TransactionManager {
	return &kvTransactionManager{store: store, now: orNow(clock)}
}

// Execute runs fn within a single store transaction. fn is re-run when a
// concurrent commit changed a key it read.
func (tm *kvTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	err := tm.store.Transact(ctx, func(s kvstore.Session) error {
		return fn(&kvRepositoryFactory{session: s, now: tm.now})
	})

	return mapCommitError(err)
}
