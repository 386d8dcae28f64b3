package kv

import (
	"context"
	"strings"

	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/entity"
	"foodbridge/internal/domain/repository"
	"foodbridge/internal/infra/kvstore"
	"foodbridge/internal/util"
)

// userRepository implements the repository.UserRepository interface.
type userRepository struct {
	session kvstore.Session
	now     Clock
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(session kvstore.Session, clock Clock) repository.UserRepository {
	return &userRepository{session: session, now: orNow(clock)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (repo *userRepository) load(ctx context.Context, s kvstore.Session) ([]userRecord, error) {
	return loadList[userRecord](ctx, s, constants.KeyUsers)
}

func (repo *userRepository) GetAll(ctx context.Context) ([]*entity.User, error) {
	return repo.filter(ctx, func(*entity.User) bool { return true })
}

func (repo *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	idx := indexOf(list, id)
	if idx < 0 {
		return nil, repository.ErrUserNotFound
	}
	user := *list[idx].User

	return &user, nil
}

func (repo *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = normalizeEmail(email)

	users, err := repo.filter(ctx, func(u *entity.User) bool { return normalizeEmail(u.Email) == email })
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, repository.ErrUserNotFound
	}

	return users[0], nil
}

func (repo *userRepository) Add(ctx context.Context, user *entity.User) error {
	now := repo.now()
	user.Email = normalizeEmail(user.Email)
	if user.ID == "" {
		user.ID = util.NewID(util.PrefixUser, now)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Version = 1

	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		for _, rec := range list {
			if normalizeEmail(rec.Email) == user.Email {
				return repository.ErrDuplicateEmail
			}
		}

		stored := *user

		return saveList(ctx, s, constants.KeyUsers, append(list, userRecord{&stored}))
	})
}

func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	updatedAt := repo.now()

	err := atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		idx := indexOf(list, user.ID)
		if idx < 0 {
			return repository.ErrUserNotFound
		}
		if list[idx].Version != user.Version {
			return repository.ErrVersionConflict
		}

		stored := *user
		stored.Email = normalizeEmail(stored.Email)
		stored.Version++
		stored.UpdatedAt = updatedAt
		list[idx] = userRecord{&stored}

		return saveList(ctx, s, constants.KeyUsers, list)
	})
	if err != nil {
		return err
	}

	user.Version++
	user.UpdatedAt = updatedAt

	return nil
}

func (repo *userRepository) Delete(ctx context.Context, id string) error {
	return atomic(ctx, repo.session, func(s kvstore.Session) error {
		list, err := repo.load(ctx, s)
		if err != nil {
			return err
		}

		idx := indexOf(list, id)
		if idx < 0 {
			return repository.ErrUserNotFound
		}

		return saveList(ctx, s, constants.KeyUsers, append(list[:idx], list[idx+1:]...))
	})
}

func (repo *userRepository) GetByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	return repo.filter(ctx, func(u *entity.User) bool { return u.Role == role })
}

func (repo *userRepository) GetPendingVerification(ctx context.Context) ([]*entity.User, error) {
	return repo.filter(ctx, func(u *entity.User) bool { return u.Status == entity.UserPending })
}

func (repo *userRepository) filter(ctx context.Context, keep func(*entity.User) bool) ([]*entity.User, error) {
	list, err := repo.load(ctx, repo.session)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.User, 0, len(list))
	for _, rec := range list {
		if keep(rec.User) {
			user := *rec.User
			result = append(result, &user)
		}
	}

	return result, nil
}
