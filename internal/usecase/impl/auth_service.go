package impl

import (
	"context"
	"log/slog"
	"strings"

	"foodbridge/config"
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

// authService implements the AuthUsecase and AdminUsecase interfaces.
type authService struct {
	userRepo     repository.UserRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	admin        *config.AdminSeedConfig
	now          util.Clock
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Config       *config.Config
	Clock        util.Clock
	Logger       *slog.Logger
}

func newAuthService(params AuthServiceParams) *authService {
	clock := params.Clock
	if clock == nil {
		clock = util.SystemClock()
	}

	srv := &authService{
		userRepo:     params.UserRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		now:          clock,
		logger:       params.Logger,
	}
	if params.Config != nil && params.Config.Auth != nil {
		srv.admin = params.Config.Auth.Admin
	}

	return srv
}

// NewAuthService is the constructor for the account and session usecase.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return newAuthService(params)
}

// NewAdminService is the constructor for the admin account usecase.
func NewAdminService(params AuthServiceParams) usecase.AdminUsecase {
	return newAuthService(params)
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (srv *authService) Signup(ctx context.Context, input *usecase.SignupInput) (*usecase.Session, error) {
	role := entity.Role(input.Role)
	if !role.IsSignupRole() {
		return nil, validationFailed("role %q cannot be chosen at signup; choose one of %v", input.Role, entity.SignupRoles())
	}

	email := normalizeEmail(input.Email)
	srv.log(ctx).Info("Starting signup", slog.Any("role", role), slog.String("email", email))

	if _, err := srv.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domainerrors.ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, mapRepoError(err, "find user by email")
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during signup", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed.Because(err)
	}

	name := strings.TrimSpace(input.Name)
	organization := strings.TrimSpace(input.Organization)
	if organization == "" {
		organization = entity.DefaultOrganization(name, role)
	}

	now := srv.now()
	user := &entity.User{
		ID:           util.NewID(util.PrefixUser, now),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
		Organization: organization,
		Status:       entity.UserPending,
	}

	if err := srv.userRepo.Add(ctx, user); err != nil {
		srv.log(ctx).Error("Failed to store user", slog.String("email", email), slog.Any("error", err))

		return nil, mapRepoError(err, "store user")
	}

	srv.log(ctx).Debug("Signup completed", slog.String("userID", user.ID))

	return srv.issue(user)
}

func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.Session, error) {
	email := normalizeEmail(input.Email)

	user, err := srv.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Login for unknown email", slog.String("email", email))

			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, mapRepoError(err, "find user by email")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Password mismatch on login", slog.String("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredentials
	}
	if user.Status == entity.UserRejected {
		return nil, domainerrors.ErrAccountRejected
	}
	srv.upgradeHash(ctx, user, input.Password)

	return srv.issue(user)
}

// upgradeHash re-hashes the password when the configured cost changed. A
// failure leaves the old hash in place.
func (srv *authService) upgradeHash(ctx context.Context, user *entity.User, password string) {
	if !srv.hasher.NeedsRehash(user.PasswordHash) {
		return
	}

	hash, err := srv.hasher.Hash(password)
	if err == nil {
		user.PasswordHash = hash
		err = srv.userRepo.Update(ctx, user)
	}
	if err != nil {
		srv.log(ctx).Warn("Password rehash failed", slog.String("userID", user.ID), slog.Any("error", err))
	}
}

func (srv *authService) issue(user *entity.User) (*usecase.Session, error) {
	token, err := srv.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}

	return &usecase.Session{
		User:        sanitizeUser(user),
		AccessToken: token,
		ExpiresAt:   srv.now().Add(srv.tokenService.TokenTTL()),
	}, nil
}

// sanitizeUser returns a copy without the password hash.
func sanitizeUser(user *entity.User) *entity.User {
	cloned := *user
	cloned.PasswordHash = ""

	return &cloned
}

// Authenticate validates the token and re-reads the account so removed or
// rejected users lose access before their token expires.
func (srv *authService) Authenticate(ctx context.Context, token string) (entity.Actor, error) {
	if token == "" {
		return entity.Actor{}, domainerrors.ErrUnauthenticated
	}

	claims, err := srv.tokenService.ValidateToken(token)
	if err != nil {
		return entity.Actor{}, domainerrors.ErrUnauthenticated.WithDetails(err.Error())
	}

	user, err := srv.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return entity.Actor{}, domainerrors.ErrUnauthenticated.WithDetails("account no longer exists")
		}

		return entity.Actor{}, mapRepoError(err, "find user")
	}
	if user.Status == entity.UserRejected {
		return entity.Actor{}, domainerrors.ErrAccountRejected
	}

	return user.Actor(), nil
}

func (srv *authService) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := srv.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "find user")
	}

	return sanitizeUser(user), nil
}

func (srv *authService) EnsureAdmin(ctx context.Context) error {
	if srv.admin == nil || srv.admin.Email == "" || srv.admin.Password == "" {
		return nil
	}

	email := normalizeEmail(srv.admin.Email)
	if _, err := srv.userRepo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return errors.Wrap(err, "failed to look up admin account")
	}

	hash, err := srv.hasher.Hash(srv.admin.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash admin password")
	}

	name := srv.admin.Name
	if name == "" {
		name = "Administrator"
	}

	now := srv.now()
	admin := &entity.User{
		ID:           util.NewID(util.PrefixUser, now),
		Name:         name,
		Email:        email,
		Role:         entity.RoleAdmin,
		PasswordHash: hash,
		Status:       entity.UserVerified,
	}
	if err := srv.userRepo.Add(ctx, admin); err != nil {
		return errors.Wrap(err, "failed to create admin account")
	}

	srv.log(ctx).Info("Admin account created", slog.String("email", email))

	return nil
}

func (srv *authService) ListUsers(ctx context.Context, actor entity.Actor, role entity.Role) ([]*entity.User, error) {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		users []*entity.User
		err   error
	)
	if role == "" {
		users, err = srv.userRepo.GetAll(ctx)
	} else {
		if !role.IsValid() {
			return nil, validationFailed("unknown role %q", role)
		}
		users, err = srv.userRepo.GetByRole(ctx, role)
	}
	if err != nil {
		return nil, mapRepoError(err, "list users")
	}

	return sanitizeUsers(users), nil
}

func (srv *authService) ListPendingVerification(ctx context.Context, actor entity.Actor) ([]*entity.User, error) {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := srv.userRepo.GetPendingVerification(ctx)
	if err != nil {
		return nil, mapRepoError(err, "list pending users")
	}

	return sanitizeUsers(users), nil
}

func sanitizeUsers(users []*entity.User) []*entity.User {
	out := make([]*entity.User, 0, len(users))
	for _, user := range users {
		out = append(out, sanitizeUser(user))
	}

	return out
}

func (srv *authService) SetUserStatus(ctx context.Context, actor entity.Actor, userID string, status entity.UserStatus) (*entity.User, error) {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, validationFailed("unknown status %q", status)
	}

	user, err := srv.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err, "find user")
	}
	if user.Status == status {
		return sanitizeUser(user), nil
	}

	user.Status = status
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, mapRepoError(err, "update user status")
	}

	srv.log(ctx).Info("User status changed",
		slog.String("userID", userID),
		slog.String("status", string(status)),
		slog.String("adminID", actor.UserID))

	return sanitizeUser(user), nil
}

func (srv *authService) RemoveUser(ctx context.Context, actor entity.Actor, userID string) error {
	if err := requireRole(actor, entity.RoleAdmin); err != nil {
		return err
	}
	if userID == actor.UserID {
		return domainerrors.ErrForbidden.WithDetails("admins cannot remove their own account")
	}

	if err := srv.userRepo.Delete(ctx, userID); err != nil {
		return mapRepoError(err, "remove user")
	}

	srv.log(ctx).Info("User removed", slog.String("userID", userID), slog.String("adminID", actor.UserID))

	return nil
}
