package usecase

import (
	"context"
	"time"

	"foodbridge/internal/domain/entity"
)

// SignupInput is the data needed to open an account.
type SignupInput struct {
	Name         string `json:"name" form:"name" validate:"required,min=2" msg:"Name must be at least 2 characters"`
	Email        string `json:"email" form:"email" validate:"required,email" msg:"Please enter a valid email address"`
	Password     string `json:"password" form:"password" validate:"required,min=8" msg:"Password must be at least 8 characters"`
	Role         string `json:"role" form:"role" validate:"required,oneof=donor ngo driver biogas" msg:"Please select a valid role"`
	Organization string `json:"organization" form:"organization"`
}

// LoginInput is the data needed to sign in.
type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email" msg:"Please enter a valid email address"`
	Password string `json:"password" form:"password" validate:"required,min=8" msg:"Password must be at least 8 characters"`
}

// Session is what a successful signup or login hands to the client.
type Session struct {
	User        *entity.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}

// AuthUsecase handles accounts and their sessions.
type AuthUsecase interface {
	Signup(ctx context.Context, input *SignupInput) (*Session, error)

	Login(ctx context.Context, input *LoginInput) (*Session, error)

	// Authenticate resolves an access token to the actor it was issued for.
	Authenticate(ctx context.Context, token string) (entity.Actor, error)

	GetUser(ctx context.Context, userID string) (*entity.User, error)

	// EnsureAdmin creates the configured admin account when it is missing.
	EnsureAdmin(ctx context.Context) error
}

// AdminUsecase is the admin's view over accounts.
type AdminUsecase interface {
	ListUsers(ctx context.Context, actor entity.Actor, role entity.Role) ([]*entity.User, error)

	ListPendingVerification(ctx context.Context, actor entity.Actor) ([]*entity.User, error)

	SetUserStatus(ctx context.Context, actor entity.Actor, userID string, status entity.UserStatus) (*entity.User, error)

	RemoveUser(ctx context.Context, actor entity.Actor, userID string) error
}
