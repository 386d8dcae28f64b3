// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// UserStatus is the admin verification state of an account.
type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserVerified UserStatus = "verified"
	UserRejected UserStatus = "rejected"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserPending, UserVerified, UserRejected:
		return true
	default:
		return false
	}
}

// User is a registered account. The role is fixed at signup.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"passwordHash,omitempty"`
	Organization string     `json:"organization,omitempty"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Version      int64      `json:"version"`
}

// Actor returns the identity the user acts with.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Name: u.Name, Role: u.Role}
}

// DisplayOrganization falls back to the role-based default organization.
func (u *User) DisplayOrganization() string {
	if u.Organization != "" {
		return u.Organization
	}

	return DefaultOrganization(u.Name, u.Role)
}

// DefaultOrganization names the organization of NGO and biogas accounts
// that did not provide one.
func DefaultOrganization(name string, role Role) string {
	switch role {
	case RoleNGO:
		return name + " NGO"
	case RoleBiogas:
		return name + " Biogas Plant"
	default:
		return ""
	}
}
