package entity

import "slices"

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	UserID string
	Name   string
	Role   Role
}

// Is reports whether the actor holds one of the given roles.
func (a Actor) Is(roles ...Role) bool {
	return slices.Contains(roles, a.Role)
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
