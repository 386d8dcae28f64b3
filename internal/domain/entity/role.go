// Package entity contains the core business objects of the project.
package entity

// Role is the single role a user acts under. It decides which donation
// transitions and which dashboard the user sees.
type Role string

const (
	RoleDonor  Role = "donor"
	RoleNGO    Role = "ngo"
	RoleDriver Role = "driver"
	RoleBiogas Role = "biogas"
	RoleAdmin  Role = "admin"
)

//nolint:gochecknoglobals
var roleLabels = map[Role]string{
	RoleDonor:  "Donor",
	RoleNGO:    "NGO",
	RoleDriver: "Driver",
	RoleBiogas: "Biogas plant",
	RoleAdmin:  "Administrator",
}

func (r Role) String() string {
	return string(r)
}

// Label is the human name used in notifications and mail.
func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}

	return string(r)
}

func (r Role) IsValid() bool {
	_, ok := roleLabels[r]

	return ok
}

// IsSignupRole reports whether the role may be chosen at signup. Admins are
// only created from configuration.
func (r Role) IsSignupRole() bool {
	return r.IsValid() && r != RoleAdmin
}

// SignupRoles lists the roles offered on the signup form, in display order.
func SignupRoles() []Role {
	return []Role{RoleDonor, RoleNGO, RoleDriver, RoleBiogas}
}
