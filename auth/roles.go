package auth

import "strings"

// Role is a user role as understood by the dashboards.
type Role string

const (
	RoleStudent Role = "estudiante"
	RoleTeacher Role = "docente"
	// RoleAdmin is the normalized form; the backend spells it "administrador".
	RoleAdmin Role = "admin"

	backendAdminRole = "administrador"
)

// NormalizeRole maps the backend spelling of a role onto the dashboard one.
// Only "administrador" changes; anything else is kept as sent.
func NormalizeRole(rol string) Role {
	rol = strings.TrimSpace(rol)
	if rol == backendAdminRole {
		return RoleAdmin
	}
	return Role(rol)
}

// BackendRole returns the spelling the backend expects when a role is sent back to it.
func (r Role) BackendRole() string {
	if r == RoleAdmin {
		return backendAdminRole
	}
	return string(r)
}

// DashboardPath is where a user with this role lands after logging in.
func (r Role) DashboardPath() string {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return "/dashboard/" + string(r)
	default:
		return "/"
	}
}
