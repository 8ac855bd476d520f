// Package route maps roles to their canonical destinations. All functions are
// pure; navigation itself is performed by the caller's Navigator.
package route

import "crewbase.org/internal/identity"

const (
	Root               = "/"
	AdminDashboard     = "/admin/dashboard"
	VolunteerDashboard = "/volunteer/dashboard"
	AdminLogin         = "/admin/login"
	VolunteerLogin     = "/volunteer/login"
)

// LandingPage returns the post-login destination for a role. Anything outside
// the closed role set falls back to the application root.
func LandingPage(role identity.Role) string {
	switch role {
	case identity.RoleAdmin:
		return AdminDashboard
	case identity.RoleVolunteer:
		return VolunteerDashboard
	default:
		return Root
	}
}

// LoginPage returns the login destination for the area guarded by role.
// The volunteer login is the default when no specific role is required.
func LoginPage(role identity.Role) string {
	if role == identity.RoleAdmin {
		return AdminLogin
	}
	return VolunteerLogin
}
