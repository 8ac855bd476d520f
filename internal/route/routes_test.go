package route

import (
	"testing"

	"crewbase.org/internal/identity"
)

func TestLandingPage(t *testing.T) {
	cases := []struct {
		role identity.Role
		want string
	}{
		{identity.RoleAdmin, AdminDashboard},
		{identity.RoleVolunteer, VolunteerDashboard},
		{identity.Role("operator"), Root},
		{identity.Role(""), Root},
	}
	for _, tc := range cases {
		if got := LandingPage(tc.role); got != tc.want {
			t.Fatalf("LandingPage(%q)=%q, want %q", tc.role, got, tc.want)
		}
	}
}

func TestLoginPage(t *testing.T) {
	if got := LoginPage(identity.RoleAdmin); got != AdminLogin {
		t.Fatalf("admin login page: %q", got)
	}
	if got := LoginPage(identity.RoleVolunteer); got != VolunteerLogin {
		t.Fatalf("volunteer login page: %q", got)
	}
	if got := LoginPage(identity.Role("")); got != VolunteerLogin {
		t.Fatalf("default login page: %q", got)
	}
}
