// Package guard decides whether a page is reachable by the current resolved
// identity. Denials are silent redirects, never errors.
package guard

import (
	"crewbase.org/internal/identity"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/route"
)

// Decision is the outcome of an access check. RedirectTarget is set exactly
// when Allow is false.
type Decision struct {
	Allow          bool
	RedirectTarget string
}

// Navigator performs a full page transition to a destination, terminating
// any in-flight observers on the current page context.
type Navigator interface {
	Navigate(target string)
}

// Requirement is the role a page demands. A nil requirement means any
// authenticated identity may proceed.
type Requirement struct {
	role *identity.Role
}

// RequireRole demands the given role.
func RequireRole(role identity.Role) Requirement {
	return Requirement{role: &role}
}

// RequireAuthenticated demands any signed-in identity.
func RequireAuthenticated() Requirement {
	return Requirement{}
}

// Role returns the required role and whether one is set.
func (r Requirement) Role() (identity.Role, bool) {
	if r.role == nil {
		return "", false
	}
	return *r.role, true
}

// Decide maps (requirement, resolved identity) to allow or redirect:
//
//	no identity            -> login page for the required area
//	role matches           -> allow
//	role differs           -> dashboard for the identity's own role
//	no role required       -> allow any identity
func Decide(req Requirement, res *identity.Resolved) Decision {
	required, hasRequired := req.Role()

	if res == nil {
		return Decision{RedirectTarget: route.LoginPage(required)}
	}
	if !hasRequired || res.Role == required {
		return Decision{Allow: true}
	}
	return Decision{RedirectTarget: route.LandingPage(res.Role)}
}

// Protect runs the decision against the current identity and navigates away
// when access is denied. Returns true when the page may proceed.
func Protect(req Requirement, res *identity.Resolved, nav Navigator) bool {
	decision := Decide(req, res)
	if decision.Allow {
		return true
	}
	obs.ObserveGuardRedirect()
	nav.Navigate(decision.RedirectTarget)
	return false
}
