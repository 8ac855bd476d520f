// Package account implements the user-facing identity flows: signup for each
// role, login and logout. All provider and store failures are converted to
// the uniform result shape at this boundary; nothing propagates as an
// uncaught error.
package account

import (
	"context"
	"errors"
	"time"

	"crewbase.org/internal/audit"
	"crewbase.org/internal/identity"
	"crewbase.org/internal/obs"
	"crewbase.org/internal/profile"
	"crewbase.org/internal/provider"
)

// SignupResult is the outcome of a signup flow.
type SignupResult struct {
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
	Identity identity.Identity `json:"identity,omitempty"`
}

// LoginResult is the outcome of a login flow.
type LoginResult struct {
	Success  bool               `json:"success"`
	Error    string             `json:"error,omitempty"`
	Identity *identity.Resolved `json:"identity,omitempty"`
}

// LogoutResult is the outcome of a logout flow.
type LogoutResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Service orchestrates the identity provider and the profile store.
type Service struct {
	gateway  provider.Gateway
	profiles profile.Store
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the flow service.
func NewService(gateway provider.Gateway, profiles profile.Store, opts ...Option) *Service {
	s := &Service{gateway: gateway, profiles: profiles, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AdminSignup registers a new identity tagged with the admin role.
func (s *Service) AdminSignup(ctx context.Context, name, email, password string) SignupResult {
	return s.signup(ctx, identity.RoleAdmin, name, email, password)
}

// VolunteerSignup registers a new identity tagged with the volunteer role.
func (s *Service) VolunteerSignup(ctx context.Context, name, email, password string) SignupResult {
	return s.signup(ctx, identity.RoleVolunteer, name, email, password)
}

// signup is the single algorithm behind both entry points; only the role
// literal differs.
func (s *Service) signup(ctx context.Context, role identity.Role, name, email, password string) SignupResult {
	id, err := s.gateway.CreateIdentity(ctx, email, password)
	if err != nil {
		obs.ObserveSignup(role.String(), false)
		return SignupResult{Success: false, Error: err.Error()}
	}

	err = s.profiles.Create(ctx, &identity.Profile{
		ID:        id.ID,
		Name:      name,
		Email:     id.Email,
		Role:      role,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		// The created identity is left orphaned: there is no compensating
		// deletion, and login will refuse it until a profile exists.
		obs.ObserveSignup(role.String(), false)
		_ = audit.LogEvent(ctx, "identity.signup.orphaned", map[string]any{
			"identity_id": id.ID,
			"role":        role.String(),
		})
		return SignupResult{Success: false, Error: err.Error()}
	}

	obs.ObserveSignup(role.String(), true)
	_ = audit.LogEvent(ctx, "identity.signup", map[string]any{
		"identity_id": id.ID,
		"role":        role.String(),
	})
	return SignupResult{Success: true, Identity: id}
}

// Login verifies credentials and merges the identity with its profile. An
// authenticated identity without a profile is signed out again rather than
// left in a provider-authenticated-but-unprofiled state.
func (s *Service) Login(ctx context.Context, email, password string) LoginResult {
	id, err := s.gateway.VerifyIdentity(ctx, email, password)
	if err != nil {
		obs.ObserveLogin(false)
		return LoginResult{Success: false, Error: err.Error()}
	}

	p, err := s.profiles.Get(ctx, id.ID)
	if err != nil {
		obs.ObserveLogin(false)
		if errors.Is(err, identity.ErrProfileNotFound) {
			_ = s.gateway.DestroySession(ctx)
			_ = audit.LogEvent(ctx, "identity.login.unprofiled", map[string]any{
				"identity_id": id.ID,
			})
			return LoginResult{Success: false, Error: "profile not found"}
		}
		return LoginResult{Success: false, Error: err.Error()}
	}

	res := identity.Merge(id, p)
	obs.ObserveLogin(true)
	_ = audit.LogEvent(ctx, "identity.login", map[string]any{
		"identity_id": res.ID,
		"role":        res.Role.String(),
	})
	return LoginResult{Success: true, Identity: res}
}

// Logout tears down the active session. It only fails when the provider call
// itself fails with a transport error.
func (s *Service) Logout(ctx context.Context) LogoutResult {
	if err := s.gateway.DestroySession(ctx); err != nil {
		return LogoutResult{Success: false, Error: err.Error()}
	}
	_ = audit.LogEvent(ctx, "identity.logout", nil)
	return LogoutResult{Success: true}
}
