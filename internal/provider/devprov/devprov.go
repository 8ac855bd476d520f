// Package devprov is an in-process identity provider used in development and
// tests. It mimics the contract of the hosted provider: bcrypt-hashed
// credentials, at-most-one active session, signed ID tokens and session-state
// fan-out.
package devprov

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"crewbase.org/internal/identity"
	"crewbase.org/internal/ids"
	"crewbase.org/internal/provider"
)

const (
	issuer            = "crewbase-dev"
	minPasswordLength = 8
	idTokenTTL        = time.Hour
)

type account struct {
	id           string
	email        string
	passwordHash string
}

// Provider implements provider.Gateway in-process.
type Provider struct {
	hub *provider.Hub

	mu        sync.Mutex
	byEmail   map[string]*account
	session   *identity.Identity
	sessionID string

	secret []byte
	now    func() time.Time
}

var _ provider.Gateway = (*Provider)(nil)

// Option configures the Provider.
type Option func(*Provider)

// WithClock overrides the time source, for tests.
func WithClock(fn func() time.Time) Option {
	return func(p *Provider) {
		if fn != nil {
			p.now = fn
		}
	}
}

// New constructs a dev provider signing ID tokens with secret.
func New(secret string, opts ...Option) *Provider {
	p := &Provider{
		hub:     provider.NewHub(),
		byEmail: make(map[string]*account),
		secret:  []byte(secret),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) CreateIdentity(ctx context.Context, email, password string) (identity.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return identity.Identity{}, identity.NewProviderError(identity.ProviderMalformedEmail, "the email address is badly formatted")
	}
	if len(password) < minPasswordLength {
		return identity.Identity{}, identity.NewProviderError(identity.ProviderWeakPassword, "password should be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.Identity{}, identity.NewProviderError(identity.ProviderTransport, err.Error())
	}

	p.mu.Lock()
	if _, exists := p.byEmail[email]; exists {
		p.mu.Unlock()
		return identity.Identity{}, identity.NewProviderError(identity.ProviderDuplicateAccount, "the email address is already in use by another account")
	}
	acc := &account{id: ids.New(), email: email, passwordHash: string(hash)}
	p.byEmail[email] = acc
	id := identity.Identity{ID: acc.id, Email: acc.email}
	p.session = &id
	p.sessionID = uuid.NewString()
	p.mu.Unlock()

	// Creating an identity signs it in, like the hosted provider does.
	p.hub.Publish(&id)
	return id, nil
}

func (p *Provider) VerifyIdentity(ctx context.Context, email, password string) (identity.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	p.mu.Lock()
	acc, ok := p.byEmail[email]
	p.mu.Unlock()
	if !ok {
		return identity.Identity{}, identity.NewProviderError(identity.ProviderUnknownAccount, "there is no account record corresponding to this email")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(password)); err != nil {
		return identity.Identity{}, identity.NewProviderError(identity.ProviderInvalidCredentials, "the password is invalid")
	}

	id := identity.Identity{ID: acc.id, Email: acc.email}
	p.mu.Lock()
	p.session = &id
	p.sessionID = uuid.NewString()
	p.mu.Unlock()

	p.hub.Publish(&id)
	return id, nil
}

func (p *Provider) DestroySession(ctx context.Context) error {
	p.mu.Lock()
	active := p.session != nil
	p.session = nil
	p.sessionID = ""
	p.mu.Unlock()

	// Destroying an absent session is a no-op, not an error.
	if active {
		p.hub.Publish(nil)
	}
	return nil
}

func (p *Provider) SubscribeSessionState(ctx context.Context) <-chan provider.Event {
	return p.hub.Subscribe(ctx)
}

// SessionToken mints a signed ID token for the active session, or an empty
// string when signed out. The token carries the provider session id so a
// later sign-in invalidates cookies from the previous session.
func (p *Provider) SessionToken() (string, error) {
	p.mu.Lock()
	session := p.session
	sessionID := p.sessionID
	p.mu.Unlock()
	if session == nil {
		return "", nil
	}

	now := p.now().UTC()
	claims := jwt.MapClaims{
		"iss":   issuer,
		"sub":   session.ID,
		"email": session.Email,
		"sid":   sessionID,
		"iat":   now.Unix(),
		"exp":   now.Add(idTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// VerifySessionToken validates an ID token minted by SessionToken and returns
// the identity it asserts. Used by transport layers to vet session cookies.
func (p *Provider) VerifySessionToken(raw string) (identity.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return identity.Identity{}, errors.New("empty token")
	}
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired(), jwt.WithTimeFunc(p.now))
	if err != nil {
		return identity.Identity{}, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return identity.Identity{}, errors.New("invalid token")
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return identity.Identity{}, errors.New("subject missing")
	}
	return identity.Identity{ID: sub, Email: email}, nil
}
