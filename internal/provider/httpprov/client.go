// Package httpprov is the REST client for the hosted identity provider. It
// adapts the provider's signup/session endpoints to the provider.Gateway
// contract and verifies the ID tokens the provider returns.
package httpprov

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"crewbase.org/internal/identity"
	"crewbase.org/internal/provider"
)

const defaultTimeout = 10 * time.Second

// Client wraps the provider's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	secret  []byte
	issuer  string
	hub     *provider.Hub

	mu      sync.Mutex
	idToken string
}

var _ provider.Gateway = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithIssuer overrides the expected ID token issuer claim.
func WithIssuer(issuer string) Option {
	return func(c *Client) { c.issuer = strings.TrimSpace(issuer) }
}

// New creates a client for the provider at baseURL. secret is the shared
// HMAC key the provider signs ID tokens with.
func New(baseURL, secret string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("httpprov: base URL is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("httpprov: token secret is required")
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		secret:  []byte(secret),
		issuer:  "crewbase-idp",
		hub:     provider.NewHub(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionResponse struct {
	IDToken string `json:"id_token"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) CreateIdentity(ctx context.Context, email, password string) (identity.Identity, error) {
	var resp sessionResponse
	err := c.postJSON(ctx, "/v1/identities", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return identity.Identity{}, err
	}
	id, err := c.verifyIDToken(resp.IDToken)
	if err != nil {
		return identity.Identity{}, identity.NewProviderError(identity.ProviderTransport, fmt.Sprintf("invalid id token: %v", err))
	}
	c.setSession(resp.IDToken)
	c.hub.Publish(&id)
	return id, nil
}

func (c *Client) VerifyIdentity(ctx context.Context, email, password string) (identity.Identity, error) {
	var resp sessionResponse
	err := c.postJSON(ctx, "/v1/sessions", credentialsRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return identity.Identity{}, err
	}
	id, err := c.verifyIDToken(resp.IDToken)
	if err != nil {
		return identity.Identity{}, identity.NewProviderError(identity.ProviderTransport, fmt.Sprintf("invalid id token: %v", err))
	}
	c.setSession(resp.IDToken)
	c.hub.Publish(&id)
	return id, nil
}

func (c *Client) DestroySession(ctx context.Context) error {
	c.mu.Lock()
	token := c.idToken
	c.mu.Unlock()
	if token == "" {
		// Already signed out; destroy is idempotent.
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/sessions/current", nil)
	if err != nil {
		return identity.NewProviderError(identity.ProviderTransport, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return identity.NewProviderError(identity.ProviderTransport, err.Error())
	}
	defer resp.Body.Close()
	// 401/404 means the provider no longer knows the session; treat as done.
	if resp.StatusCode >= 500 {
		return identity.NewProviderError(identity.ProviderTransport, fmt.Sprintf("provider returned %d", resp.StatusCode))
	}

	c.setSession("")
	c.hub.Publish(nil)
	return nil
}

func (c *Client) SubscribeSessionState(ctx context.Context) <-chan provider.Event {
	return c.hub.Subscribe(ctx)
}

// SessionToken returns the ID token of the active session, or empty when
// signed out.
func (c *Client) SessionToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idToken, nil
}

func (c *Client) setSession(token string) {
	c.mu.Lock()
	c.idToken = token
	c.mu.Unlock()
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return identity.NewProviderError(identity.ProviderTransport, err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return identity.NewProviderError(identity.ProviderTransport, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return identity.NewProviderError(identity.ProviderTransport, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return identity.NewProviderError(identity.ProviderTransport, err.Error())
	}
	if resp.StatusCode >= 400 {
		return decodeProviderError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return identity.NewProviderError(identity.ProviderTransport, err.Error())
	}
	return nil
}

// decodeProviderError maps the provider's error payload onto the local
// taxonomy, passing the provider message through unmodified.
func decodeProviderError(status int, data []byte) error {
	var payload errorResponse
	_ = json.Unmarshal(data, &payload)
	msg := payload.Message
	if msg == "" {
		msg = fmt.Sprintf("provider returned %d", status)
	}
	switch payload.Code {
	case "malformed_email":
		return identity.NewProviderError(identity.ProviderMalformedEmail, msg)
	case "weak_password":
		return identity.NewProviderError(identity.ProviderWeakPassword, msg)
	case "duplicate_account":
		return identity.NewProviderError(identity.ProviderDuplicateAccount, msg)
	case "invalid_credentials":
		return identity.NewProviderError(identity.ProviderInvalidCredentials, msg)
	case "unknown_account":
		return identity.NewProviderError(identity.ProviderUnknownAccount, msg)
	default:
		return identity.NewProviderError(identity.ProviderTransport, msg)
	}
}

func (c *Client) verifyIDToken(raw string) (identity.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return identity.Identity{}, errors.New("empty id token")
	}
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return identity.Identity{}, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return identity.Identity{}, errors.New("invalid id token")
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if strings.TrimSpace(sub) == "" {
		return identity.Identity{}, errors.New("subject missing")
	}
	return identity.Identity{ID: sub, Email: email}, nil
}
