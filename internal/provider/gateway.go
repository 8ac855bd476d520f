// Package provider wraps the external identity provider behind a narrow
// contract: identity creation, credential verification, session teardown and
// session-state observation. Credential storage, hashing and token refresh
// live on the provider side; this layer never sees them.
package provider

import (
	"context"

	"crewbase.org/internal/identity"
)

// Event is a session-state transition reported by the provider. Identity is
// nil when no session is active. Seq increases monotonically per gateway so
// consumers can discard stale in-flight resolutions.
type Event struct {
	Identity *identity.Identity
	Seq      uint64
}

// Gateway is the identity provider contract. Implementations guarantee
// at-most-one active session per gateway and deliver the current state to a
// new subscriber immediately, then every subsequent transition.
type Gateway interface {
	// CreateIdentity registers a new identity and signs it in. Fails with a
	// ProviderError on malformed email, weak password or duplicate account.
	CreateIdentity(ctx context.Context, email, password string) (identity.Identity, error)

	// VerifyIdentity checks credentials and signs the identity in. Fails
	// with a ProviderError on invalid credentials or unknown account.
	VerifyIdentity(ctx context.Context, email, password string) (identity.Identity, error)

	// DestroySession tears down the active session. Idempotent: destroying
	// an absent session succeeds. Fails only on transport errors.
	DestroySession(ctx context.Context) error

	// SubscribeSessionState returns a channel of session transitions. The
	// channel is closed when ctx ends; cancelling ctx is the only way to
	// unsubscribe.
	SubscribeSessionState(ctx context.Context) <-chan Event
}
