// Package profile persists the application-level role record keyed by
// identity id. Records are written exactly once at signup and never updated
// or deleted afterwards.
package profile

import (
	"context"

	"crewbase.org/internal/identity"
)

// Store describes the key-value document interface addressed by identity id.
// There is no transactional coupling with the identity provider.
type Store interface {
	// Create persists a new profile. It must not silently overwrite an
	// existing record; a duplicate id is reported as a StoreError.
	Create(ctx context.Context, p *identity.Profile) error

	// Get returns the profile for the identity id, or
	// identity.ErrProfileNotFound when no record exists. Transport and read
	// failures are reported as StoreError.
	Get(ctx context.Context, id string) (*identity.Profile, error)
}
