package identity

import "time"

// Identity is the account record asserted by the external identity
// provider. It is owned by the provider and never mutated here.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile is the application-level metadata linked 1:1 to an Identity.
// It is created exactly once at signup and never updated or deleted.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Resolved is the transient merge of an Identity with its Profile. It is
// never persisted and is reconstructed on every session-state transition.
// A Resolved value only exists when a Profile was found for the identity.
type Resolved struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Merge joins a provider identity with its stored profile.
func Merge(id Identity, p *Profile) *Resolved {
	return &Resolved{
		ID:    id.ID,
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
	}
}
