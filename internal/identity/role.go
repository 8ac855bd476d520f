package identity

import (
	"fmt"
	"strings"
)

// Role is the application-level role attached to a profile. The set is
// closed: there are exactly two roles and no free-form values.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleVolunteer Role = "volunteer"
)

// ParseRole normalizes raw input into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleVolunteer:
		return RoleVolunteer, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleVolunteer
}

func (r Role) String() string { return string(r) }
