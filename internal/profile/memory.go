package profile

import (
	"context"
	"errors"
	"strings"
	"sync"

	"crewbase.org/internal/identity"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store used in tests and local development.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]identity.Profile

	// FailCreate and FailGet, when set, simulate transport failures.
	FailCreate error
	FailGet    error
}

func NewMemory() *Memory {
	return &Memory{profiles: make(map[string]identity.Profile)}
}

func (s *Memory) Create(ctx context.Context, p *identity.Profile) error {
	if s.FailCreate != nil {
		return &identity.StoreError{Op: "create", Err: s.FailCreate}
	}
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return &identity.StoreError{Op: "create", Err: identity.ErrInvalidInput}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.ID]; exists {
		return &identity.StoreError{Op: "create", Err: errors.New("profile already exists")}
	}
	s.profiles[p.ID] = *p
	return nil
}

func (s *Memory) Get(ctx context.Context, id string) (*identity.Profile, error) {
	if s.FailGet != nil {
		return nil, &identity.StoreError{Op: "get", Err: s.FailGet}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	copied := p
	return &copied, nil
}
