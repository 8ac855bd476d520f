package profile

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"crewbase.org/internal/identity"
)

const redisKeyPrefix = "crewbase:profile:"

var _ Store = (*Redis)(nil)

// Redis implements Store as JSON documents in Redis. SetNX guarantees a
// profile is never overwritten once written.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *Redis) Create(ctx context.Context, p *identity.Profile) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return &identity.StoreError{Op: "create", Err: identity.ErrInvalidInput}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return &identity.StoreError{Op: "create", Err: err}
	}
	// Profiles have no expiry: the record lives as long as the identity.
	ok, err := s.client.SetNX(ctx, redisKey(p.ID), data, 0).Result()
	if err != nil {
		return &identity.StoreError{Op: "create", Err: err}
	}
	if !ok {
		return &identity.StoreError{Op: "create", Err: errors.New("profile already exists")}
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, id string) (*identity.Profile, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, identity.ErrProfileNotFound
		}
		return nil, &identity.StoreError{Op: "get", Err: err}
	}
	var p identity.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &identity.StoreError{Op: "get", Err: err}
	}
	if !p.Role.Valid() {
		return nil, &identity.StoreError{Op: "get", Err: errors.New("corrupt profile record")}
	}
	return &p, nil
}
