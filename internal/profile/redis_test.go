package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"crewbase.org/internal/identity"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisCreateAndGet(t *testing.T) {
	store := NewRedis(newTestRedis(t))
	ctx := context.Background()

	p := &identity.Profile{
		ID:        "u1",
		Name:      "Dana",
		Email:     "dana@example.com",
		Role:      identity.RoleVolunteer,
		CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Dana" || got.Role != identity.RoleVolunteer {
		t.Fatalf("unexpected profile: %+v", got)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("created_at not preserved: %v", got.CreatedAt)
	}
}

func TestRedisCreateRefusesOverwrite(t *testing.T) {
	store := NewRedis(newTestRedis(t))
	ctx := context.Background()

	p := &identity.Profile{ID: "u1", Name: "Dana", Role: identity.RoleAdmin, CreatedAt: time.Now().UTC()}
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	err := store.Create(ctx, &identity.Profile{ID: "u1", Name: "Evil", Role: identity.RoleVolunteer})
	var se *identity.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError on duplicate create, got %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Dana" || got.Role != identity.RoleAdmin {
		t.Fatalf("original record was overwritten: %+v", got)
	}
}

func TestRedisGetNotFound(t *testing.T) {
	store := NewRedis(newTestRedis(t))
	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, identity.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestRedisGetRejectsCorruptRecord(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	if err := mr.Set(redisKey("u1"), `{"id":"u1","role":"superuser"}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewRedis(client)
	_, err = store.Get(context.Background(), "u1")
	var se *identity.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError for corrupt record, got %v", err)
	}
}
