package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"crewbase.org/internal/identity"
)

func TestPostgresCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("insert into profiles").
		WithArgs("u1", "Dana", "dana@example.com", "volunteer", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgres(db)
	err = store.Create(context.Background(), &identity.Profile{
		ID:        "u1",
		Name:      "Dana",
		Email:     "dana@example.com",
		Role:      identity.RoleVolunteer,
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresCreateRefusesOverwrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into profiles").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPostgres(db)
	err = store.Create(context.Background(), &identity.Profile{
		ID:        "u1",
		Name:      "Dana",
		Email:     "dana@example.com",
		Role:      identity.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	})
	var se *identity.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError for duplicate id, got %v", err)
	}
}

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at"}).
		AddRow("u1", "Dana", "dana@example.com", "admin", created)
	mock.ExpectQuery("select id, name, email, role, created_at from profiles").
		WithArgs("u1").
		WillReturnRows(rows)

	store := NewPostgres(db)
	p, err := store.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Role != identity.RoleAdmin || p.Name != "Dana" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if !p.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at: %v", p.CreatedAt)
	}
}

func TestPostgresGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, name, email, role, created_at from profiles").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at"}))

	store := NewPostgres(db)
	_, err = store.Get(context.Background(), "missing")
	if !errors.Is(err, identity.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestPostgresGetRejectsUnknownRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at"}).
		AddRow("u1", "Dana", "dana@example.com", "superuser", time.Now().UTC())
	mock.ExpectQuery("select id, name, email, role, created_at from profiles").
		WithArgs("u1").
		WillReturnRows(rows)

	store := NewPostgres(db)
	_, err = store.Get(context.Background(), "u1")
	var se *identity.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError for unknown role, got %v", err)
	}
}
