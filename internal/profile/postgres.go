package profile

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"crewbase.org/internal/identity"
)

var _ Store = (*Postgres)(nil)

// Postgres implements Store on top of PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, p *identity.Profile) error {
	if p == nil || strings.TrimSpace(p.ID) == "" {
		return &identity.StoreError{Op: "create", Err: identity.ErrInvalidInput}
	}
	res, err := s.db.ExecContext(ctx,
		`insert into profiles(id, name, email, role, created_at)
		 values($1,$2,$3,$4,$5)
		 on conflict (id) do nothing`,
		p.ID, p.Name, p.Email, p.Role.String(), p.CreatedAt,
	)
	if err != nil {
		return &identity.StoreError{Op: "create", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &identity.StoreError{Op: "create", Err: err}
	}
	if affected == 0 {
		return &identity.StoreError{Op: "create", Err: errors.New("profile already exists")}
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id string) (*identity.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, email, role, created_at from profiles where id=$1`, id)
	var (
		p       identity.Profile
		rawRole string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &rawRole, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrProfileNotFound
		}
		return nil, &identity.StoreError{Op: "get", Err: err}
	}
	role, err := identity.ParseRole(rawRole)
	if err != nil {
		return nil, &identity.StoreError{Op: "get", Err: err}
	}
	p.Role = role
	return &p, nil
}
