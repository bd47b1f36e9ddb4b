// Package postgres provides the Postgres-backed user directory.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/idpguard/internal/domain/auth"
	"github.com/target/idpguard/internal/ports"
)

// ErrUserNotFound is returned when no user row matches.
var ErrUserNotFound = fmt.Errorf("user %w", ports.ErrNotFound)

var _ ports.UserDirectory = (*UserRepo)(nil)

// UserRepo reads and records local accounts in the users table.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// GetByID loads a user. Malformed ids are reported as not found.
func (r *UserRepo) GetByID(ctx context.Context, id string) (domainauth.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domainauth.User{}, ErrUserNotFound
	}

	var (
		u         domainauth.User
		lastLogin sql.NullTime
	)
	err = r.DB.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, last_login
		FROM users WHERE id = $1`, uid,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainauth.User{}, ErrUserNotFound
		}
		return domainauth.User{}, fmt.Errorf("select user: %w", err)
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return u, nil
}

// RecordLogin upserts the user keyed by (backend, subject) and stamps last_login.
func (r *UserRepo) RecordLogin(
	ctx context.Context,
	backend string,
	identity domainauth.Identity,
	at time.Time,
) (domainauth.User, error) {
	if backend == "" || identity.Subject == "" {
		return domainauth.User{}, errors.New("backend and subject are required")
	}

	var u domainauth.User
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, backend, subject, email, first_name, last_name, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (backend, subject) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			last_login = EXCLUDED.last_login
		RETURNING id, email, first_name, last_name, last_login`,
		uuid.New(), backend, identity.Subject, identity.Email,
		identity.FirstName, identity.LastName, at.UTC(),
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.LastLogin)
	if err != nil {
		return domainauth.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}
