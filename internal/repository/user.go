package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/finance-ledger/internal/domain"
)

const userColumns = `id, email, name, password_hash, created_at`

// UserRepository stores account owners. Authentication lives elsewhere;
// owners only need to exist so accounts can reference them.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure returns the owner registered under email, creating it when absent.
// An existing owner keeps its id and name; a non-empty passwordHash replaces
// the stored one.
func (r *UserRepository) Ensure(ctx context.Context, email, name, passwordHash string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, lower($2), $3, $4)
		ON CONFLICT (email) DO UPDATE SET password_hash =
			CASE WHEN EXCLUDED.password_hash <> '' THEN EXCLUDED.password_hash ELSE users.password_hash END
		RETURNING `+userColumns,
		uuid.New(), email, name, passwordHash,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("Ensure: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "GetByID", `WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "GetByEmail", `WHERE email = lower($1)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, op, where string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
