/**
 * @description
 * This file implements the data access layer for the user-management routes.
 * The relational `users` table is a plain username/email record with no
 * relation to the directory-service account documents; it backs the CRUD
 * surface only.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver and connection pool manager.
 *
 * @notes
 * - This implementation follows the repository pattern, separating data
 *   access concerns from the HTTP handlers in the `api` layer.
 */
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutraflex/webhook-service/internal/domain"
)

// UserRepository defines the storage operations behind the user-management
// routes.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, username, email string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, username, email *string) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	CreateAdminUser(ctx context.Context, email, hashedPassword string) (*domain.User, error)
}

// PostgresUserRepository is the PostgreSQL implementation of UserRepository.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new instance of PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// EnsureSchema creates the users table when it does not exist yet. The
// original deployment auto-created its schema at startup; this keeps that
// behavior for fresh environments.
func (r *PostgresUserRepository) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            username TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL DEFAULT '',
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure users schema: %w", err)
	}
	return nil
}

// ListUsers returns every user record.
func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `
        SELECT id, username, email, password, is_admin, is_active, created_at, updated_at
        FROM users
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a plain username/email record.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, username, email string) (*domain.User, error) {
	query := `
        INSERT INTO users (username, email)
        VALUES ($1, $2)
        RETURNING id, username, email, password, is_admin, is_active, created_at, updated_at
    `
	return r.scanUser(r.db.QueryRow(ctx, query, username, email))
}

// GetUser fetches a user by id.
func (r *PostgresUserRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	query := `
        SELECT id, username, email, password, is_admin, is_active, created_at, updated_at
        FROM users WHERE id = $1
    `
	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser applies the provided fields to a user record; nil fields keep
// their current value.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, id int64, username, email *string) (*domain.User, error) {
	query := `
        UPDATE users
        SET username = COALESCE($2, username),
            email = COALESCE($3, email),
            updated_at = NOW()
        WHERE id = $1
        RETURNING id, username, email, password, is_admin, is_active, created_at, updated_at
    `
	user, err := r.scanUser(r.db.QueryRow(ctx, query, id, username, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user record.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CreateAdminUser inserts an active admin record with a pre-hashed password.
// Returns domain.ErrEmailAlreadyExists when the email is taken.
func (r *PostgresUserRepository) CreateAdminUser(ctx context.Context, email, hashedPassword string) (*domain.User, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	query := `
        INSERT INTO users (email, password, is_admin, is_active)
        VALUES ($1, $2, TRUE, TRUE)
        RETURNING id, username, email, password, is_admin, is_active, created_at, updated_at
    `
	return r.scanUser(r.db.QueryRow(ctx, query, email, hashedPassword))
}

func (r *PostgresUserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
