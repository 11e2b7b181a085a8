package users

import (
	"context"
	"database/sql"
	"errors"

	"techstep-backend/internal/shared/storage/db"
)

const (
	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, username, password_hash, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.getOne(ctx, "id", userID)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, "email", email)
}

func (r *PGRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getOne(ctx, "username", username)
}

func (r *PGRepo) Update(ctx context.Context, user User) error {
	const query = `
UPDATE users
SET email = $2,
    username = $3,
    password_hash = $4,
    is_active = $5,
    updated_at = $6
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.IsActive,
		user.UpdatedAt,
	)
	if err != nil {
		return mapConflict(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// column is one of a fixed set of identifiers, never user input.
func (r *PGRepo) getOne(ctx context.Context, column, value string) (User, error) {
	query := `
SELECT id, email, username, password_hash, is_active, created_at, updated_at
FROM users
WHERE ` + column + ` = $1
LIMIT 1`
	var user User
	err := r.DB.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func mapConflict(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, emailConstraint):
		return ErrEmailTaken
	case db.IsUniqueViolation(err, usernameConstraint):
		return ErrUsernameTaken
	default:
		return err
	}
}

var _ Repo = (*PGRepo)(nil)
