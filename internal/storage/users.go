package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/models"
)

// CreateUser inserts a new account. A taken email yields ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	u := models.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, u.ID, u.Email, u.PasswordHash).Scan(&u.CreatedAt)
	if err != nil {
		return models.User{}, pgErr("inserting user", err)
	}
	return u, nil
}

// GetUserByEmail finds an account by its normalized email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return models.User{}, pgErr("querying user by email", err)
	}
	return u, nil
}

// GetUser finds an account by ID.
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var u models.User
	err := db.Pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`,
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return models.User{}, pgErr("querying user", err)
	}
	return u, nil
}
