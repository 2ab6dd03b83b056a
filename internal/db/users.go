package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUserExists is returned when registration hits the email uniqueness
// constraint.
var ErrUserExists = errors.New("user already exists")

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser inserts a new user and returns its id.
func CreateUser(ctx context.Context, username, email, passwordHash string) (int64, error) {
	if Pool == nil {
		return 0, ErrNoDatabase
	}

	var id int64
	err := Pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, email, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// GetUserByIdentifier looks a user up by email or username,
// case-insensitively.
func GetUserByIdentifier(ctx context.Context, identifier string) (*User, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	var u User
	err := Pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at
		 FROM users
		 WHERE lower(email) = lower($1) OR lower(username) = lower($1)
		 LIMIT 1`,
		identifier,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID fetches a user by primary key, or nil when absent.
func GetUserByID(ctx context.Context, id int64) (*User, error) {
	if Pool == nil {
		return nil, ErrNoDatabase
	}

	var u User
	err := Pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
