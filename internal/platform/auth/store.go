package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Account struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Create(ctx context.Context, a *Account) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*Account, error) {
	const q = `
SELECT username, password_hash, created_at
FROM accounts
WHERE username = ?
LIMIT 1
`
	var a Account
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&a.Username,
		&a.PasswordHash,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO accounts (username, password_hash, created_at)
VALUES (?, ?, NOW(6))
`
	_, err := s.db.ExecContext(ctx, q, a.Username, a.PasswordHash)
	return err
}
