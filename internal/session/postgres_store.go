package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a Store backed by the identity provider's sessions table.
//
// Expected schema:
//
//	CREATE TABLE sessions (
//	    session_token TEXT PRIMARY KEY,
//	    user_id       TEXT NOT NULL,
//	    email         TEXT,
//	    access_token  TEXT NOT NULL,
//	    expires_at    TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL session store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Lookup finds the session for token.
func (s *PostgresStore) Lookup(ctx context.Context, token string) (*Session, error) {
	query := `
		SELECT user_id, COALESCE(email, ''), access_token, expires_at
		FROM sessions
		WHERE session_token = $1
	`

	var sess Session
	err := s.pool.QueryRow(ctx, query, token).Scan(
		&sess.UserID,
		&sess.Email,
		&sess.AccessToken,
		&sess.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if sess.Expired(time.Now()) {
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// Put inserts or replaces a session row.
func (s *PostgresStore) Put(ctx context.Context, token string, sess Session) error {
	query := `
		INSERT INTO sessions (session_token, user_id, email, access_token, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			expires_at = EXCLUDED.expires_at
	`

	if _, err := s.pool.Exec(ctx, query, token, sess.UserID, sess.Email, sess.AccessToken, sess.ExpiresAt); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before now and returns how many were removed.
func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
