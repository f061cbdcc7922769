package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
)

var _ domain.SessionStore = (*PostgresSessionStore)(nil)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS line_sessions (
	user_id      TEXT        PRIMARY KEY,
	access_token TEXT        NOT NULL,
	username     TEXT        NOT NULL DEFAULT '',
	expires_at   TIMESTAMPTZ NOT NULL
);
`

type PostgresSessionStore struct {
	db domain.DatabaseService
}

func NewPostgresSessionStore(db domain.DatabaseService) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, sessionSchema); err != nil {
		return fmt.Errorf("failed to create session schema: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	row, err := s.db.QueryRow(ctx,
		`SELECT user_id, access_token, username, expires_at FROM line_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := row.Scan(&session.UserID, &session.AccessToken, &session.Username, &session.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return &session, nil
}

func (s *PostgresSessionStore) Save(ctx context.Context, session domain.Session) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO line_sessions (user_id, access_token, username, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
			SET access_token = EXCLUDED.access_token,
			    username = EXCLUDED.username,
			    expires_at = EXCLUDED.expires_at`,
		session.UserID, session.AccessToken, session.Username, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM line_sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
