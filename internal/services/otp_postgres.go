package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
)

var _ domain.OTPStore = (*PostgresOTPStore)(nil)

const otpSchema = `
CREATE TABLE IF NOT EXISTS otp_passes (
	owner      TEXT        NOT NULL,
	pass       TEXT        NOT NULL,
	payload    JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner, pass)
);
CREATE INDEX IF NOT EXISTS otp_passes_expires_at_idx ON otp_passes (expires_at);
`

// PostgresOTPStore keeps passes in Postgres. Save relies on the primary key
// for insert-if-absent; an expired row may be overwritten in the same statement.
type PostgresOTPStore struct {
	db  domain.DatabaseService
	now func() time.Time
}

func NewPostgresOTPStore(db domain.DatabaseService) *PostgresOTPStore {
	return &PostgresOTPStore{db: db, now: time.Now}
}

func (s *PostgresOTPStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, otpSchema); err != nil {
		return fmt.Errorf("failed to create otp schema: %w", err)
	}
	return nil
}

func (s *PostgresOTPStore) Save(ctx context.Context, owner, pass string, payload domain.Event, ttl time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	now := s.now()
	res, err := s.db.Exec(ctx, `
		INSERT INTO otp_passes (owner, pass, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner, pass) DO UPDATE
			SET payload = EXCLUDED.payload,
			    created_at = EXCLUDED.created_at,
			    expires_at = EXCLUDED.expires_at
			WHERE otp_passes.expires_at <= $4`,
		owner, pass, body, now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to save pass: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save pass: %w", err)
	}
	if n == 0 {
		return domain.ErrPassConflict
	}
	return nil
}

func (s *PostgresOTPStore) Verify(ctx context.Context, owner, pass string) (*domain.Event, error) {
	return s.scanPayload(ctx,
		`SELECT payload FROM otp_passes WHERE owner = $1 AND pass = $2 AND expires_at > $3`,
		owner, pass, s.now())
}

// Consume deletes the live row and returns its payload in one statement, so
// concurrent callers cannot both receive it.
func (s *PostgresOTPStore) Consume(ctx context.Context, owner, pass string) (*domain.Event, error) {
	return s.scanPayload(ctx,
		`DELETE FROM otp_passes WHERE owner = $1 AND pass = $2 AND expires_at > $3 RETURNING payload`,
		owner, pass, s.now())
}

func (s *PostgresOTPStore) scanPayload(ctx context.Context, query string, args ...interface{}) (*domain.Event, error) {
	row, err := s.db.QueryRow(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pass: %w", err)
	}

	var payload domain.Event
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("stored payload: %w", err)
	}
	return &payload, nil
}

func (s *PostgresOTPStore) Cleanup(ctx context.Context) (int, error) {
	res, err := s.db.Exec(ctx, `DELETE FROM otp_passes WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup passes: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *PostgresOTPStore) Active(ctx context.Context) (int, error) {
	row, err := s.db.QueryRow(ctx, `SELECT count(*) FROM otp_passes WHERE expires_at > $1`, s.now())
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count passes: %w", err)
	}
	return n, nil
}
