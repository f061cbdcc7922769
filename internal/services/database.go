package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ domain.DatabaseService = (*DatabaseService)(nil)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

var errNoDatabaseURL = errors.New("database url is empty")

// DatabaseService is the pgx-backed pool shared by the Postgres stores
type DatabaseService struct {
	db *sql.DB
}

func NewDatabaseService(ctx context.Context, databaseURL string) (*DatabaseService, error) {
	if databaseURL == "" {
		return nil, errNoDatabaseURL
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseService{db: db}, nil
}

func (d *DatabaseService) QueryRow(ctx context.Context, query string, args ...interface{}) (*sql.Row, error) {
	return d.db.QueryRowContext(ctx, query, args...), nil
}

func (d *DatabaseService) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return d.db.ExecContext(ctx, query, args...)
}

func (d *DatabaseService) Close() error {
	return d.db.Close()
}
