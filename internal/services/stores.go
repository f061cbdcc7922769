package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"go.uber.org/zap"
)

// StoreOptions selects and locates the persistence backend
type StoreOptions struct {
	Driver        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// Stores bundles the pass and session stores of one backend
type Stores struct {
	OTP      domain.OTPStore
	Sessions domain.SessionStore

	memory *OTPService
	closer func(context.Context) error
}

// OpenStores connects to the configured backend and prepares its schema
func OpenStores(ctx context.Context, opts StoreOptions) (*Stores, error) {
	switch opts.Driver {
	case domain.StoreMemory, "":
		otp := NewOTPService()
		return &Stores{
			OTP:      otp,
			Sessions: NewSessionService(),
			memory:   otp,
			closer:   func(context.Context) error { return nil },
		}, nil

	case domain.StorePostgres:
		db, err := NewDatabaseService(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		otp := NewPostgresOTPStore(db)
		sessions := NewPostgresSessionStore(db)
		if err := errors.Join(otp.EnsureSchema(ctx), sessions.EnsureSchema(ctx)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
		return &Stores{
			OTP:      otp,
			Sessions: sessions,
			closer:   func(context.Context) error { return db.Close() },
		}, nil

	case domain.StoreMongo:
		m, err := NewMongoService(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		otp := NewMongoOTPStore(m.Collection(otpCollection))
		if err := otp.EnsureIndexes(ctx); err != nil {
			_ = m.Close(context.Background())
			return nil, fmt.Errorf("failed to prepare indexes: %w", err)
		}
		return &Stores{
			OTP:      otp,
			Sessions: NewMongoSessionStore(m.Collection(sessionCollection)),
			closer:   m.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
}

// RunCleanup drops expired passes every interval until ctx is done
func (s *Stores) RunCleanup(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if s.memory != nil {
		s.memory.Run(ctx, interval)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.OTP.Cleanup(ctx)
			if err != nil {
				logger.Warn("Failed to clean up passes", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Debug("Expired passes removed", zap.Int("count", removed))
			}
		}
	}
}

func (s *Stores) Close(ctx context.Context) error {
	return s.closer(ctx)
}
