package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"go.uber.org/zap"
)

var _ domain.AuthGate = (*AuthService)(nil)

const loginPromptText = "ログインしてください。"

type AuthService struct {
	sessions  domain.SessionStore
	messenger domain.Messenger
	loginURL  string
	logger    *zap.Logger
	now       func() time.Time
}

func NewAuthService(sessions domain.SessionStore, messenger domain.Messenger, cfg domain.ConfigService, logger *zap.Logger) *AuthService {
	return &AuthService{
		sessions:  sessions,
		messenger: messenger,
		loginURL:  cfg.GetAuthLoginURL(),
		logger:    logger,
		now:       time.Now,
	}
}

// Authenticate resolves the stored session of userID. A missing or expired
// session yields domain.ErrUnauthenticated.
func (a *AuthService) Authenticate(ctx context.Context, userID, host string) (*domain.User, error) {
	session, err := a.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Expired(a.now()) {
		a.logger.Debug("Session expired", zap.String("userId", userID), zap.Time("expiresAt", session.ExpiresAt))
		return nil, domain.ErrUnauthenticated
	}

	return &domain.User{
		UserID:      userID,
		Host:        host,
		AccessToken: session.AccessToken,
		Username:    session.Username,
	}, nil
}

// LoginURL points the user at the sign-in page; state carries the LINE user id
func (a *AuthService) LoginURL(userID, host string) string {
	u, err := url.Parse(a.loginURL)
	if err != nil {
		return a.loginURL
	}

	q := u.Query()
	q.Set("state", userID)
	if host != "" {
		q.Set("redirect_uri", "https://"+host+"/signIn")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (a *AuthService) PromptLogin(ctx context.Context, userID, host string) error {
	tmpl, err := ButtonTemplate(loginPromptText, URIButton("Sign In", a.LoginURL(userID, host)))
	if err != nil {
		return err
	}
	return a.messenger.Push(ctx, userID, tmpl)
}
