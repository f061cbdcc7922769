package mocks

import (
	"context"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/stretchr/testify/mock"
)

type AuthGate struct {
	mock.Mock
}

func (m *AuthGate) Authenticate(ctx context.Context, userID, host string) (*domain.User, error) {
	args := m.Called(ctx, userID, host)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *AuthGate) PromptLogin(ctx context.Context, userID, host string) error {
	args := m.Called(ctx, userID, host)
	return args.Error(0)
}

type PassGenerator struct {
	mock.Mock
}

func (m *PassGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
