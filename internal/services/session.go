package services

import (
	"context"
	"sync"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
)

var _ domain.SessionStore = (*SessionService)(nil)

// SessionService keeps sessions in memory; used by the memory store driver and tests
type SessionService struct {
	sessions map[string]domain.Session
	mutex    sync.RWMutex
}

func NewSessionService() *SessionService {
	return &SessionService{sessions: make(map[string]domain.Session)}
}

func (s *SessionService) Get(ctx context.Context, userID string) (*domain.Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

func (s *SessionService) Save(ctx context.Context, session domain.Session) error {
	s.mutex.Lock()
	s.sessions[session.UserID] = session
	s.mutex.Unlock()
	return nil
}

func (s *SessionService) Delete(ctx context.Context, userID string) error {
	s.mutex.Lock()
	delete(s.sessions, userID)
	s.mutex.Unlock()
	return nil
}
