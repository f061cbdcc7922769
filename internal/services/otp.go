package services

import (
	"context"
	"sync"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
)

var _ domain.OTPStore = (*OTPService)(nil)

type otpKey struct {
	owner string
	pass  string
}

// OTPService implements domain.OTPStore with in-memory storage and auto-expiry
type OTPService struct {
	entries map[otpKey]*domain.OTPEntry
	mutex   sync.RWMutex
	now     func() time.Time
}

// NewOTPService creates an empty in-memory store. Expired entries are
// invisible immediately; Run removes them from memory periodically.
func NewOTPService() *OTPService {
	return &OTPService{
		entries: make(map[otpKey]*domain.OTPEntry),
		now:     time.Now,
	}
}

// Save stores payload under (owner, pass) unless an unexpired entry holds it
func (s *OTPService) Save(ctx context.Context, owner, pass string, payload domain.Event, ttl time.Duration) error {
	now := s.now()
	key := otpKey{owner: owner, pass: pass}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entry, exists := s.entries[key]; exists && now.Before(entry.ExpiresAt) {
		return domain.ErrPassConflict
	}

	s.entries[key] = &domain.OTPEntry{
		Owner:     owner,
		Pass:      pass,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

// Verify returns the stored payload, or nil when absent or expired
func (s *OTPService) Verify(ctx context.Context, owner, pass string) (*domain.Event, error) {
	s.mutex.RLock()
	entry, exists := s.entries[otpKey{owner: owner, pass: pass}]
	s.mutex.RUnlock()

	if !exists || !s.now().Before(entry.ExpiresAt) {
		return nil, nil
	}

	payload := entry.Payload
	return &payload, nil
}

// Consume checks and removes the entry under one lock
func (s *OTPService) Consume(ctx context.Context, owner, pass string) (*domain.Event, error) {
	key := otpKey{owner: owner, pass: pass}
	now := s.now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.entries[key]
	if !exists {
		return nil, nil
	}
	delete(s.entries, key)
	if !now.Before(entry.ExpiresAt) {
		return nil, nil
	}

	payload := entry.Payload
	return &payload, nil
}

// Cleanup removes all expired entries from memory
func (s *OTPService) Cleanup(ctx context.Context) (int, error) {
	now := s.now()
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(s.entries, key)
			removed++
		}
	}

	return removed, nil
}

// Active returns the count of unexpired entries - for debugging
func (s *OTPService) Active(ctx context.Context) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	count := 0
	for _, entry := range s.entries {
		if now.Before(entry.ExpiresAt) {
			count++
		}
	}

	return count, nil
}

// Run cleans up expired entries every interval until ctx is done
func (s *OTPService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Cleanup(ctx)
		}
	}
}
