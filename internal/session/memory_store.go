package session

import (
	"sync"

	"github.com/recipenav/recipenav/internal/models"
)

// NewInMemoryCredentialStore returns a CredentialStore backed by memory,
// for tests and throwaway sessions.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{}
}

// InMemoryCredentialStore implements CredentialStore without touching disk.
type InMemoryCredentialStore struct {
	mu      sync.Mutex
	session models.Session
}

// Load returns the stored session.
func (s *InMemoryCredentialStore) Load() (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, nil
}

// Save retains the provided session.
func (s *InMemoryCredentialStore) Save(session models.Session) error {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
	return nil
}

// Clear discards the stored session.
func (s *InMemoryCredentialStore) Clear() error {
	s.mu.Lock()
	s.session = models.Session{}
	s.mu.Unlock()
	return nil
}
