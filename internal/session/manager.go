package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/recipenav/recipenav/internal/logging"
	"github.com/recipenav/recipenav/internal/models"
	"github.com/recipenav/recipenav/internal/remote"
)

var (
	// ErrInvalidCredentials indicates the service rejected the username or
	// password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken indicates the requested username already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrNoSession indicates an operation required an active session.
	ErrNoSession = errors.New("no active session")
)

// Authenticator exchanges credentials for sessions on the remote service.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.Session, error)
	Register(ctx context.Context, username, password string) (models.Session, error)
}

// CredentialStore persists the current session so it survives restarts.
type CredentialStore interface {
	Load() (models.Session, error)
	Save(session models.Session) error
	Clear() error
}

// Manager owns the current session. It holds no other state; mutations read
// the credential from here instead of any ambient global.
type Manager struct {
	auth  Authenticator
	creds CredentialStore

	mu      sync.RWMutex
	current models.Session
}

// NewManager constructs a manager, restoring any persisted credential.
func NewManager(auth Authenticator, creds CredentialStore) *Manager {
	m := &Manager{auth: auth, creds: creds}
	if creds != nil {
		if session, err := creds.Load(); err == nil && session.Active() {
			m.current = session
		}
	}
	return m
}

// Current returns the active session, if any.
func (m *Manager) Current() (models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.Active()
}

// Login authenticates against the service and stores the credential.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	session, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return mapAuthError(err)
	}
	m.adopt(ctx, session)
	return nil
}

// Register creates an account and stores the issued credential.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	session, err := m.auth.Register(ctx, username, password)
	if err != nil {
		return mapAuthError(err)
	}
	m.adopt(ctx, session)
	return nil
}

// Logout discards the credential unconditionally. Persistence failures are
// logged and swallowed; the in-memory session is always cleared.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.current = models.Session{}
	m.mu.Unlock()

	if m.creds != nil {
		if err := m.creds.Clear(); err != nil {
			logging.FromContext(ctx).Warn("clear persisted credential", "error", err)
		}
	}
}

func (m *Manager) adopt(ctx context.Context, session models.Session) {
	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	if m.creds != nil {
		if err := m.creds.Save(session); err != nil {
			logging.FromContext(ctx).Warn("persist credential", "error", err)
		}
	}
}

func mapAuthError(err error) error {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			return ErrInvalidCredentials
		case http.StatusConflict:
			return ErrUsernameTaken
		}
		return fmt.Errorf("authentication failed: %w", apiErr)
	}
	return err
}
