package session

import (
	"fmt"
	"log/slog"
	"sync"

	"go-admin-console/internal/model"
)

// Snapshot is a point-in-time copy of the session. It is safe to keep and
// share; later store writes do not affect it.
type Snapshot struct {
	Credential    string          `json:"-"`
	Identity      *model.Identity `json:"identity,omitempty"`
	Authenticated bool            `json:"authenticated"`
	Loading       bool            `json:"loading"`
}

// HasRole reports whether the identity satisfies required. The admin role
// satisfies every requirement.
func (s Snapshot) HasRole(required string) bool {
	if s.Identity == nil {
		return false
	}
	return s.Identity.Role == required || s.Identity.Role == model.RoleAdmin
}

func (s Snapshot) IsAdmin() bool {
	return s.HasRole(model.RoleAdmin)
}

// Reader is the read capability handed to every component other than the
// Manager.
type Reader interface {
	Snapshot() Snapshot
	Credential() string
}

// Store is the process-wide session state. Reads never touch the network or
// the persisted credential; only Init, Set and Clear reach the
// CredentialStore.
type Store struct {
	mu            sync.RWMutex
	persist       CredentialStore
	credential    string
	identity      *model.Identity
	authenticated bool
	loading       bool
}

func NewStore(persist CredentialStore) *Store {
	if persist == nil {
		persist = NewMemoryCredentialStore("")
	}
	return &Store{persist: persist, loading: true}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Credential:    s.credential,
		Authenticated: s.authenticated,
		Loading:       s.loading,
	}
	if s.identity != nil {
		identity := *s.identity
		snap.Identity = &identity
	}
	return snap
}

// Credential is the credential currently attached to outbound requests.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Init resets the in-memory state and returns the persisted credential, or ""
// when none was saved. The returned credential is not attached yet.
func (s *Store) Init() (string, error) {
	s.mu.Lock()
	s.credential = ""
	s.identity = nil
	s.authenticated = false
	s.loading = true
	s.mu.Unlock()

	raw, err := s.persist.Load()
	if err != nil {
		return "", fmt.Errorf("load persisted credential: %w", err)
	}
	return raw, nil
}

// Attach makes raw the credential sent on outbound requests without marking
// the session authenticated.
func (s *Store) Attach(raw string) {
	s.mu.Lock()
	s.credential = raw
	s.mu.Unlock()
}

// Set persists raw and marks the session authenticated as identity. A
// persistence failure leaves the in-memory session usable until restart.
func (s *Store) Set(raw string, identity model.Identity) error {
	s.mu.Lock()
	s.credential = raw
	s.identity = &identity
	s.authenticated = true
	s.mu.Unlock()

	if err := s.persist.Save(raw); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// Clear forgets the session and removes the persisted credential.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.credential = ""
	s.identity = nil
	s.authenticated = false
	s.mu.Unlock()

	if err := s.persist.Remove(); err != nil {
		return fmt.Errorf("remove persisted credential: %w", err)
	}
	return nil
}

func (s *Store) FinishLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loading {
		slog.Debug("session loading flag already cleared")
		return
	}
	s.loading = false
}
