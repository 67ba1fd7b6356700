// Package session holds the process-wide authentication session state.
//
// The store is the single mutation entry point for the auth session: it is
// created on login or registration, replaced wholesale on re-authentication,
// and cleared on sign-out or when the transport guard observes an
// authorization failure. No other component may delete it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"wellnessflow/internal/domain"
)

// ErrNoSession indicates that no principal is signed in.
var ErrNoSession = errors.New("no active session")

// Store owns the current auth session. When constructed with a path it also
// persists the session to disk so the CLI survives process restarts, the
// counterpart of the browser's local storage in the original system.
type Store struct {
	mu      sync.Mutex
	current *domain.AuthSession
	path    string
}

var _ oauth2.TokenSource = (*Store)(nil)

// NewStore creates an in-memory store with no persistence.
func NewStore() *Store {
	return &Store{}
}

// NewFileStore creates a store backed by the given file, loading any
// previously persisted session. A missing file is not an error.
func NewFileStore(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt session file is equivalent to being signed out.
		return s, nil
	}
	if p.Token != "" {
		s.current = &domain.AuthSession{
			Token:     p.Token,
			UserID:    p.UserID,
			Email:     p.Email,
			ExpiresAt: p.ExpiresAt,
		}
	}
	return s, nil
}

type persisted struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	Email     string    `json:"userEmail"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Set replaces the stored session wholesale.
func (s *Store) Set(sess domain.AuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &sess
	return s.persist()
}

// Clear destroys the stored session and reports whether one was present.
// Clearing an already-empty store is a no-op, so the operation is safe to
// invoke from any number of failing calls.
func (s *Store) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.current != nil
	s.current = nil
	if s.path != "" {
		_ = os.Remove(s.path)
	}
	return had
}

// Current returns a copy of the active session, if any.
func (s *Store) Current() (domain.AuthSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.AuthSession{}, false
	}
	return *s.current, true
}

// Token implements oauth2.TokenSource over the stored credential. It returns
// the token even past its recorded expiry: the backend is the authority on
// staleness and the guard handles the resulting 401.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoSession
	}
	return &oauth2.Token{
		AccessToken: s.current.Token,
		TokenType:   "Bearer",
		Expiry:      s.current.ExpiresAt,
	}, nil
}

func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(persisted{
		Token:     s.current.Token,
		UserID:    s.current.UserID,
		Email:     s.current.Email,
		ExpiresAt: s.current.ExpiresAt,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
