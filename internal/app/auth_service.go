package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wellnessflow/internal/domain"
	"wellnessflow/internal/session"
)

// ErrNotSignedIn indicates an operation that requires an authenticated
// principal was attempted without one.
var ErrNotSignedIn = errors.New("not signed in")

// AuthService handles authentication against the backend and owns the
// creation side of the auth session lifecycle. Credential validation itself
// is delegated entirely to the backend.
type AuthService struct {
	api   domain.AuthAPI
	store *session.Store
}

// NewAuthService creates an AuthService writing into the given store.
func NewAuthService(api domain.AuthAPI, store *session.Store) *AuthService {
	return &AuthService{api: api, store: store}
}

// Login authenticates the principal and replaces the stored session
// wholesale with the backend's response.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	sess, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.adopt(*sess)
}

// Register creates a principal and signs in as it in one step.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	sess, err := s.api.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.adopt(*sess)
}

// SignOut destroys the stored session. Signing out while already signed out
// is not an error.
func (s *AuthService) SignOut() {
	s.store.Clear()
}

// SessionExpired reports whether a stored session carries a recorded expiry
// that has already passed. The backend stays the authority on staleness; this
// only lets callers warn before issuing calls that are about to fail.
func (s *AuthService) SessionExpired(now time.Time) bool {
	sess, ok := s.store.Current()
	return ok && sess.Expired(now)
}

// Current returns the active session, or ErrNotSignedIn.
func (s *AuthService) Current() (domain.AuthSession, error) {
	sess, ok := s.store.Current()
	if !ok {
		return domain.AuthSession{}, ErrNotSignedIn
	}
	return sess, nil
}

func (s *AuthService) adopt(sess domain.AuthSession) (*domain.AuthSession, error) {
	sess.ExpiresAt = tokenExpiry(sess.Token)
	if err := s.store.Set(sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &sess, nil
}

// tokenExpiry extracts the expiry claim from the backend's bearer token.
// The token is not verified here; the client has no signing key and treats
// it as opaque apart from this best-effort expiry read.
func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
