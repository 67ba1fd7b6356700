package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wellnessflow/internal/app"
	"wellnessflow/internal/domain"
	"wellnessflow/internal/session"
)

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(expiry),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestLogin_StoresSessionWithTokenExpiry(t *testing.T) {
	expiry := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	api := &mockAuthAPI{
		loginFn: func(_ context.Context, email, _ string) (*domain.AuthSession, error) {
			return &domain.AuthSession{Token: signedToken(t, expiry), UserID: 1, Email: email}, nil
		},
	}
	store := session.NewStore()
	svc := app.NewAuthService(api, store)

	sess, err := svc.Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.ExpiresAt.Equal(expiry) {
		t.Fatalf("expected expiry %v from token, got %v", expiry, sess.ExpiresAt)
	}

	stored, ok := store.Current()
	if !ok || stored.Email != "a@b.c" || stored.UserID != 1 {
		t.Fatalf("session not stored: %+v ok=%v", stored, ok)
	}
}

func TestLogin_OpaqueTokenHasNoExpiry(t *testing.T) {
	api := &mockAuthAPI{
		loginFn: func(context.Context, string, string) (*domain.AuthSession, error) {
			return &domain.AuthSession{Token: "not-a-jwt", UserID: 2, Email: "x@y.z"}, nil
		},
	}
	svc := app.NewAuthService(api, session.NewStore())

	sess, err := svc.Login(context.Background(), "x@y.z", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sess.ExpiresAt.IsZero() {
		t.Fatalf("expected zero expiry for opaque token, got %v", sess.ExpiresAt)
	}
}

func TestReauthentication_ReplacesSessionWholesale(t *testing.T) {
	n := 0
	api := &mockAuthAPI{
		loginFn: func(context.Context, string, string) (*domain.AuthSession, error) {
			n++
			return &domain.AuthSession{Token: "tok", UserID: int64(n), Email: "a@b.c"}, nil
		},
	}
	store := session.NewStore()
	svc := app.NewAuthService(api, store)

	if _, err := svc.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	stored, _ := store.Current()
	if stored.UserID != 2 {
		t.Fatalf("expected second session to replace the first, got user %d", stored.UserID)
	}
}

func TestSignOut_ClearsAndIsIdempotent(t *testing.T) {
	api := &mockAuthAPI{
		registerFn: func(_ context.Context, email, _ string) (*domain.AuthSession, error) {
			return &domain.AuthSession{Token: "tok", UserID: 1, Email: email}, nil
		},
	}
	store := session.NewStore()
	svc := app.NewAuthService(api, store)

	if _, err := svc.Register(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}

	svc.SignOut()
	svc.SignOut() // safe to repeat

	if _, err := svc.Current(); !errors.Is(err, app.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestSessionExpired(t *testing.T) {
	store := session.NewStore()
	svc := app.NewAuthService(&mockAuthAPI{}, store)
	now := time.Now()

	if svc.SessionExpired(now) {
		t.Fatal("signed-out store reported an expired session")
	}

	store.Set(domain.AuthSession{Token: "t", ExpiresAt: now.Add(-time.Minute)})
	if !svc.SessionExpired(now) {
		t.Fatal("past expiry not reported")
	}

	store.Set(domain.AuthSession{Token: "t"})
	if svc.SessionExpired(now) {
		t.Fatal("session without a recorded expiry must never report expired")
	}
}

func TestLogin_BackendErrorDoesNotTouchStore(t *testing.T) {
	api := &mockAuthAPI{
		loginFn: func(context.Context, string, string) (*domain.AuthSession, error) {
			return nil, errors.New("invalid credentials")
		},
	}
	store := session.NewStore()
	store.Set(domain.AuthSession{Token: "old", UserID: 9})
	svc := app.NewAuthService(api, store)

	if _, err := svc.Login(context.Background(), "a@b.c", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	if stored, ok := store.Current(); !ok || stored.Token != "old" {
		t.Fatalf("failed login must not replace the session, got %+v ok=%v", stored, ok)
	}
}
