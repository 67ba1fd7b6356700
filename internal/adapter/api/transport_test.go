package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"wellnessflow/internal/adapter/api"
	"wellnessflow/internal/domain"
	"wellnessflow/internal/session"

	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captured struct {
	auth      string
	cache     string
	pragma    string
	requestID string
	buster    string
}

func capture(r *http.Request) captured {
	return captured{
		auth:      r.Header.Get("Authorization"),
		cache:     r.Header.Get("Cache-Control"),
		pragma:    r.Header.Get("Pragma"),
		requestID: r.Header.Get("X-Request-Id"),
		buster:    r.URL.Query().Get("_t"),
	}
}

func TestTransport_AttachesBearerAndCacheBusting(t *testing.T) {
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = capture(r)
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	store := session.NewStore()
	store.Set(domain.AuthSession{Token: "tok-1", UserID: 1, Email: "a@b.c"})
	client := &http.Client{Transport: api.NewTransport(store)}

	resp, err := client.Get(srv.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got.auth != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", got.auth)
	}
	if got.cache != "no-cache" || got.pragma != "no-cache" {
		t.Fatalf("expected cache suppression on reads, got %q/%q", got.cache, got.pragma)
	}
	if got.buster == "" {
		t.Fatal("expected _t cache-busting parameter on reads")
	}
	if got.requestID == "" {
		t.Fatal("expected X-Request-Id on reads")
	}
}

func TestTransport_ReadsGetDistinctRequestIDs(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-Id"))
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := &http.Client{Transport: api.NewTransport(session.NewStore())}
	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL + "/api/sessions")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
	}

	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("request id %q repeated", id)
		}
		seen[id] = true
	}
}

func TestTransport_WritesCarryNoCacheBusting(t *testing.T) {
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = capture(r)
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	store := session.NewStore()
	store.Set(domain.AuthSession{Token: "tok-1"})
	client := &http.Client{Transport: api.NewTransport(store)}

	resp, err := client.Post(srv.URL+"/api/my-sessions/save-draft", "application/json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got.auth != "Bearer tok-1" {
		t.Fatalf("writes still carry the bearer, got %q", got.auth)
	}
	if got.cache != "" || got.buster != "" {
		t.Fatalf("writes must not be cache-busted, got %q/%q", got.cache, got.buster)
	}
}

func TestTransport_SignedOutSendsNoBearer(t *testing.T) {
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = capture(r)
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := &http.Client{Transport: api.NewTransport(session.NewStore())}
	resp, err := client.Get(srv.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got.auth != "" {
		t.Fatalf("expected no Authorization header, got %q", got.auth)
	}
}

// Any call reporting 401 must produce the same observable outcome: the
// session is destroyed and the unauthenticated-entry hook runs, regardless of
// which component issued the call.
func TestTransport_UnauthorizedTearsDownSessionGlobally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := session.NewStore()
	guard := api.NewTransport(store)
	teardowns := 0
	guard.OnUnauthorized = func() { teardowns++ }
	client := api.New(srv.URL+"/api", guard, discardLogger())
	ctx := context.Background()

	calls := []struct {
		name string
		do   func() error
	}{
		{"list public", func() error { _, err := client.ListPublic(ctx); return err }},
		{"list mine", func() error { _, err := client.ListMine(ctx); return err }},
		{"update", func() error {
			_, err := client.Update(ctx, domain.SessionDocument{ID: 9, Title: "T"})
			return err
		}},
	}

	for _, call := range calls {
		t.Run(call.name, func(t *testing.T) {
			store.Set(domain.AuthSession{Token: "stale", UserID: 1})
			before := teardowns

			err := call.do()
			var se *api.StatusError
			if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401 StatusError, got %v", err)
			}
			if _, ok := store.Current(); ok {
				t.Fatal("session survived an authorization failure")
			}
			if teardowns != before+1 {
				t.Fatalf("expected exactly one teardown, got %d", teardowns-before)
			}
		})
	}
}

func TestTransport_TransportErrorPropagatesAndKeepsSession(t *testing.T) {
	store := session.NewStore()
	store.Set(domain.AuthSession{Token: "tok-1"})
	client := &http.Client{Transport: api.NewTransport(store)}

	// Nothing listens here; the dial fails before any response exists.
	if _, err := client.Get("http://127.0.0.1:1/api/sessions"); err == nil {
		t.Fatal("expected transport error")
	}
	if _, ok := store.Current(); !ok {
		t.Fatal("transport failures must not destroy the session")
	}
}
