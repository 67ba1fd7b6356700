// Package api is the driven adapter that talks to the WellnessFlow backend
// over its REST surface.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"wellnessflow/internal/session"
)

// Transport is the auth session guard. Every outbound backend call is routed
// through it: it attaches the bearer credential when a session is active,
// strips caching on reads, and tears the session down globally on any
// authorization failure, regardless of which component issued the call.
//
// Transport-level failures propagate to the caller unchanged; the guard does
// not retry.
type Transport struct {
	// Base is the underlying round tripper; nil means http.DefaultTransport.
	Base http.RoundTripper

	// OnUnauthorized, when set, is invoked after the session has been torn
	// down in response to a 401, once per teardown. The CLI uses it to force
	// navigation back to the unauthenticated entry point.
	OnUnauthorized func()

	sessions *session.Store
	now      func() time.Time
}

// NewTransport creates a guard reading credentials from the given store.
func NewTransport(store *session.Store) *Transport {
	return &Transport{sessions: store, now: time.Now}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per the RoundTripper contract the request must not be mutated.
	req = req.Clone(req.Context())

	if tok, err := t.sessions.Token(); err == nil {
		tok.SetAuthHeader(req)
	}

	if req.Method == http.MethodGet {
		// Reads must never be served from an intermediary cache: suppress
		// caching and make every URL distinct with a timestamp discriminator.
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
		req.Header.Set("X-Request-Id", uuid.NewString())
		q := req.URL.Query()
		q.Set("_t", strconv.FormatInt(t.now().UnixMilli(), 10))
		req.URL.RawQuery = q.Encode()
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// One stale token anywhere invalidates the whole session.
		if t.sessions.Clear() {
			if t.OnUnauthorized != nil {
				t.OnUnauthorized()
			}
		}
	}
	return resp, nil
}
