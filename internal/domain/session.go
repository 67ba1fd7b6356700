// Package domain contains the core entities and ports of the sync engine.
package domain

import (
	"context"
	"strings"
	"time"
)

// Status is the lifecycle state of a session document. Values are
// canonicalized to lower case at every decode boundary; see NormalizeStatus.
type Status string

// Lifecycle states. The only transition the engine performs is
// StatusDraft -> StatusPublished; there is no reverse transition.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// NormalizeStatus canonicalizes a backend-provided status value. The backend
// serializes its enum in upper case while older records may carry mixed case;
// normalizing once here keeps every comparison elsewhere a plain ==.
// An empty value normalizes to StatusDraft.
func NormalizeStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusDraft
	}
	return Status(s)
}

// SessionDocument is the authored wellness session entity as the client sees
// it. A zero ID means the document has never been persisted; the backend
// assigns the ID on first save.
type SessionDocument struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	JSONFileURL string    `json:"jsonFileUrl"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`

	// Owned is computed per load from the ownership verdict and never
	// persisted. A document without an ID is always owned: it cannot yet
	// exist in the public collection.
	Owned bool `json:"-"`
}

// HasID reports whether the backend has assigned an identifier.
func (d SessionDocument) HasID() bool { return d.ID != 0 }

// HasTitle reports whether the title is non-empty after trimming whitespace.
// A title is required for any persistence or lifecycle transition.
func (d SessionDocument) HasTitle() bool { return strings.TrimSpace(d.Title) != "" }

// Published reports whether the document has left the draft state.
func (d SessionDocument) Published() bool { return d.Status == StatusPublished }

// TagList splits the free-form comma-delimited tags field into trimmed,
// non-empty tags.
func TagList(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// AuthSession is the process-wide credential state created on a successful
// login or registration. It is replaced wholesale on re-authentication and
// destroyed on sign-out or on any authorization failure.
type AuthSession struct {
	Token     string
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token's recorded expiry has passed. Sessions
// with no known expiry never report expired; the backend remains the
// authority either way.
func (s AuthSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SessionAPI is the port to the backend's session endpoints.
type SessionAPI interface {
	ListPublic(ctx context.Context) ([]SessionDocument, error)
	ListMine(ctx context.Context) ([]SessionDocument, error)
	SaveDraft(ctx context.Context, doc SessionDocument) (*SessionDocument, error)
	Update(ctx context.Context, doc SessionDocument) (*SessionDocument, error)
	Publish(ctx context.Context, id int64) (*SessionDocument, error)
	Delete(ctx context.Context, id int64) error
}

// AuthAPI is the port to the backend's authentication endpoints.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*AuthSession, error)
	Register(ctx context.Context, email, password string) (*AuthSession, error)
}
