// Package memory implements an in-memory stand-in for the WellnessFlow
// backend, used by adapter tests and the CLI demo mode. It mirrors the real
// backend's semantics: drafts and published sessions per owner, a public
// collection of published sessions, and JWT bearer tokens.
package memory

import (
	"crypto/rand"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wellnessflow/internal/domain"
)

var (
	// ErrEmailTaken indicates a registration with an already-known email.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound indicates the record does not exist or is not
	// owned by the requesting principal.
	ErrSessionNotFound = errors.New("session not found")
)

// Backend is the in-memory store behind Handler.
type Backend struct {
	mu        sync.Mutex
	users     []user
	records   []record
	userIDs   int64
	recordIDs int64

	signingKey []byte
	now        func() time.Time
}

type user struct {
	id       int64
	email    string
	password string // stored verbatim; this is a test double, not a real backend
}

type record struct {
	doc     domain.SessionDocument
	ownerID int64
}

// New creates an empty backend with a random token signing key.
func New() *Backend {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	return &Backend{signingKey: key, now: time.Now}
}

// Register creates a user and returns a signed-in session for it.
func (b *Backend) Register(email, password string) (domain.AuthSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, u := range b.users {
		if u.email == email {
			return domain.AuthSession{}, ErrEmailTaken
		}
	}

	b.userIDs++
	u := user{id: b.userIDs, email: email, password: password}
	b.users = append(b.users, u)
	return b.sessionFor(u)
}

// Login authenticates an existing user.
func (b *Backend) Login(email, password string) (domain.AuthSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, u := range b.users {
		if u.email == email && u.password == password {
			return b.sessionFor(u)
		}
	}
	return domain.AuthSession{}, ErrInvalidCredentials
}

func (b *Backend) sessionFor(u user) (domain.AuthSession, error) {
	expiry := b.now().Add(24 * time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(u.id, 10),
		IssuedAt:  jwt.NewNumericDate(b.now()),
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.signingKey)
	if err != nil {
		return domain.AuthSession{}, err
	}
	return domain.AuthSession{Token: token, UserID: u.id, Email: u.email, ExpiresAt: expiry}, nil
}

// VerifyToken validates a bearer token and returns the user id it was
// minted for.
func (b *Backend) VerifyToken(token string) (int64, bool) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return b.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, false
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// PublicSessions returns all published sessions, any owner.
func (b *Backend) PublicSessions() []domain.SessionDocument {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.SessionDocument
	for _, r := range b.records {
		if r.doc.Published() {
			out = append(out, r.doc)
		}
	}
	return out
}

// SessionsFor returns every session owned by the given user.
func (b *Backend) SessionsFor(userID int64) []domain.SessionDocument {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.SessionDocument
	for _, r := range b.records {
		if r.ownerID == userID {
			out = append(out, r.doc)
		}
	}
	return out
}

// Get returns a single owned session.
func (b *Backend) Get(userID, id int64) (domain.SessionDocument, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexOf(userID, id); i >= 0 {
		return b.records[i].doc, nil
	}
	return domain.SessionDocument{}, ErrSessionNotFound
}

// SaveDraft creates a draft for the user, or updates an existing owned
// record in place when the request carries an id.
func (b *Backend) SaveDraft(userID int64, doc domain.SessionDocument) (domain.SessionDocument, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if doc.ID != 0 {
		return b.updateLocked(userID, doc.ID, doc)
	}

	b.recordIDs++
	doc.ID = b.recordIDs
	doc.Status = domain.StatusDraft
	doc.CreatedAt = b.now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	b.records = append(b.records, record{doc: doc, ownerID: userID})
	return doc, nil
}

// Update replaces the content fields of an owned record, preserving its
// lifecycle status.
func (b *Backend) Update(userID, id int64, doc domain.SessionDocument) (domain.SessionDocument, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updateLocked(userID, id, doc)
}

func (b *Backend) updateLocked(userID, id int64, doc domain.SessionDocument) (domain.SessionDocument, error) {
	i := b.indexOf(userID, id)
	if i < 0 {
		return domain.SessionDocument{}, ErrSessionNotFound
	}
	cur := &b.records[i].doc
	cur.Title = doc.Title
	cur.Description = doc.Description
	cur.Tags = doc.Tags
	cur.JSONFileURL = doc.JSONFileURL
	cur.UpdatedAt = b.now().UTC()
	return *cur, nil
}

// Publish transitions an owned record to published. Publishing an already
// published record is a no-op apart from the updated timestamp.
func (b *Backend) Publish(userID, id int64) (domain.SessionDocument, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(userID, id)
	if i < 0 {
		return domain.SessionDocument{}, ErrSessionNotFound
	}
	cur := &b.records[i].doc
	cur.Status = domain.StatusPublished
	cur.UpdatedAt = b.now().UTC()
	return *cur, nil
}

// Delete removes an owned record.
func (b *Backend) Delete(userID, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(userID, id)
	if i < 0 {
		return ErrSessionNotFound
	}
	b.records = append(b.records[:i], b.records[i+1:]...)
	return nil
}

func (b *Backend) indexOf(userID, id int64) int {
	for i, r := range b.records {
		if r.doc.ID == id && r.ownerID == userID {
			return i
		}
	}
	return -1
}
