package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"wellnessflow/internal/domain"
)

const (
	// DebounceInterval is the quiet period after the last edit before an
	// autosave fires.
	DebounceInterval = 3 * time.Second
	// SavedIndicatorTTL is how long the "Auto-saved" confirmation stays
	// visible before it expires on its own.
	SavedIndicatorTTL = 2 * time.Second
)

// AutosaveService coalesces bursts of local edits into a single trailing-edge
// persistence call per quiet period. It never autosaves documents that lack a
// backend-assigned id, are not owned by the current principal, or have an
// empty title.
//
// Overlapping cycles are accepted: if edits continue while a persistence call
// is in flight, the next cycle schedules independently and the backend's
// last write wins. No in-flight call is ever cancelled.
type AutosaveService struct {
	api      domain.SessionAPI
	log      *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	verdict domain.Verdict
	latest  domain.SessionDocument
	timer   *time.Timer
	gen     uint64
	onSaved func(domain.SessionDocument)
}

// NewAutosaveService creates an AutosaveService. A non-positive interval
// selects DebounceInterval; tests shorten it.
func NewAutosaveService(api domain.SessionAPI, logger *slog.Logger, interval time.Duration) *AutosaveService {
	if interval <= 0 {
		interval = DebounceInterval
	}
	return &AutosaveService{api: api, log: logger, interval: interval}
}

// SetOnSaved registers the hook invoked after each successful autosave,
// typically to show the transient saved indicator.
func (s *AutosaveService) SetOnSaved(fn func(domain.SessionDocument)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSaved = fn
}

// Reset retargets the service at a newly loaded document, cancelling any
// pending timer so no autosave leaks across a document switch.
func (s *AutosaveService) Reset(verdict domain.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdict = verdict
	s.latest = domain.SessionDocument{}
	s.gen++
	s.stopLocked()
}

// OnEdit records the latest in-memory document state and re-arms the quiet
// period timer. When the timer elapses without further edits, exactly one
// persistence call fires carrying the snapshot current at fire time; earlier
// intermediate states are never individually persisted.
func (s *AutosaveService) OnEdit(doc domain.SessionDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.verdict.Mutable() || !doc.HasID() || !doc.HasTitle() {
		return
	}
	s.latest = doc
	if s.timer != nil {
		s.timer.Stop()
	}
	// A stopped timer may already have fired and be waiting on the mutex;
	// the generation stamp lets its fire recognize it has been superseded.
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.interval, func() { s.fire(gen) })
}

// Close cancels any pending autosave. Called when the editor unmounts.
func (s *AutosaveService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.stopLocked()
}

func (s *AutosaveService) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *AutosaveService) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		// Superseded by a later edit, a document switch, or Close while this
		// cycle's timer was in flight; the current timer is not ours to clear.
		s.mu.Unlock()
		return
	}
	doc := s.latest
	verdict := s.verdict
	saved := s.onSaved
	s.timer = nil
	s.mu.Unlock()

	if !verdict.Mutable() || !doc.HasID() || !doc.HasTitle() {
		return
	}
	if _, err := s.api.Update(context.Background(), doc); err != nil {
		// Autosave failures are non-fatal: the next cycle or an explicit
		// save supersedes this state.
		s.log.Warn("autosave failed", "id", doc.ID, "error", err)
		return
	}
	s.log.Debug("autosaved", "id", doc.ID)
	if saved != nil {
		saved(doc)
	}
}
