package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wellnessflow/internal/domain"
)

// ErrTitleRequired indicates a save or publish was attempted without a title.
// It is caught client-side; no backend call is issued.
var ErrTitleRequired = errors.New("a title is required")

// PartialPublishError reports the composite publish of an unsaved document
// failing between its two backend calls: the draft now exists on the backend
// while the caller's local view is unchanged. Callers observe the
// created-but-not-published state through Draft.
type PartialPublishError struct {
	Draft domain.SessionDocument
	Err   error
}

func (e *PartialPublishError) Error() string {
	return fmt.Sprintf("draft %d created but not published: %v", e.Draft.ID, e.Err)
}

func (e *PartialPublishError) Unwrap() error { return e.Err }

// PublishService drives the draft to published lifecycle transition and the
// explicit save path, reconciling local state with the backend afterward.
type PublishService struct {
	api domain.SessionAPI
	log *slog.Logger

	// OnPublished, when set, is invoked with the document id after every
	// successful publish so list views know their cached data is stale.
	OnPublished func(id int64)
}

// NewPublishService creates a PublishService backed by the given API.
func NewPublishService(api domain.SessionAPI, logger *slog.Logger) *PublishService {
	return &PublishService{api: api, log: logger}
}

// SaveDraft persists the document explicitly: a create for unsaved documents
// (the backend assigns the id) and an update for saved ones. The returned
// record is the backend's.
func (s *PublishService) SaveDraft(ctx context.Context, doc domain.SessionDocument) (*domain.SessionDocument, error) {
	if !doc.HasTitle() {
		return nil, ErrTitleRequired
	}
	var (
		saved *domain.SessionDocument
		err   error
	)
	if doc.HasID() {
		saved, err = s.api.Update(ctx, doc)
	} else {
		saved, err = s.api.SaveDraft(ctx, doc)
	}
	if err != nil {
		return nil, err
	}
	saved.Owned = true
	return saved, nil
}

// Publish transitions the document to published. For an unsaved document this
// is a composite operation: create-as-draft, then publish the newly assigned
// id. The two calls are not atomic; if the second fails the returned error is
// a *PartialPublishError and the caller's local state must be left unchanged.
//
// After a successful publish the locally synthesized status is not trusted:
// the private collection is re-queried and the backend's record adopted,
// falling back to a local published status only when the re-query cannot
// locate the id.
func (s *PublishService) Publish(ctx context.Context, doc domain.SessionDocument) (*domain.SessionDocument, error) {
	if !doc.HasTitle() {
		return nil, ErrTitleRequired
	}

	id := doc.ID
	if !doc.HasID() {
		created, err := s.api.SaveDraft(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("create draft: %w", err)
		}
		id = created.ID
		if _, err := s.api.Publish(ctx, id); err != nil {
			return nil, &PartialPublishError{Draft: *created, Err: err}
		}
	} else {
		if _, err := s.api.Publish(ctx, id); err != nil {
			return nil, err
		}
	}

	result := s.reconcile(ctx, id, doc)
	if s.OnPublished != nil {
		s.OnPublished(id)
	}
	return result, nil
}

// Delete removes an owned document.
func (s *PublishService) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, id)
}

func (s *PublishService) reconcile(ctx context.Context, id int64, local domain.SessionDocument) *domain.SessionDocument {
	mine, err := s.api.ListMine(ctx)
	if err == nil {
		for i := range mine {
			if mine[i].ID == id {
				doc := mine[i]
				doc.Owned = true
				return &doc
			}
		}
	} else {
		s.log.Warn("post-publish refresh failed, assuming published", "id", id, "error", err)
	}
	local.ID = id
	local.Status = domain.StatusPublished
	local.Owned = true
	return &local
}
