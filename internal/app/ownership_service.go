// Package app holds the engine's application services.
package app

import (
	"context"
	"errors"
	"fmt"

	"wellnessflow/internal/domain"
)

// ErrNotAccessible is returned when a document id resolves to neither
// collection. The message is identical for documents that do not exist and
// documents owned privately by another principal, so resolution leaks no
// existence information.
var ErrNotAccessible = errors.New("session not found or not accessible")

// OwnershipService decides whether a document id belongs to the current
// principal or is a public, read-only artifact.
type OwnershipService struct {
	api domain.SessionAPI
}

// NewOwnershipService creates an OwnershipService backed by the given API.
func NewOwnershipService(api domain.SessionAPI) *OwnershipService {
	return &OwnershipService{api: api}
}

// Resolve runs the two-phase probe for the given id: the principal's private
// collection first, then the public collection, short-circuiting on the first
// hit. The private collection is probed first because it is authoritative for
// the principal's own content and reflects writes the public collection may
// not yet show, so an id present in both always resolves to owned.
func (s *OwnershipService) Resolve(ctx context.Context, id int64) (domain.Verdict, *domain.SessionDocument, error) {
	mine, err := s.api.ListMine(ctx)
	if err != nil {
		return domain.VerdictNotFound, nil, fmt.Errorf("load own sessions: %w", err)
	}
	for i := range mine {
		if mine[i].ID == id {
			doc := mine[i]
			doc.Owned = true
			return domain.VerdictOwned, &doc, nil
		}
	}

	public, err := s.api.ListPublic(ctx)
	if err != nil {
		return domain.VerdictNotFound, nil, fmt.Errorf("load public sessions: %w", err)
	}
	for i := range public {
		if public[i].ID == id {
			doc := public[i]
			doc.Owned = false
			return domain.VerdictPublicReadOnly, &doc, nil
		}
	}

	return domain.VerdictNotFound, nil, ErrNotAccessible
}
