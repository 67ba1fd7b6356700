package app_test

import (
	"context"
	"errors"
	"testing"

	"wellnessflow/internal/app"
	"wellnessflow/internal/domain"
)

func TestResolve_OwnedWinsOverPublic(t *testing.T) {
	// A principal's own published session is present in both collections;
	// it must always resolve to owned, and the public probe must not run.
	publicProbed := false
	api := &mockSessionAPI{
		listMineFn: func(context.Context) ([]domain.SessionDocument, error) {
			return []domain.SessionDocument{{ID: 5, Title: "Mine", Status: domain.StatusPublished}}, nil
		},
		listPublicFn: func(context.Context) ([]domain.SessionDocument, error) {
			publicProbed = true
			return []domain.SessionDocument{{ID: 5, Title: "Mine", Status: domain.StatusPublished}}, nil
		},
	}

	verdict, doc, err := app.NewOwnershipService(api).Resolve(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != domain.VerdictOwned {
		t.Fatalf("expected owned, got %v", verdict)
	}
	if !doc.Owned {
		t.Fatal("expected doc.Owned to be set")
	}
	if publicProbed {
		t.Fatal("public collection probed despite private hit")
	}
}

func TestResolve_PublicReadOnly(t *testing.T) {
	api := &mockSessionAPI{
		listMineFn: func(context.Context) ([]domain.SessionDocument, error) { return nil, nil },
		listPublicFn: func(context.Context) ([]domain.SessionDocument, error) {
			return []domain.SessionDocument{{ID: 9, Title: "Other", Status: domain.StatusPublished}}, nil
		},
	}

	verdict, doc, err := app.NewOwnershipService(api).Resolve(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != domain.VerdictPublicReadOnly {
		t.Fatalf("expected public-readonly, got %v", verdict)
	}
	if doc.Owned {
		t.Fatal("public document must not be marked owned")
	}
	if verdict.Mutable() {
		t.Fatal("public-readonly verdict must not be mutable")
	}
}

func TestResolve_NotFoundLeaksNothing(t *testing.T) {
	// An id that does not exist anywhere and an id owned privately by
	// another principal are indistinguishable from this client's view:
	// both collections come back without it, and the error is identical.
	empty := &mockSessionAPI{}
	foreignPrivate := &mockSessionAPI{
		// Another principal's draft never appears in either collection
		// served to this principal.
		listMineFn:   func(context.Context) ([]domain.SessionDocument, error) { return nil, nil },
		listPublicFn: func(context.Context) ([]domain.SessionDocument, error) { return nil, nil },
	}

	_, _, errMissing := app.NewOwnershipService(empty).Resolve(context.Background(), 404)
	_, _, errForeign := app.NewOwnershipService(foreignPrivate).Resolve(context.Background(), 7)

	if !errors.Is(errMissing, app.ErrNotAccessible) || !errors.Is(errForeign, app.ErrNotAccessible) {
		t.Fatalf("expected ErrNotAccessible, got %v / %v", errMissing, errForeign)
	}
	if errMissing.Error() != errForeign.Error() {
		t.Fatalf("messages differ: %q vs %q", errMissing, errForeign)
	}
}

func TestResolve_ProbeErrorPropagates(t *testing.T) {
	boom := errors.New("backend down")
	api := &mockSessionAPI{
		listMineFn: func(context.Context) ([]domain.SessionDocument, error) { return nil, boom },
	}

	verdict, _, err := app.NewOwnershipService(api).Resolve(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped probe error, got %v", err)
	}
	if verdict != domain.VerdictNotFound {
		t.Fatalf("expected not-found verdict on error, got %v", verdict)
	}
}
