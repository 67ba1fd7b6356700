package app_test

import (
	"context"
	"io"
	"log/slog"

	"wellnessflow/internal/domain"
)

type mockSessionAPI struct {
	listPublicFn func(ctx context.Context) ([]domain.SessionDocument, error)
	listMineFn   func(ctx context.Context) ([]domain.SessionDocument, error)
	saveDraftFn  func(ctx context.Context, doc domain.SessionDocument) (*domain.SessionDocument, error)
	updateFn     func(ctx context.Context, doc domain.SessionDocument) (*domain.SessionDocument, error)
	publishFn    func(ctx context.Context, id int64) (*domain.SessionDocument, error)
	deleteFn     func(ctx context.Context, id int64) error
}

func (m *mockSessionAPI) ListPublic(ctx context.Context) ([]domain.SessionDocument, error) {
	if m.listPublicFn != nil {
		return m.listPublicFn(ctx)
	}
	return nil, nil
}

func (m *mockSessionAPI) ListMine(ctx context.Context) ([]domain.SessionDocument, error) {
	if m.listMineFn != nil {
		return m.listMineFn(ctx)
	}
	return nil, nil
}

func (m *mockSessionAPI) SaveDraft(ctx context.Context, doc domain.SessionDocument) (*domain.SessionDocument, error) {
	if m.saveDraftFn != nil {
		return m.saveDraftFn(ctx, doc)
	}
	saved := doc
	return &saved, nil
}

func (m *mockSessionAPI) Update(ctx context.Context, doc domain.SessionDocument) (*domain.SessionDocument, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, doc)
	}
	saved := doc
	return &saved, nil
}

func (m *mockSessionAPI) Publish(ctx context.Context, id int64) (*domain.SessionDocument, error) {
	if m.publishFn != nil {
		return m.publishFn(ctx, id)
	}
	return &domain.SessionDocument{ID: id, Status: domain.StatusPublished}, nil
}

func (m *mockSessionAPI) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockAuthAPI struct {
	loginFn    func(ctx context.Context, email, password string) (*domain.AuthSession, error)
	registerFn func(ctx context.Context, email, password string) (*domain.AuthSession, error)
}

func (m *mockAuthAPI) Login(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &domain.AuthSession{}, nil
}

func (m *mockAuthAPI) Register(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, password)
	}
	return &domain.AuthSession{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
