package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"wellnessflow/internal/domain"
)

// Client implements the engine's backend ports over HTTP with JSON bodies.
// All calls go through the guard Transport.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

var (
	_ domain.SessionAPI = (*Client)(nil)
	_ domain.AuthAPI    = (*Client)(nil)
)

// New creates a Client for the backend at baseURL (including the /api
// prefix), routing every call through the given guard.
func New(baseURL string, guard *Transport, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: guard},
		log:     logger,
	}
}

// StatusError is a rejected backend response, distinguishable by status code
// and carrying the backend-provided message when one was present.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

type sessionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	JSONFileURL string `json:"jsonFileUrl"`
}

// Login authenticates against the backend.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", authRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return &domain.AuthSession{Token: res.Token, UserID: res.UserID, Email: res.Email}, nil
}

// Register creates a principal and returns its fresh session.
func (c *Client) Register(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", authRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return &domain.AuthSession{Token: res.Token, UserID: res.UserID, Email: res.Email}, nil
}

// ListPublic returns the public session collection.
func (c *Client) ListPublic(ctx context.Context) ([]domain.SessionDocument, error) {
	var docs []domain.SessionDocument
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &docs); err != nil {
		return nil, err
	}
	return normalize(docs), nil
}

// ListMine returns the principal's private session collection.
func (c *Client) ListMine(ctx context.Context) ([]domain.SessionDocument, error) {
	var docs []domain.SessionDocument
	if err := c.do(ctx, http.MethodGet, "/my-sessions", nil, &docs); err != nil {
		return nil, err
	}
	return normalize(docs), nil
}

// SaveDraft creates a draft; the backend assigns the id.
func (c *Client) SaveDraft(ctx context.Context, doc domain.SessionDocument) (*domain.SessionDocument, error) {
	var saved domain.SessionDocument
	if err := c.do(ctx, http.MethodPost, "/my-sessions/save-draft", request(doc), &saved); err != nil {
		return nil, err
	}
	saved.Status = domain.NormalizeStatus(string(saved.Status))
	return &saved, nil
}

// Update persists the content fields of an owned record.
func (c *Client) Update(ctx context.Context, doc domain.SessionDocument) (*domain.SessionDocument, error) {
	var saved domain.SessionDocument
	path := fmt.Sprintf("/my-sessions/%d", doc.ID)
	if err := c.do(ctx, http.MethodPut, path, request(doc), &saved); err != nil {
		return nil, err
	}
	saved.Status = domain.NormalizeStatus(string(saved.Status))
	return &saved, nil
}

// Publish transitions an owned record to published.
func (c *Client) Publish(ctx context.Context, id int64) (*domain.SessionDocument, error) {
	var published domain.SessionDocument
	path := fmt.Sprintf("/my-sessions/publish?sessionId=%d", id)
	if err := c.do(ctx, http.MethodPost, path, nil, &published); err != nil {
		return nil, err
	}
	published.Status = domain.NormalizeStatus(string(published.Status))
	return &published, nil
}

// Delete removes an owned record.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/my-sessions/%d", id), nil, nil)
}

func request(doc domain.SessionDocument) sessionRequest {
	return sessionRequest{
		Title:       doc.Title,
		Description: doc.Description,
		Tags:        doc.Tags,
		JSONFileURL: doc.JSONFileURL,
	}
}

func normalize(docs []domain.SessionDocument) []domain.SessionDocument {
	for i := range docs {
		docs[i].Status = domain.NormalizeStatus(string(docs[i].Status))
	}
	return docs
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("backend call", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError extracts the backend-provided message when the error body
// carries one, falling back to the bare status code.
func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return se
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			se.Message = body.Message
		} else if body.Error != "" {
			se.Message = body.Error
		}
	}
	return se
}
