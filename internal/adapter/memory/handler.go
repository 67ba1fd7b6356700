package memory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wellnessflow/internal/domain"
)

// Handler exposes the backend on the same REST surface the real service
// serves under /api.
func (b *Backend) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/auth/register", b.handleRegister)
	api.HandleFunc("/auth/login", b.handleLogin)
	api.HandleFunc("/sessions", b.handlePublicSessions)
	api.HandleFunc("/my-sessions", b.handleMySessions)
	api.HandleFunc("/my-sessions/save-draft", b.handleSaveDraft)
	api.HandleFunc("/my-sessions/publish", b.handlePublish)
	api.HandleFunc("/my-sessions/", b.handleMySessionByID)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	return root
}

// sessionPayload is the wire form of a session record. Status is serialized
// upper case, as the real backend's enum is.
type sessionPayload struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	JSONFileURL string    `json:"jsonFileUrl"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type sessionRequest struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
	JSONFileURL string `json:"jsonFileUrl"`
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func payload(doc domain.SessionDocument) sessionPayload {
	return sessionPayload{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Tags:        doc.Tags,
		JSONFileURL: doc.JSONFileURL,
		Status:      strings.ToUpper(string(doc.Status)),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func payloads(docs []domain.SessionDocument) []sessionPayload {
	out := make([]sessionPayload, 0, len(docs))
	for _, d := range docs {
		out = append(out, payload(d))
	}
	return out
}

func fromRequest(req sessionRequest) domain.SessionDocument {
	return domain.SessionDocument{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		JSONFileURL: req.JSONFileURL,
	}
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req authRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := b.Register(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeAuth(w, sess)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req authRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess, err := b.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeAuth(w, sess)
}

func (b *Backend) handlePublicSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, payloads(b.PublicSessions()))
}

func (b *Backend) handleMySessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := b.principal(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, payloads(b.SessionsFor(userID)))
}

func (b *Backend) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := b.principal(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req sessionRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, errors.New("title is required"))
		return
	}
	doc, err := b.SaveDraft(userID, fromRequest(req))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, payload(doc))
}

func (b *Backend) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := b.principal(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(r.URL.Query().Get("sessionId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid sessionId"))
		return
	}
	doc, err := b.Publish(userID, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, payload(doc))
}

func (b *Backend) handleMySessionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.principal(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/my-sessions/"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := b.Get(userID, id)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, payload(doc))
	case http.MethodPut:
		var req sessionRequest
		if err := parseJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		doc, err := b.Update(userID, id, fromRequest(req))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, payload(doc))
	case http.MethodDelete:
		if err := b.Delete(userID, id); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Backend) principal(r *http.Request) (int64, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return 0, false
	}
	return b.VerifyToken(token)
}

func writeAuth(w http.ResponseWriter, sess domain.AuthSession) {
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  sess.Token,
		"userId": sess.UserID,
		"email":  sess.Email,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"message": err.Error()})
}

func parseJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
