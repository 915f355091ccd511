package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"go-admin-console/internal/guard"
	"go-admin-console/internal/model"
	"go-admin-console/internal/session"
	"go-admin-console/pkg/apierror"
)

type AuthHandler struct {
	sessions *session.Manager
}

func NewAuthHandler(sessions *session.Manager) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type authResult struct {
	Session  session.Snapshot `json:"session"`
	Redirect string           `json:"redirect"`
}

// redirectTarget keeps the advisory return location when it is a local,
// guarded console path.
func redirectTarget(from string) string {
	from = strings.TrimSpace(from)
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return "/"
	}
	parsed, err := url.Parse(from)
	if err != nil || guard.ForPath(parsed.Path).Public {
		return "/"
	}
	return from
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, guard.RouteLogin)
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.authPage(w, r, guard.RouteRegister)
}

func (h *AuthHandler) authPage(w http.ResponseWriter, r *http.Request, name string) {
	snap := h.sessions.Snapshot()
	if !snap.Loading && snap.Authenticated {
		http.Redirect(w, r, redirectTarget(r.URL.Query().Get("from")), http.StatusSeeOther)
		return
	}

	route, _ := guard.Lookup(name)
	writeSuccess(w, http.StatusOK, map[string]any{
		"route":   route,
		"from":    r.URL.Query().Get("from"),
		"error":   h.sessions.LastError(),
		"loading": snap.Loading,
	}, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload struct {
		model.LoginRequest
		From string `json:"from"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New(apierror.CodeBadRequest, "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeError(w, apierror.New(apierror.CodeValidation, "Email and password are required", "email", http.StatusUnprocessableEntity))
		return
	}

	if err := h.sessions.Login(r.Context(), payload.Email, payload.Password); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, authResult{Session: h.sessions.Snapshot(), Redirect: redirectTarget(payload.From)}, nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New(apierror.CodeBadRequest, "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if strings.TrimSpace(payload.Name) == "" || strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeError(w, apierror.New(apierror.CodeValidation, "Name, email and password are required", "", http.StatusUnprocessableEntity))
		return
	}

	if err := h.sessions.Register(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, authResult{Session: h.sessions.Snapshot(), Redirect: "/"}, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Logout()
	login, _ := guard.Lookup(guard.RouteLogin)
	writeSuccess(w, http.StatusOK, authResult{Session: h.sessions.Snapshot(), Redirect: login.Path}, nil)
}

// Session reports the session state and the menu it may see. It never
// triggers a redirect.
func (h *AuthHandler) Session(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Reconcile()
	snap := h.sessions.Snapshot()
	writeSuccess(w, http.StatusOK, map[string]any{
		"session": snap,
		"menu":    guard.Menu(snap),
	}, nil)
}
