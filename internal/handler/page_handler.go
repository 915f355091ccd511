package handler

import (
	"net/http"

	"go-admin-console/internal/guard"
	"go-admin-console/internal/middleware"
	"go-admin-console/internal/session"
)

type PageHandler struct {
	sessions session.Reader
}

func NewPageHandler(sessions session.Reader) *PageHandler {
	return &PageHandler{sessions: sessions}
}

type statCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// page is the envelope every rendered console page shares.
type page struct {
	Route    guard.Spec       `json:"route"`
	Identity any              `json:"identity,omitempty"`
	Menu     []guard.MenuItem `json:"menu,omitempty"`
	Body     any              `json:"body,omitempty"`
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, fallback string, body any) {
	decision, ok := middleware.DecisionFromContext(r.Context())
	spec := decision.Route
	if !ok {
		spec, _ = guard.Lookup(fallback)
	}

	snap := h.sessions.Snapshot()
	out := page{Route: spec, Body: body}
	if snap.Identity != nil {
		out.Identity = snap.Identity
		out.Menu = guard.Menu(snap)
	}
	writeSuccess(w, http.StatusOK, out, nil)
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	name := ""
	if snap := h.sessions.Snapshot(); snap.Identity != nil {
		name = snap.Identity.Name
	}

	h.render(w, r, guard.RouteDashboard, map[string]any{
		"welcome": "Welcome, " + name,
		"stats": []statCard{
			{Title: "Total Users", Value: "-"},
			{Title: "Page Views", Value: "-"},
			{Title: "Active Sessions", Value: "-"},
			{Title: "Revenue", Value: "-"},
		},
	})
}

func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, guard.RouteSettings, map[string]string{"message": "Settings are not available yet."})
}

func (h *PageHandler) DashboardAlias(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusMovedPermanently)
}

func (h *PageHandler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, guard.RouteUnauthorized, map[string]string{
		"message": "You do not have permission to view this page.",
	})
}

func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	route, _ := guard.Lookup(guard.RouteNotFound)
	writeSuccess(w, http.StatusNotFound, page{Route: route, Body: map[string]string{
		"message": "The page you are looking for does not exist.",
		"path":    r.URL.Path,
	}}, nil)
}
