package middleware

import (
	"context"
	"net/http"
	"strconv"

	"go-admin-console/internal/guard"
	"go-admin-console/internal/model"
)

type contextKey string

const decisionContextKey contextKey = "guard_decision"

// loadingRetrySeconds is how long a client should wait while the session is
// still being recovered.
const loadingRetrySeconds = 1

// Navigation evaluates the access guard on every request. Guarded content is
// only served for a Render decision; redirects become 303 responses and the
// loading state a 202 asking the client to retry.
func Navigation(gate *guard.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := gate.NavigatePath(r.URL.Path)
			if decision.Kind == guard.RedirectLogin {
				decision.From = r.URL.RequestURI()
			}

			switch decision.Kind {
			case guard.Render:
				ctx := context.WithValue(r.Context(), decisionContextKey, decision)
				next.ServeHTTP(w, r.WithContext(ctx))
			case guard.Loading:
				w.Header().Set("Retry-After", strconv.Itoa(loadingRetrySeconds))
				writeJSON(w, http.StatusAccepted, model.APIResponse{
					Success: true,
					Data:    map[string]string{"state": "loading", "route": decision.Route.Name},
				})
			default:
				location := decision.Location()
				w.Header().Set("Location", location)
				writeJSON(w, http.StatusSeeOther, model.APIResponse{
					Success: false,
					Data:    map[string]string{"redirect": location},
					Error:   redirectError(decision.Kind),
				})
			}
		})
	}
}

func redirectError(kind guard.DecisionKind) *model.APIError {
	if kind == guard.RedirectUnauthorized {
		return &model.APIError{Code: "FORBIDDEN", Message: "You do not have permission to view this page"}
	}
	return &model.APIError{Code: "UNAUTHORIZED", Message: "Please sign in to continue"}
}

// DecisionFromContext returns the render decision made for the request.
func DecisionFromContext(ctx context.Context) (guard.Decision, bool) {
	decision, ok := ctx.Value(decisionContextKey).(guard.Decision)
	return decision, ok
}
