// Package guard decides, per navigation, whether the current session may see
// a console location.
package guard

import (
	"net/url"

	"go-admin-console/internal/session"
)

type DecisionKind int

const (
	Render DecisionKind = iota
	Loading
	RedirectLogin
	RedirectUnauthorized
)

func (k DecisionKind) String() string {
	switch k {
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return "render"
	}
}

// Decision is the outcome of a navigation. From is the requested location,
// threaded through a login redirect so the caller can return there.
type Decision struct {
	Kind  DecisionKind
	Route Spec
	From  string
}

// Location is where a redirect decision points, or "" for the others.
func (d Decision) Location() string {
	switch d.Kind {
	case RedirectLogin:
		login := mustLookup(RouteLogin).Path
		if d.From == "" {
			return login
		}
		return login + "?" + url.Values{"from": {d.From}}.Encode()
	case RedirectUnauthorized:
		return mustLookup(RouteUnauthorized).Path
	default:
		return ""
	}
}

// Decide is evaluated on every navigation; it holds no state. Nothing is
// decided while the session is still recovering.
func Decide(snap session.Snapshot, route Spec, from string) Decision {
	if route.Public {
		return Decision{Kind: Render, Route: route}
	}
	if snap.Loading {
		return Decision{Kind: Loading, Route: route}
	}
	if !snap.Authenticated {
		return Decision{Kind: RedirectLogin, Route: route, From: from}
	}
	if route.RequiredRole != "" && !snap.HasRole(route.RequiredRole) {
		return Decision{Kind: RedirectUnauthorized, Route: route}
	}
	return Decision{Kind: Render, Route: route}
}

// SessionView is the part of the session manager the gate needs.
type SessionView interface {
	Snapshot() session.Snapshot
	Reconcile() bool
}

// Gate applies pending unauthorized observations before every decision so a
// credential the remote API rejected never renders guarded content again.
type Gate struct {
	sessions SessionView
}

func NewGate(sessions SessionView) *Gate {
	return &Gate{sessions: sessions}
}

func (g *Gate) Navigate(route Spec, from string) Decision {
	if !route.Public {
		g.sessions.Reconcile()
	}
	return Decide(g.sessions.Snapshot(), route, from)
}

// NavigatePath resolves path and navigates to it, using path as the return
// location.
func (g *Gate) NavigatePath(path string) Decision {
	return g.Navigate(ForPath(path), path)
}
