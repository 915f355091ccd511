package guard

import (
	"strings"

	"go-admin-console/internal/model"
)

// Route names.
const (
	RouteLogin         = "login"
	RouteRegister      = "register"
	RouteUnauthorized  = "unauthorized"
	RouteNotFound      = "not-found"
	RouteDashboard     = "dashboard-home"
	RouteSettings      = "settings"
	RouteUsers         = "users"
	RouteHomepage      = "homepage-details"
	RouteAbout         = "about-details"
	RouteGallery       = "gallery-details"
	RouteAhval         = "ahval-details"
	RouteLeaderDetails = "leader-details"
	RouteEvents        = "events"
)

const dashboardAliasPath = "/dashboard"

// Spec declares how a console location is gated. Public routes are never
// guarded; RequiredRole is empty for routes any signed-in operator may open.
type Spec struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Title        string `json:"title"`
	Public       bool   `json:"public"`
	RequiredRole string `json:"required_role,omitempty"`
}

// Routes is the console's route table.
var Routes = []Spec{
	{Name: RouteLogin, Path: "/login", Title: "Login", Public: true},
	{Name: RouteRegister, Path: "/register", Title: "Register", Public: true},
	{Name: RouteUnauthorized, Path: "/unauthorized", Title: "Unauthorized", Public: true},
	{Name: RouteNotFound, Path: "", Title: "Page Not Found", Public: true},

	{Name: RouteDashboard, Path: "/", Title: "Dashboard"},
	{Name: RouteUsers, Path: "/users", Title: "Users", RequiredRole: model.RoleAdmin},
	{Name: RouteSettings, Path: "/settings", Title: "Settings"},
	{Name: RouteHomepage, Path: "/homepage-details", Title: "Homepage Details"},
	{Name: RouteAbout, Path: "/about-details", Title: "About Details"},
	{Name: RouteGallery, Path: "/gallery-details", Title: "Gallery Details"},
	{Name: RouteAhval, Path: "/ahval-details", Title: "Ahval Details"},
	{Name: RouteLeaderDetails, Path: "/leader-details", Title: "Leader Details"},
	{Name: RouteEvents, Path: "/events", Title: "Live Events"},
}

// Lookup returns the route named name.
func Lookup(name string) (Spec, bool) {
	for _, spec := range Routes {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

func mustLookup(name string) Spec {
	spec, ok := Lookup(name)
	if !ok {
		panic("guard: unknown route " + name)
	}
	return spec
}

// ForPath resolves a request path to its route. Sub-paths such as
// /about-details/{id} belong to their section; unknown paths resolve to the
// public not-found route.
func ForPath(path string) Spec {
	path = "/" + strings.Trim(path, "/")
	if path == dashboardAliasPath {
		return mustLookup(RouteDashboard)
	}

	for _, spec := range Routes {
		if spec.Path == "" {
			continue
		}
		if spec.Path == path || (spec.Path != "/" && strings.HasPrefix(path, spec.Path+"/")) {
			return spec
		}
	}
	return mustLookup(RouteNotFound)
}

// IsAlias reports whether path only redirects to another route.
func IsAlias(path string) bool {
	return "/"+strings.Trim(path, "/") == dashboardAliasPath
}
