package guard

import "go-admin-console/internal/session"

type MenuItem struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

var menuOrder = []string{
	RouteDashboard,
	RouteHomepage,
	RouteAbout,
	RouteGallery,
	RouteAhval,
	RouteLeaderDetails,
	RouteUsers,
	RouteSettings,
}

// Menu lists the navigation entries snap may open, in display order.
func Menu(snap session.Snapshot) []MenuItem {
	items := make([]MenuItem, 0, len(menuOrder))
	for _, name := range menuOrder {
		spec := mustLookup(name)
		if spec.RequiredRole != "" && !snap.HasRole(spec.RequiredRole) {
			continue
		}
		items = append(items, MenuItem{Title: spec.Title, Path: spec.Path})
	}
	return items
}
