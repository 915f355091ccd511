package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-admin-console/internal/config"
	"go-admin-console/internal/guard"
	"go-admin-console/internal/handler"
	"go-admin-console/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Pages   *handler.PageHandler
	Users   *handler.UserHandler
	Content *handler.ContentHandler
	Leaders *handler.LeaderHandler
	Events  http.Handler
}

func New(cfg *config.Config, gate *guard.Gate, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/session", h.Auth.Session)
	r.Get("/dashboard", h.Pages.DashboardAlias)
	r.Get("/unauthorized", h.Pages.Unauthorized)

	r.Group(func(public chi.Router) {
		public.Use(middleware.Timeout(cfg.RequestTimeout))

		public.Get("/login", h.Auth.LoginPage)
		public.Post("/login", h.Auth.Login)
		public.Get("/register", h.Auth.RegisterPage)
		public.Post("/register", h.Auth.Register)
		public.Post("/logout", h.Auth.Logout)
	})

	r.Group(func(guarded chi.Router) {
		guarded.Use(middleware.Navigation(gate))

		// Long-lived; kept outside the request timeout.
		guarded.Get("/events", h.Events.ServeHTTP)

		guarded.Group(func(timed chi.Router) {
			timed.Use(middleware.Timeout(cfg.RequestTimeout))

			timed.Get("/", h.Pages.Dashboard)
			timed.Get("/settings", h.Pages.Settings)
			timed.Get("/users", h.Users.List)

			timed.Get("/leader-details", h.Leaders.List)
			timed.Put("/leader-details/{role}", h.Leaders.Upsert)
			timed.Delete("/leader-details/{role}", h.Leaders.Delete)

			timed.Get("/{kind}", h.Content.List)
			timed.Post("/{kind}", h.Content.Create)
			timed.Put("/{kind}/{id}", h.Content.Update)
			timed.Delete("/{kind}/{id}", h.Content.Delete)
		})
	})

	r.NotFound(h.Pages.NotFound)

	return r
}
