package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go-admin-console/internal/config"
	"go-admin-console/internal/content"
	"go-admin-console/internal/event"
	"go-admin-console/internal/gateway"
	"go-admin-console/internal/guard"
	"go-admin-console/internal/handler"
	"go-admin-console/internal/model"
	"go-admin-console/internal/remote"
	"go-admin-console/internal/resource"
	"go-admin-console/internal/router"
	"go-admin-console/internal/session"
	"go-admin-console/internal/websocket"
)

type App struct {
	cfg          *config.Config
	server       *http.Server
	bus          *event.InMemoryBus
	sessions     *session.Manager
	navigator    *navigator
	hub          *websocket.Hub
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	return build(cfg, &http.Client{Timeout: cfg.APITimeout})
}

func build(cfg *config.Config, client *http.Client) (*App, error) {
	persist, err := session.NewFileCredentialStore(cfg.TokenFile, cfg.TokenEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}

	slog.Debug("session credential file", "path", persist.Path(), "encrypted", cfg.TokenEncryptionKey != "")

	bus := event.NewBus()
	store := session.NewStore(persist)

	gw, err := gateway.New(cfg.APIURL, client, store, bus)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gateway: %w", err)
	}
	gw.SetRateLimit(cfg.APIRateLimitRPS, cfg.APIRateLimitBurst)
	api := remote.NewClient(gw)

	nav := &navigator{bus: bus, location: "/"}
	sessions := session.NewManager(store, api, bus, nav)
	if login, ok := guard.Lookup(guard.RouteLogin); ok {
		sessions.SetLoginPath(login.Path)
	}
	gate := guard.NewGate(sessions)

	lists := resource.NewCache[[]model.Item]()
	controllers := make([]*resource.Controller[model.Item], 0, len(content.Collections))
	for _, kind := range content.Collections {
		controllers = append(controllers, resource.NewController[model.Item](kind, api.Collection(kind.Name), lists, store, bus))
	}
	leaders := resource.NewLeaderController(api.Leaders(), nil, store, bus)
	hub := websocket.NewHub(bus, cfg.CORSOrigins)

	appRouter := router.New(cfg, gate, router.Handlers{
		Auth:    handler.NewAuthHandler(sessions),
		Pages:   handler.NewPageHandler(store),
		Users:   handler.NewUserHandler(api),
		Content: handler.NewContentHandler(controllers, gw.BaseURL(), cfg.MaxUploadSize),
		Leaders: handler.NewLeaderHandler(leaders, gw.BaseURL(), cfg.MaxUploadSize),
		Events:  hub,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ConsolePort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		cfg:       cfg,
		server:    server,
		bus:       bus,
		sessions:  sessions,
		navigator: nav,
		hub:       hub,
		cleanupFuncs: []func(){
			sessions.Close,
		},
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Location is where the console last navigated on its own, for example the
// login page after a logout.
func (a *App) Location() string {
	return a.navigator.current()
}

// Start recovers the persisted session in the background, logs bus traffic
// and serves the live event feed until ctx ends. Guarded routes answer "loading" until recovery
// finishes.
func (a *App) Start(ctx context.Context) {
	events, unsubscribe := a.bus.Subscribe()
	go watchEvents(ctx, events, unsubscribe)
	go a.hub.Run(ctx)

	go func() {
		if err := a.sessions.Recover(ctx); err != nil {
			slog.Warn("stored session discarded", "error", err)
			return
		}
		snap := a.sessions.Snapshot()
		slog.Info("session recovery finished", "authenticated", snap.Authenticated)
	}()
}

func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)

	go func() {
		slog.Info("console starting", "addr", a.server.Addr, "api_url", a.cfg.APIURL)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("console failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	cancel()
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("console stopped")
	return nil
}

func watchEvents(ctx context.Context, events <-chan event.Event, unsubscribe func()) {
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			attrs := []any{"type", e.Type, "event_id", e.ID}
			if e.ActorID != "" {
				attrs = append(attrs, "actor_id", e.ActorID)
			}
			for key, value := range e.Payload {
				attrs = append(attrs, key, value)
			}
			slog.Debug("event", attrs...)
		}
	}
}

// navigator records console-initiated navigation and announces it on the bus.
type navigator struct {
	bus      event.Bus
	mu       sync.Mutex
	location string
}

func (n *navigator) Navigate(path string) {
	n.mu.Lock()
	n.location = path
	n.mu.Unlock()

	slog.Debug("navigate", "path", path)
	n.bus.Publish(event.New(event.TypeNavigate, map[string]string{"path": path}))
}

func (n *navigator) current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}
