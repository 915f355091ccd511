package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go-admin-console/internal/event"
	"go-admin-console/internal/model"
	"go-admin-console/internal/token"
	"go-admin-console/pkg/apierror"
)

const (
	loginFallback    = "Login failed. Please try again."
	registerFallback = "Registration failed. Please try again."
)

// AuthAPI is the remote authentication surface the Manager drives.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error)
	Me(ctx context.Context) (model.Identity, error)
}

// Navigator moves the operator to another console location.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Manager is the only writer of the Store. It owns login, registration,
// logout, startup recovery, and the reaction to unauthorized responses seen
// by the gateway.
type Manager struct {
	store     *Store
	auth      AuthAPI
	bus       event.Bus
	navigator Navigator
	loginPath string
	now       func() time.Time

	events      <-chan event.Event
	unsubscribe func()

	recoverOnce sync.Once
	mu          sync.Mutex
	lastError   string
}

func NewManager(store *Store, auth AuthAPI, bus event.Bus, navigator Navigator) *Manager {
	if navigator == nil {
		navigator = NavigatorFunc(func(string) {})
	}

	m := &Manager{
		store:     store,
		auth:      auth,
		bus:       bus,
		navigator: navigator,
		loginPath: "/login",
		now:       time.Now,
	}

	if bus != nil {
		m.events, m.unsubscribe = bus.Subscribe()
	}

	return m
}

func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) SetLoginPath(path string) {
	if strings.TrimSpace(path) != "" {
		m.loginPath = path
	}
}

// Close stops observing gateway events.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Manager) Snapshot() Snapshot {
	return m.store.Snapshot()
}

func (m *Manager) Reader() Reader {
	return m.store
}

// Recover restores the persisted session once per process. It clears the
// loading flag on every exit path.
func (m *Manager) Recover(ctx context.Context) error {
	err := errors.New("session already recovered")
	m.recoverOnce.Do(func() {
		err = m.recover(ctx)
	})
	return err
}

func (m *Manager) recover(ctx context.Context) error {
	defer m.store.FinishLoading()

	raw, err := m.store.Init()
	if err != nil {
		slog.Warn("session recovery could not read credential", "error", err)
		m.Logout()
		return err
	}

	if raw == "" {
		slog.Info("no persisted session")
		return nil
	}

	claims, err := token.Decode(raw)
	if err != nil {
		slog.Warn("persisted credential is malformed", "error", err)
		m.Logout()
		return err
	}

	if claims.Expired(m.now()) {
		slog.Info("persisted credential expired", "subject", claims.Subject, "expired_at", time.Unix(claims.ExpiresAt, 0).UTC())
		m.Logout()
		return model.ErrExpired
	}

	m.store.Attach(raw)

	identity, err := m.auth.Me(ctx)
	if err != nil {
		slog.Warn("identity fetch failed during recovery", "error", err)
		m.Logout()
		return fmt.Errorf("fetch identity: %w", err)
	}

	if err := m.store.Set(raw, identity); err != nil {
		slog.Warn("session recovered but not persisted", "error", err)
	}
	m.publish(event.TypeSessionStarted, identity.ID, raw)
	slog.Info("session recovered", "user_id", identity.ID, "role", identity.Role, "expires_in", claims.ExpiresIn(m.now()).Round(time.Second))

	return nil
}

func (m *Manager) Login(ctx context.Context, email string, password string) error {
	m.setLastError("")

	resp, err := m.auth.Login(ctx, model.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return m.fail("login", err, loginFallback)
	}

	return m.establish(resp, loginFallback)
}

func (m *Manager) Register(ctx context.Context, profile model.RegisterRequest) error {
	m.setLastError("")

	profile.Email = strings.TrimSpace(profile.Email)
	profile.Name = strings.TrimSpace(profile.Name)

	resp, err := m.auth.Register(ctx, profile)
	if err != nil {
		return m.fail("register", err, registerFallback)
	}

	return m.establish(resp, registerFallback)
}

func (m *Manager) establish(resp model.AuthResponse, fallback string) error {
	if strings.TrimSpace(resp.Token) == "" {
		return m.fail("auth response", apierror.New(apierror.CodeRemote, "", "missing token", http.StatusBadGateway), fallback)
	}

	if err := m.store.Set(resp.Token, resp.User); err != nil {
		slog.Warn("session established but not persisted", "error", err)
	}
	m.publish(event.TypeSessionStarted, resp.User.ID, resp.Token)
	slog.Info("session established", "user_id", resp.User.ID, "role", resp.User.Role)

	return nil
}

// fail turns a remote failure into an error carrying only user-facing text.
// The store is never touched.
func (m *Manager) fail(op string, err error, fallback string) error {
	message := apierror.UserMessage(err, fallback)
	m.setLastError(message)
	slog.Warn(op+" failed", "error", err)

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apierror.New(apiErr.Code, message, "", apiErr.HTTPStatus)
	}
	return apierror.New(apierror.CodeUnavailable, message, "", http.StatusBadGateway)
}

// Logout clears the session and navigates to the login entry point. Calling
// it without a session only navigates.
func (m *Manager) Logout() {
	before := m.store.Snapshot()

	if err := m.store.Clear(); err != nil {
		slog.Warn("logout could not remove persisted credential", "error", err)
	}

	if before.Credential != "" {
		actor := ""
		if before.Identity != nil {
			actor = before.Identity.ID
		}
		m.publish(event.TypeSessionEnded, actor, before.Credential)
		slog.Info("session cleared", "user_id", actor)
	}

	m.navigator.Navigate(m.loginPath)
}

func (m *Manager) HasRole(required string) bool {
	return m.store.Snapshot().HasRole(required)
}

// Reconcile applies unauthorized responses observed since the last call. A
// 401 for the credential that is still attached ends the session. It reports
// whether a logout happened.
func (m *Manager) Reconcile() bool {
	if m.events == nil {
		return false
	}

	current := token.Fingerprint(m.store.Credential())
	stale := false

	for drained := false; !drained; {
		select {
		case e, ok := <-m.events:
			if !ok {
				m.events = nil
				drained = true
				continue
			}
			if e.Type == event.TypeUnauthorized && current != "" && e.Payload["credential"] == current {
				stale = true
			}
		default:
			drained = true
		}
	}

	if !stale {
		return false
	}

	slog.Warn("remote API rejected the session credential, logging out")
	m.Logout()
	return true
}

func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *Manager) setLastError(message string) {
	m.mu.Lock()
	m.lastError = message
	m.mu.Unlock()
}

func (m *Manager) publish(t event.Type, actor string, credential string) {
	if m.bus == nil {
		return
	}
	e := event.New(t, map[string]string{"credential": token.Fingerprint(credential)})
	e.ActorID = actor
	m.bus.Publish(e)
}
