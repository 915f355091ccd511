package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-admin-console/internal/event"
	"go-admin-console/internal/model"
	"go-admin-console/internal/token"
	"go-admin-console/pkg/apierror"
)

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.AuthResponse), args.Error(1)
}

func (m *mockAuthAPI) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.AuthResponse), args.Error(1)
}

func (m *mockAuthAPI) Me(ctx context.Context) (model.Identity, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Identity), args.Error(1)
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "1",
		"role": "admin",
		"exp":  exp.Unix(),
	}).SignedString([]byte("remote-secret"))
	require.NoError(t, err)
	return raw
}

type fixture struct {
	persist   *MemoryCredentialStore
	store     *Store
	auth      *mockAuthAPI
	bus       *event.InMemoryBus
	navigator *recordingNavigator
	manager   *Manager
}

func newFixture(t *testing.T, persisted string) *fixture {
	t.Helper()

	f := &fixture{
		persist:   NewMemoryCredentialStore(persisted),
		auth:      new(mockAuthAPI),
		bus:       event.NewBus(),
		navigator: &recordingNavigator{},
	}
	f.store = NewStore(f.persist)
	f.manager = NewManager(f.store, f.auth, f.bus, f.navigator)
	t.Cleanup(f.manager.Close)
	return f
}

func TestManager_Recover(t *testing.T) {
	t.Parallel()

	t.Run("no persisted credential only clears loading", func(t *testing.T) {
		f := newFixture(t, "")

		require.NoError(t, f.manager.Recover(context.Background()))

		snap := f.manager.Snapshot()
		require.False(t, snap.Loading)
		require.False(t, snap.Authenticated)
		f.auth.AssertNotCalled(t, "Me", mock.Anything)
	})

	t.Run("expired credential logs out without fetching identity", func(t *testing.T) {
		for _, age := range []time.Duration{time.Second, time.Hour, 30 * 24 * time.Hour} {
			f := newFixture(t, signedToken(t, time.Now().Add(-age)))

			err := f.manager.Recover(context.Background())
			require.ErrorIs(t, err, model.ErrExpired)

			snap := f.manager.Snapshot()
			require.False(t, snap.Authenticated)
			require.False(t, snap.Loading)
			require.Empty(t, f.store.Credential())
			saved, _ := f.persist.Load()
			require.Empty(t, saved)
			require.Equal(t, []string{"/login"}, f.navigator.visited())
			f.auth.AssertNotCalled(t, "Me", mock.Anything)
		}
	})

	t.Run("expiry is judged against the manager clock", func(t *testing.T) {
		f := newFixture(t, signedToken(t, time.Now().Add(time.Hour)))
		f.manager.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })

		err := f.manager.Recover(context.Background())
		require.ErrorIs(t, err, model.ErrExpired)
		f.auth.AssertNotCalled(t, "Me", mock.Anything)
	})

	t.Run("malformed credential is treated like expiry", func(t *testing.T) {
		f := newFixture(t, "garbage")

		err := f.manager.Recover(context.Background())
		require.ErrorIs(t, err, model.ErrMalformedCredential)
		require.False(t, f.manager.Snapshot().Authenticated)
		require.False(t, f.manager.Snapshot().Loading)
		f.auth.AssertNotCalled(t, "Me", mock.Anything)
	})

	t.Run("valid credential fetches identity with the credential attached", func(t *testing.T) {
		raw := signedToken(t, time.Now().Add(time.Hour))
		f := newFixture(t, raw)

		f.auth.On("Me", mock.Anything).Run(func(mock.Arguments) {
			require.Equal(t, raw, f.store.Credential())
			require.True(t, f.store.Snapshot().Loading)
		}).Return(model.Identity{ID: "1", Name: "A", Role: "admin"}, nil).Once()

		require.NoError(t, f.manager.Recover(context.Background()))

		snap := f.manager.Snapshot()
		require.True(t, snap.Authenticated)
		require.False(t, snap.Loading)
		require.Equal(t, "A", snap.Identity.Name)
		require.Empty(t, f.navigator.visited())
		f.auth.AssertExpectations(t)
	})

	t.Run("identity fetch failure logs out", func(t *testing.T) {
		f := newFixture(t, signedToken(t, time.Now().Add(time.Hour)))
		f.auth.On("Me", mock.Anything).Return(model.Identity{}, apierror.New(apierror.CodeUnauthorized, "invalid token", "", http.StatusUnauthorized)).Once()

		require.Error(t, f.manager.Recover(context.Background()))

		snap := f.manager.Snapshot()
		require.False(t, snap.Authenticated)
		require.False(t, snap.Loading)
		require.Empty(t, f.store.Credential())
		require.Equal(t, []string{"/login"}, f.navigator.visited())
	})

	t.Run("runs once", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.manager.Recover(context.Background()))
		require.Error(t, f.manager.Recover(context.Background()))
	})
}

func TestManager_Login(t *testing.T) {
	t.Parallel()

	t.Run("success authenticates and attaches credential", func(t *testing.T) {
		f := newFixture(t, "")
		f.auth.On("Login", mock.Anything, model.LoginRequest{Email: "a@x.com", Password: "secret"}).
			Return(model.AuthResponse{Token: "T1", User: model.Identity{ID: "1", Name: "A", Role: "admin"}}, nil).Once()

		require.NoError(t, f.manager.Login(context.Background(), "a@x.com", "secret"))

		snap := f.manager.Snapshot()
		require.True(t, snap.Authenticated)
		require.Equal(t, "admin", snap.Identity.Role)
		require.Equal(t, "T1", f.manager.Reader().Credential())
		saved, _ := f.persist.Load()
		require.Equal(t, "T1", saved)
		require.Empty(t, f.manager.LastError())
	})

	t.Run("server message is surfaced and store untouched", func(t *testing.T) {
		f := newFixture(t, "")
		f.auth.On("Login", mock.Anything, mock.Anything).
			Return(model.AuthResponse{}, apierror.New(apierror.CodeUnauthorized, "Invalid email or password", "", http.StatusUnauthorized)).Once()

		err := f.manager.Login(context.Background(), "a@x.com", "wrong")
		require.Error(t, err)
		require.Equal(t, "Invalid email or password", apierror.UserMessage(err, ""))
		require.Equal(t, "Invalid email or password", f.manager.LastError())
		require.False(t, f.manager.Snapshot().Authenticated)
		require.Empty(t, f.store.Credential())
	})

	t.Run("transport failure falls back to generic message", func(t *testing.T) {
		f := newFixture(t, "")
		f.auth.On("Login", mock.Anything, mock.Anything).Return(model.AuthResponse{}, errors.New("dial tcp: refused")).Once()

		err := f.manager.Login(context.Background(), "a@x.com", "secret")
		require.Equal(t, loginFallback, apierror.UserMessage(err, ""))
	})

	t.Run("response without token is a failure", func(t *testing.T) {
		f := newFixture(t, "")
		f.auth.On("Login", mock.Anything, mock.Anything).Return(model.AuthResponse{User: model.Identity{ID: "1"}}, nil).Once()

		require.Error(t, f.manager.Login(context.Background(), "a@x.com", "secret"))
		require.False(t, f.manager.Snapshot().Authenticated)
	})
}

func TestManager_Register(t *testing.T) {
	t.Parallel()

	t.Run("success authenticates", func(t *testing.T) {
		f := newFixture(t, "")
		f.auth.On("Register", mock.Anything, model.RegisterRequest{Name: "B", Email: "b@x.com", Password: "pw"}).
			Return(model.AuthResponse{Token: "T2", User: model.Identity{ID: "2", Name: "B", Role: "editor"}}, nil).Once()

		require.NoError(t, f.manager.Register(context.Background(), model.RegisterRequest{Name: " B ", Email: "b@x.com ", Password: "pw"}))
		require.True(t, f.manager.HasRole("editor"))
		require.False(t, f.manager.HasRole("admin"))
	})

	t.Run("failure uses registration fallback", func(t *testing.T) {
		f := newFixture(t, "")
		f.auth.On("Register", mock.Anything, mock.Anything).Return(model.AuthResponse{}, apierror.New(apierror.CodeBadRequest, "", "", http.StatusBadRequest)).Once()

		err := f.manager.Register(context.Background(), model.RegisterRequest{Email: "b@x.com"})
		require.Equal(t, registerFallback, apierror.UserMessage(err, ""))
		require.True(t, apierror.HasCode(err, apierror.CodeBadRequest))
	})
}

func TestManager_Logout(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	require.NoError(t, f.store.Set("T1", model.Identity{ID: "1", Role: "admin"}))

	f.manager.Logout()
	f.manager.Logout()

	require.False(t, f.manager.Snapshot().Authenticated)
	require.Empty(t, f.store.Credential())
	require.Equal(t, []string{"/login", "/login"}, f.navigator.visited())
	require.False(t, f.manager.HasRole("viewer"))

	f.manager.SetLoginPath("  ")
	f.manager.SetLoginPath("/sign-in")
	f.manager.Logout()
	require.Equal(t, "/sign-in", f.navigator.visited()[2])
}

func TestManager_Reconcile(t *testing.T) {
	t.Parallel()

	unauthorized := func(credential string) event.Event {
		return event.New(event.TypeUnauthorized, map[string]string{"credential": token.Fingerprint(credential), "path": "/about-details"})
	}

	t.Run("401 for the attached credential ends the session", func(t *testing.T) {
		f := newFixture(t, "")
		require.NoError(t, f.store.Set("T1", model.Identity{ID: "1", Role: "admin"}))

		f.bus.Publish(unauthorized("T1"))

		require.True(t, f.manager.Reconcile())
		require.False(t, f.manager.Snapshot().Authenticated)
		require.Equal(t, []string{"/login"}, f.navigator.visited())
	})

	t.Run("401 for an older credential is ignored", func(t *testing.T) {
		f := newFixture(t, "")
		f.bus.Publish(unauthorized("T0"))
		require.NoError(t, f.store.Set("T1", model.Identity{ID: "1", Role: "admin"}))

		require.False(t, f.manager.Reconcile())
		require.True(t, f.manager.Snapshot().Authenticated)
	})

	t.Run("nothing observed is a no-op", func(t *testing.T) {
		f := newFixture(t, "")
		require.False(t, f.manager.Reconcile())
	})
}
