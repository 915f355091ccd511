package resource

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-admin-console/internal/content"
	"go-admin-console/internal/event"
	"go-admin-console/internal/gateway"
	"go-admin-console/internal/model"
	"go-admin-console/internal/remote"
	"go-admin-console/internal/remotetest"
	"go-admin-console/internal/session"
	"go-admin-console/pkg/apierror"
)

func pngUpload(t *testing.T, name string) model.Upload {
	t.Helper()

	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 3, 3))))
	return model.Upload{Filename: name, Data: buf.Bytes()}
}

func textForm(fields map[string]string, files ...model.Upload) model.Form {
	return model.Form{Fields: fields, Files: files}
}

var (
	always = ConfirmFunc(func(string) bool { return true })
	never  = ConfirmFunc(func(string) bool { return false })
)

type harness struct {
	api    *remotetest.Server
	client *remote.Client
	store  *session.Store
	bus    *event.InMemoryBus
}

// newHarness logs role into a session whose credential the gateway reads on
// every call.
func newHarness(t *testing.T, role string) *harness {
	t.Helper()

	api := remotetest.New(t)
	identity := api.AddUser("Operator", "op@village.in", "pw", role)

	store := session.NewStore(nil)
	require.NoError(t, store.Set(api.Token(identity, time.Hour), identity))
	store.FinishLoading()

	bus := event.NewBus()
	gw, err := gateway.New(api.URL(), api.Client(), store, bus)
	require.NoError(t, err)

	return &harness{api: api, client: remote.NewClient(gw), store: store, bus: bus}
}

func (h *harness) about() *Controller[model.Item] {
	return NewController[model.Item](content.About, h.client.Collection(content.About.Name), nil, h.store, h.bus)
}

func TestController_RefetchAfterMutation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.RoleAdmin)
	h.api.Seed(content.About.Name, model.Item{Fields: map[string]string{"title": "Old", "description": "D"}})
	ctrl := h.about()
	ctx := context.Background()

	items, hit, err := ctrl.List(ctx)
	require.NoError(t, err)
	require.False(t, hit)
	require.Len(t, items, 1)

	_, hit, err = ctrl.List(ctx)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 1, h.api.Reads(content.About.Name))

	require.NoError(t, ctrl.Create(ctx, textForm(map[string]string{"title": "New", "description": "D2"}, pngUpload(t, "n.png"))))
	require.False(t, ctrl.Dialog().Open())

	items, hit, err = ctrl.List(ctx)
	require.NoError(t, err)
	require.False(t, hit)
	require.Len(t, items, 2)
	require.Equal(t, 2, h.api.Reads(content.About.Name))
	require.Equal(t, StateReady, ctrl.Status().State)
}

func TestController_AboutValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.RoleAdmin)
	seeded := h.api.Seed(content.About.Name, model.Item{Fields: map[string]string{"title": "T", "description": "D"}, ImagePath: "/uploads/a.png"})
	ctrl := h.about()
	ctx := context.Background()

	fields := map[string]string{"title": "Village", "description": "About us"}
	require.NoError(t, ctrl.OpenCreate())
	err := ctrl.Save(ctx, textForm(fields))

	var verr *content.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Image file is required", verr.Message)
	require.Zero(t, h.api.Calls(http.MethodPost, "/about-details"))

	dialog := ctrl.Dialog()
	require.Equal(t, DialogCreate, dialog.Mode)
	require.Equal(t, "Image file is required", dialog.Error)
	require.Equal(t, "Village", dialog.Form.Field("title"))

	require.NoError(t, ctrl.Update(ctx, seeded[0].ID, textForm(fields)))
	require.Equal(t, 1, h.api.Calls(http.MethodPut, "/about-details/"+seeded[0].ID))

	stored := h.api.Items(content.About.Name)
	require.Equal(t, "Village", stored[0].Field("title"))
	require.Equal(t, "/uploads/a.png", stored[0].ImagePath)
}

func TestController_OpenEditPrefills(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.RoleAdmin)
	seeded := h.api.Seed(content.About.Name, model.Item{Fields: map[string]string{"title": "T", "description": "D"}})
	ctrl := h.about()

	require.NoError(t, ctrl.OpenEdit(context.Background(), seeded[0].ID))
	dialog := ctrl.Dialog()
	require.Equal(t, DialogEdit, dialog.Mode)
	require.Equal(t, seeded[0].ID, dialog.ItemID)
	require.Equal(t, "T", dialog.Form.Field("title"))

	ctrl.Close()
	require.False(t, ctrl.Dialog().Open())

	err := ctrl.OpenEdit(context.Background(), "missing")
	require.ErrorIs(t, err, model.ErrItemNotFound)
}

func TestController_NonAdminCannotMutate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "editor")
	seeded := h.api.Seed(content.About.Name, model.Item{Fields: map[string]string{"title": "T", "description": "D"}})
	ctrl := h.about()
	ctx := context.Background()

	require.False(t, ctrl.CanMutate())

	err := ctrl.Create(ctx, textForm(map[string]string{"title": "T", "description": "D"}, pngUpload(t, "a.png")))
	require.True(t, apierror.HasCode(err, apierror.CodeForbidden))

	err = ctrl.Remove(ctx, seeded[0].ID, always)
	require.True(t, apierror.HasCode(err, apierror.CodeForbidden))

	require.Zero(t, h.api.Calls(http.MethodPost, "/about-details"))
	require.Zero(t, h.api.Calls(http.MethodDelete, "/about-details/"+seeded[0].ID))

	_, _, err = ctrl.List(ctx)
	require.NoError(t, err)
	require.Contains(t, ctrl.Status().Notices, content.About.ReadOnlyNotice())
}

func TestController_Remove(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.RoleAdmin)
	seeded := h.api.Seed(content.Gallery.Name, model.Item{Fields: map[string]string{"title": "Fair"}, ImagePaths: []string{"/uploads/1.png"}})
	ctrl := NewController[model.Item](content.Gallery, h.client.Collection(content.Gallery.Name), nil, h.store, h.bus)
	ctx := context.Background()

	var prompt string
	err := ctrl.Remove(ctx, seeded[0].ID, ConfirmFunc(func(p string) bool {
		prompt = p
		return false
	}))
	require.ErrorIs(t, err, model.ErrNotConfirmed)
	require.Equal(t, "Delete this gallery entry?", prompt)
	require.Zero(t, h.api.Calls(http.MethodDelete, "/gallery-details/"+seeded[0].ID))

	require.ErrorIs(t, ctrl.Remove(ctx, seeded[0].ID, nil), model.ErrNotConfirmed)

	require.NoError(t, ctrl.Remove(ctx, seeded[0].ID, always))
	items, hit, err := ctrl.List(ctx)
	require.NoError(t, err)
	require.False(t, hit)
	require.Empty(t, items)
	require.Contains(t, ctrl.Status().Notices, content.Gallery.EmptyNotice())
}

func TestController_RemoteFailureKeepsDialogAndCache(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.RoleAdmin)
	h.api.Seed(content.About.Name, model.Item{Fields: map[string]string{"title": "T", "description": "D"}})
	ctrl := h.about()
	ctx := context.Background()

	events, unsubscribe := h.bus.Subscribe()
	t.Cleanup(unsubscribe)

	_, _, err := ctrl.List(ctx)
	require.NoError(t, err)

	h.api.Fail(http.MethodPost, "/about-details", http.StatusBadRequest, "Title already used", 1)
	err = ctrl.Create(ctx, textForm(map[string]string{"title": "T", "description": "D"}, pngUpload(t, "a.png")))
	require.Equal(t, "Title already used", apierror.UserMessage(err, ""))

	dialog := ctrl.Dialog()
	require.True(t, dialog.Open())
	require.Equal(t, "Title already used", dialog.Error)

	_, hit, err := ctrl.List(ctx)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 1, h.api.Reads(content.About.Name))

	select {
	case e := <-events:
		require.Equal(t, event.TypeMutationFailed, e.Type)
		require.Equal(t, content.About.Name, e.Payload["resource"])
	case <-time.After(time.Second):
		t.Fatal("expected a mutation failure event")
	}

	h.api.Fail(http.MethodPost, "/about-details", http.StatusInternalServerError, "", 1)
	err = ctrl.Save(ctx, textForm(map[string]string{"title": "T", "description": "D"}, pngUpload(t, "a.png")))
	require.Equal(t, "Failed to save about detail", apierror.UserMessage(err, ""))
}

func TestController_LoadFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, model.RoleAdmin)
	ctrl := h.about()

	h.api.Fail(http.MethodGet, "/about-details", http.StatusInternalServerError, "", 1)
	_, _, err := ctrl.List(context.Background())
	require.Error(t, err)

	st := ctrl.Status()
	require.Equal(t, StateFailed, st.State)
	require.Equal(t, "Failed to load about details", st.Error)
}

type mockCollection struct {
	mock.Mock
}

func (m *mockCollection) List(ctx context.Context) ([]model.Item, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Item)
	return items, args.Error(1)
}

func (m *mockCollection) Create(ctx context.Context, payload *gateway.Multipart) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *mockCollection) Update(ctx context.Context, id string, payload *gateway.Multipart) error {
	return m.Called(ctx, id, payload).Error(0)
}

func (m *mockCollection) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestController_OneMutationInFlight(t *testing.T) {
	t.Parallel()

	store := session.NewStore(nil)
	require.NoError(t, store.Set("T1", model.Identity{ID: "1", Role: model.RoleAdmin}))

	started := make(chan struct{})
	release := make(chan struct{})
	api := &mockCollection{}
	api.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(nil).Once()

	ctrl := NewController[model.Item](content.Homepage, api, nil, store, nil)
	ctx := context.Background()
	form := textForm(map[string]string{"title": "T", "description": "D"}, pngUpload(t, "a.png"))

	done := make(chan error, 1)
	go func() { done <- ctrl.Create(ctx, form) }()
	<-started

	require.True(t, ctrl.Busy())
	require.ErrorIs(t, ctrl.Remove(ctx, "1", always), model.ErrMutationInFlight)
	require.ErrorIs(t, ctrl.Save(ctx, form), model.ErrMutationInFlight)
	require.ErrorIs(t, ctrl.OpenCreate(), model.ErrMutationInFlight)

	close(release)
	require.NoError(t, <-done)
	require.False(t, ctrl.Busy())
	api.AssertExpectations(t)
	api.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestController_SaveWithoutDialog(t *testing.T) {
	t.Parallel()

	store := session.NewStore(nil)
	require.NoError(t, store.Set("T1", model.Identity{ID: "1", Role: model.RoleAdmin}))
	api := &mockCollection{}

	ctrl := NewController[model.Item](content.Ahval, api, nil, store, nil)
	err := ctrl.Save(context.Background(), textForm(nil))
	require.True(t, errors.Is(err, model.ErrInvalidInput))
	api.AssertExpectations(t)
}
