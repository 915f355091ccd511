package resource

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"go-admin-console/internal/content"
	"go-admin-console/internal/event"
	"go-admin-console/internal/model"
	"go-admin-console/internal/session"
	"go-admin-console/pkg/apierror"
)

// desk is the state shared by every controller: load state, the dialog, and
// the single outstanding mutation.
type desk struct {
	kind    content.Kind
	session session.Reader
	bus     event.Bus

	mu      sync.Mutex
	state   State
	lastErr string
	dialog  Dialog
	busy    bool
}

// CanMutate reports whether the current session may create, edit or delete.
func (d *desk) CanMutate() bool {
	return d.session != nil && d.session.Snapshot().IsAdmin()
}

func (d *desk) authorize() error {
	if d.CanMutate() {
		return nil
	}
	return apierror.New(apierror.CodeForbidden, "Only admins can add/edit/delete.", d.kind.Name, http.StatusForbidden)
}

func (d *desk) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

func (d *desk) Dialog() Dialog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialog
}

func (d *desk) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialog = Dialog{}
}

func (d *desk) open(mode DialogMode, id string, form model.Form) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		return model.ErrMutationInFlight
	}
	d.dialog = Dialog{Mode: mode, ItemID: id, Form: form}
	return nil
}

// begin claims the mutation slot. Callers must call end.
func (d *desk) begin() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		return model.ErrMutationInFlight
	}
	d.busy = true
	return nil
}

func (d *desk) end() {
	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()
}

func (d *desk) loading(cached bool) {
	if cached {
		return
	}
	d.mu.Lock()
	d.state = StateLoading
	d.mu.Unlock()
}

func (d *desk) loaded(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.state = StateFailed
		d.lastErr = apierror.UserMessage(err, d.kind.LoadFailedMessage())
		return
	}
	d.state = StateReady
	d.lastErr = ""
}

// rejected keeps the submitted form in the open dialog with an inline error.
func (d *desk) rejected(form model.Form, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var verr *content.ValidationError
	message := err.Error()
	if errors.As(err, &verr) {
		message = verr.Message
	}
	if d.dialog.Open() {
		d.dialog.Form = form
		d.dialog.Error = message
	}
}

// failed records a remote mutation failure. The cache is left as it was.
func (d *desk) failed(op string, key string, err error, fallback string) error {
	apiErr := apierror.WithFallback(err, fallback)

	d.mu.Lock()
	if d.dialog.Open() {
		d.dialog.Error = apiErr.Message
	} else {
		d.lastErr = apiErr.Message
	}
	d.mu.Unlock()

	slog.Warn("content mutation failed", "op", op, "resource", key, "code", apiErr.Code, "error", apiErr.Message)
	d.publish(event.TypeMutationFailed, map[string]string{"resource": key, "op": op, "message": apiErr.Message})
	return apiErr
}

// succeeded closes the dialog after the cache entry was dropped.
func (d *desk) succeeded(op string, key string) {
	d.mu.Lock()
	d.dialog = Dialog{}
	d.lastErr = ""
	d.mu.Unlock()

	slog.Info("content mutated", "op", op, "resource", key)
	d.publish(event.TypeCacheInvalidated, map[string]string{"resource": key, "op": op})
}

func (d *desk) status() Status {
	canMutate := d.CanMutate()

	d.mu.Lock()
	defer d.mu.Unlock()

	st := Status{
		State:     d.state,
		Error:     d.lastErr,
		Dialog:    d.dialog,
		Busy:      d.busy,
		CanMutate: canMutate,
	}
	if !canMutate {
		st.Notices = append(st.Notices, d.kind.ReadOnlyNotice())
	}
	return st
}

func (d *desk) publish(t event.Type, payload map[string]string) {
	if d.bus == nil {
		return
	}
	e := event.New(t, payload)
	if d.session != nil {
		if snap := d.session.Snapshot(); snap.Identity != nil {
			e.ActorID = snap.Identity.ID
		}
	}
	d.bus.Publish(e)
}
