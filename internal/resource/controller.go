// Package resource drives the list, create, edit and delete flows of the
// content sections against the remote API, with a read-through cache that is
// invalidated after every successful mutation.
package resource

import (
	"context"
	"fmt"
	"net/http"

	"go-admin-console/internal/content"
	"go-admin-console/internal/event"
	"go-admin-console/internal/gateway"
	"go-admin-console/internal/model"
	"go-admin-console/internal/session"
	"go-admin-console/pkg/apierror"
)

// Record is a server-owned item of an id-keyed collection.
type Record interface {
	Key() string
	Field(name string) string
}

// CollectionAPI is the remote surface of one id-keyed content type.
type CollectionAPI[T Record] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload *gateway.Multipart) error
	Update(ctx context.Context, id string, payload *gateway.Multipart) error
	Delete(ctx context.Context, id string) error
}

type Controller[T Record] struct {
	desk
	api   CollectionAPI[T]
	cache *Cache[[]T]
}

// NewController binds kind to api. cache may be shared between controllers;
// entries are keyed by the kind name.
func NewController[T Record](kind content.Kind, api CollectionAPI[T], cache *Cache[[]T], reader session.Reader, bus event.Bus) *Controller[T] {
	if cache == nil {
		cache = NewCache[[]T]()
	}
	return &Controller[T]{
		desk:  desk{kind: kind, session: reader, bus: bus},
		api:   api,
		cache: cache,
	}
}

func (c *Controller[T]) Kind() content.Kind {
	return c.kind
}

// List returns the items of the collection and whether they came from the
// cache.
func (c *Controller[T]) List(ctx context.Context) ([]T, bool, error) {
	_, cached := c.cache.Get(c.kind.Name)
	c.loading(cached)

	items, hit, err := ReadThrough(ctx, c.cache, c.kind.Name, c.api.List)
	c.loaded(err)
	if err != nil {
		return nil, false, apierror.WithFallback(err, c.kind.LoadFailedMessage())
	}
	return items, hit, nil
}

func (c *Controller[T]) OpenCreate() error {
	return c.open(DialogCreate, "", model.Form{Fields: map[string]string{}})
}

// OpenEdit opens the dialog prefilled from the listed item with id.
func (c *Controller[T]) OpenEdit(ctx context.Context, id string) error {
	items, _, err := c.List(ctx)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.Key() == id {
			return c.open(DialogEdit, id, c.kind.Prefill(item))
		}
	}
	return fmt.Errorf("%w: %s %q", model.ErrItemNotFound, c.kind.Noun, id)
}

// Save submits form through the open dialog: a create, or an update of the
// item being edited.
func (c *Controller[T]) Save(ctx context.Context, form model.Form) error {
	if err := c.authorize(); err != nil {
		return err
	}

	dialog := c.Dialog()
	if !dialog.Open() {
		return fmt.Errorf("%w: no %s dialog is open", model.ErrInvalidInput, c.kind.Noun)
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	editing := dialog.Mode == DialogEdit
	if err := c.kind.Validate(form, editing); err != nil {
		c.rejected(form, err)
		return err
	}
	payload, err := c.kind.Payload(form)
	if err != nil {
		c.rejected(form, err)
		return err
	}

	op := "create"
	if editing {
		op = "update"
		err = c.api.Update(ctx, dialog.ItemID, payload)
	} else {
		err = c.api.Create(ctx, payload)
	}
	if err != nil {
		return c.failed(op, c.kind.Name, err, c.kind.SaveFailedMessage())
	}

	c.cache.Invalidate(c.kind.Name)
	c.succeeded(op, c.kind.Name)
	return nil
}

func (c *Controller[T]) Create(ctx context.Context, form model.Form) error {
	if err := c.authorize(); err != nil {
		return err
	}
	if err := c.OpenCreate(); err != nil {
		return err
	}
	return c.Save(ctx, form)
}

func (c *Controller[T]) Update(ctx context.Context, id string, form model.Form) error {
	if err := c.authorize(); err != nil {
		return err
	}
	if err := c.OpenEdit(ctx, id); err != nil {
		return err
	}
	return c.Save(ctx, form)
}

// Remove deletes the item with id once confirm agrees. Nothing is sent when
// it declines.
func (c *Controller[T]) Remove(ctx context.Context, id string, confirm Confirmer) error {
	if err := c.authorize(); err != nil {
		return err
	}
	if id == "" {
		return apierror.New(apierror.CodeBadRequest, "Item id is required", c.kind.Name, http.StatusBadRequest)
	}
	if confirm == nil || !confirm.Confirm(c.kind.DeletePrompt()) {
		return model.ErrNotConfirmed
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.api.Delete(ctx, id); err != nil {
		return c.failed("delete", c.kind.Name, err, c.kind.DeleteFailedMessage())
	}

	c.cache.Invalidate(c.kind.Name)
	c.succeeded("delete", c.kind.Name)
	return nil
}

// Status describes the controller for rendering. The empty notice is added
// when the cached list has no items.
func (c *Controller[T]) Status() Status {
	st := c.status()
	if items, ok := c.cache.Get(c.kind.Name); ok && len(items) == 0 {
		st.Notices = append([]string{c.kind.EmptyNotice()}, st.Notices...)
	}
	return st
}
