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

// LeaderAPI is the remote surface of the role-keyed leader records.
type LeaderAPI interface {
	Get(ctx context.Context, role string) (*model.Item, error)
	Upsert(ctx context.Context, role string, payload *gateway.Multipart) error
	Delete(ctx context.Context, role string) error
}

// LeaderKey is the cache key of one role's record.
func LeaderKey(role string) string {
	return content.Leader.Name + "/" + role
}

// LeaderSection is one role's slot on the leader screen.
type LeaderSection struct {
	Role      content.LeaderRole `json:"role"`
	Record    *model.Item        `json:"record"`
	Error     string             `json:"error,omitempty"`
	CanDelete bool               `json:"can_delete"`
}

// LeaderController manages at most one record per leader role. Create and
// update collapse into an upsert by role.
type LeaderController struct {
	desk
	api   LeaderAPI
	cache *Cache[*model.Item]
}

func NewLeaderController(api LeaderAPI, cache *Cache[*model.Item], reader session.Reader, bus event.Bus) *LeaderController {
	if cache == nil {
		cache = NewCache[*model.Item]()
	}
	return &LeaderController{
		desk:  desk{kind: content.Leader, session: reader, bus: bus},
		api:   api,
		cache: cache,
	}
}

func (l *LeaderController) Kind() content.Kind {
	return l.kind
}

func (l *LeaderController) role(key string) (content.LeaderRole, error) {
	role, ok := content.LookupLeaderRole(key)
	if !ok {
		return content.LeaderRole{}, fmt.Errorf("%w: unknown leader role %q", model.ErrInvalidInput, key)
	}
	return role, nil
}

// Get returns the record of role, nil when the role has none, and whether it
// came from the cache.
func (l *LeaderController) Get(ctx context.Context, role string) (*model.Item, bool, error) {
	if _, err := l.role(role); err != nil {
		return nil, false, err
	}

	key := LeaderKey(role)
	record, hit, err := ReadThrough(ctx, l.cache, key, func(ctx context.Context) (*model.Item, error) {
		return l.api.Get(ctx, role)
	})
	if err != nil {
		return nil, false, apierror.WithFallback(err, l.kind.LoadFailedMessage())
	}
	return record, hit, nil
}

// Sections loads every role. A failed role carries its own error and does
// not hide the others.
func (l *LeaderController) Sections(ctx context.Context) []LeaderSection {
	canMutate := l.CanMutate()
	cached := true
	for _, role := range content.LeaderRoles {
		if _, ok := l.cache.Get(LeaderKey(role.Key)); !ok {
			cached = false
		}
	}
	l.loading(cached)

	var firstErr error
	sections := make([]LeaderSection, 0, len(content.LeaderRoles))
	for _, role := range content.LeaderRoles {
		section := LeaderSection{Role: role}
		record, _, err := l.Get(ctx, role.Key)
		if err != nil {
			section.Error = apierror.UserMessage(err, l.kind.LoadFailedMessage())
			if firstErr == nil {
				firstErr = err
			}
		}
		section.Record = record
		section.CanDelete = canMutate && record != nil
		sections = append(sections, section)
	}

	l.loaded(firstErr)
	return sections
}

// OpenEdit opens the dialog for role, prefilled from its record when one
// exists. The dialog is in edit mode only for an existing record.
func (l *LeaderController) OpenEdit(ctx context.Context, role string) error {
	record, _, err := l.Get(ctx, role)
	if err != nil {
		return err
	}
	if record == nil {
		return l.open(DialogCreate, role, model.Form{Fields: map[string]string{}})
	}
	return l.open(DialogEdit, role, l.kind.Prefill(record))
}

// Save upserts the record of the role the dialog is open for. An image is
// only required when the role has no record yet.
func (l *LeaderController) Save(ctx context.Context, form model.Form) error {
	if err := l.authorize(); err != nil {
		return err
	}

	dialog := l.Dialog()
	if !dialog.Open() || dialog.ItemID == "" {
		return fmt.Errorf("%w: no %s dialog is open", model.ErrInvalidInput, l.kind.Noun)
	}

	if err := l.begin(); err != nil {
		return err
	}
	defer l.end()

	if err := l.kind.Validate(form, dialog.Mode == DialogEdit); err != nil {
		l.rejected(form, err)
		return err
	}
	payload, err := l.kind.Payload(form)
	if err != nil {
		l.rejected(form, err)
		return err
	}

	key := LeaderKey(dialog.ItemID)
	if err := l.api.Upsert(ctx, dialog.ItemID, payload); err != nil {
		return l.failed("upsert", key, err, l.kind.SaveFailedMessage())
	}

	l.cache.Invalidate(key)
	l.succeeded("upsert", key)
	return nil
}

func (l *LeaderController) Upsert(ctx context.Context, role string, form model.Form) error {
	if err := l.authorize(); err != nil {
		return err
	}
	if err := l.OpenEdit(ctx, role); err != nil {
		return err
	}
	return l.Save(ctx, form)
}

// Remove deletes the record of role. Roles without a record cannot be
// deleted; other roles are left untouched.
func (l *LeaderController) Remove(ctx context.Context, role string, confirm Confirmer) error {
	if err := l.authorize(); err != nil {
		return err
	}

	record, _, err := l.Get(ctx, role)
	if err != nil {
		return err
	}
	if record == nil {
		return apierror.New(apierror.CodeNotFound, "No leader details to delete", LeaderKey(role), http.StatusNotFound)
	}
	if confirm == nil || !confirm.Confirm(l.kind.DeletePrompt()) {
		return model.ErrNotConfirmed
	}

	if err := l.begin(); err != nil {
		return err
	}
	defer l.end()

	key := LeaderKey(role)
	if err := l.api.Delete(ctx, role); err != nil {
		return l.failed("delete", key, err, l.kind.DeleteFailedMessage())
	}

	l.cache.Invalidate(key)
	l.succeeded("delete", key)
	return nil
}

func (l *LeaderController) Status() Status {
	return l.status()
}
