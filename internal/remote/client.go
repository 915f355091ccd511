// Package remote binds the content API endpoints to typed calls over the
// gateway.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"go-admin-console/internal/gateway"
	"go-admin-console/internal/model"
	"go-admin-console/pkg/apierror"
)

type Client struct {
	gw *gateway.Gateway
}

func NewClient(gw *gateway.Gateway) *Client {
	return &Client{gw: gw}
}

func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/auth/login", JSON: req}, &resp)
	return resp, err
}

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/auth/register", JSON: req}, &resp)
	return resp, err
}

// Me fetches the identity behind the attached credential. Both a bare
// identity and one wrapped as {"user": {...}} are accepted.
func (c *Client) Me(ctx context.Context) (model.Identity, error) {
	var raw json.RawMessage
	if err := c.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/auth/me"}, &raw); err != nil {
		return model.Identity{}, err
	}

	var wrapped struct {
		User *model.Identity `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}

	var identity model.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return model.Identity{}, err
	}
	return identity, nil
}

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/users"}, &users)
	return users, err
}

// Collection returns the endpoints of an id-keyed content type such as
// "about-details".
func (c *Client) Collection(name string) *Collection {
	return &Collection{gw: c.gw, base: "/" + url.PathEscape(name)}
}

func (c *Client) Leaders() *Leaders {
	return &Leaders{gw: c.gw}
}

type Collection struct {
	gw   *gateway.Gateway
	base string
}

func (c *Collection) List(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: c.base}, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (c *Collection) Create(ctx context.Context, payload *gateway.Multipart) error {
	return c.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: c.base, Form: payload}, nil)
}

func (c *Collection) Update(ctx context.Context, id string, payload *gateway.Multipart) error {
	return c.gw.Do(ctx, gateway.Request{Method: http.MethodPut, Path: c.base + "/" + url.PathEscape(id), Form: payload}, nil)
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	return c.gw.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: c.base + "/" + url.PathEscape(id)}, nil)
}

// Leaders addresses the role-keyed leader records.
type Leaders struct {
	gw *gateway.Gateway
}

func leaderPath(role string) string {
	return "/leader-details/" + url.PathEscape(role)
}

// Get returns the record for role, or nil when the role has none. Both a null
// body and a 404 mean no record.
func (l *Leaders) Get(ctx context.Context, role string) (*model.Item, error) {
	var item *model.Item
	err := l.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: leaderPath(role)}, &item)
	if apierror.HasCode(err, apierror.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (l *Leaders) Upsert(ctx context.Context, role string, payload *gateway.Multipart) error {
	return l.gw.Do(ctx, gateway.Request{Method: http.MethodPut, Path: leaderPath(role), Form: payload}, nil)
}

func (l *Leaders) Delete(ctx context.Context, role string) error {
	return l.gw.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: leaderPath(role)}, nil)
}
