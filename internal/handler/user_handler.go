package handler

import (
	"context"
	"net/http"

	"go-admin-console/internal/model"
)

type userLister interface {
	Users(ctx context.Context) ([]model.User, error)
}

type UserHandler struct {
	users userLister
}

func NewUserHandler(users userLister) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Users(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"users": users}, &model.Meta{Total: len(users)})
}
