package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-admin-console/internal/gateway"
	"go-admin-console/internal/model"
	"go-admin-console/internal/resource"
	"go-admin-console/pkg/apierror"
)

// itemView is an item with its image paths resolved to fetchable URLs.
type itemView struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
	Images []string          `json:"images"`
}

func viewItem(apiBase string, item model.Item) itemView {
	paths := item.Images()
	images := make([]string, 0, len(paths))
	for _, p := range paths {
		images = append(images, gateway.ResolveAsset(apiBase, p))
	}
	return itemView{ID: item.ID, Fields: item.Fields, Images: images}
}

type sectionView struct {
	Kind   string          `json:"kind"`
	Title  string          `json:"title"`
	Items  []itemView      `json:"items"`
	Status resource.Status `json:"status"`
}

type ContentHandler struct {
	controllers   map[string]*resource.Controller[model.Item]
	apiBase       string
	maxUploadSize int64
}

func NewContentHandler(controllers []*resource.Controller[model.Item], apiBase string, maxUploadSize int64) *ContentHandler {
	byName := make(map[string]*resource.Controller[model.Item], len(controllers))
	for _, ctrl := range controllers {
		byName[ctrl.Kind().Name] = ctrl
	}
	return &ContentHandler{controllers: byName, apiBase: apiBase, maxUploadSize: maxUploadSize}
}

func (h *ContentHandler) controller(w http.ResponseWriter, r *http.Request) (*resource.Controller[model.Item], bool) {
	kind := chi.URLParam(r, "kind")
	ctrl, ok := h.controllers[kind]
	if !ok {
		writeError(w, apierror.New(apierror.CodeNotFound, "Page not found", kind, http.StatusNotFound))
	}
	return ctrl, ok
}

func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	items, hit, err := ctrl.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, viewItem(h.apiBase, item))
	}

	status := ctrl.Status()
	writeSuccess(w, http.StatusOK, sectionView{
		Kind:   ctrl.Kind().Name,
		Title:  ctrl.Kind().Label,
		Items:  views,
		Status: status,
	}, &model.Meta{Total: len(views), CacheHit: hit, Notices: status.Notices})
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	form, err := readForm(w, r, h.maxUploadSize)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := ctrl.Create(r.Context(), form); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, ctrl.Status(), nil)
}

func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apierror.New(apierror.CodeBadRequest, "item id is required", "id", http.StatusBadRequest))
		return
	}

	form, err := readForm(w, r, h.maxUploadSize)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := ctrl.Update(r.Context(), id, form); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, ctrl.Status(), nil)
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	confirm := resource.ConfirmFunc(func(string) bool { return confirmed(r) })
	if err := ctrl.Remove(r.Context(), chi.URLParam(r, "id"), confirm); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, ctrl.Status(), nil)
}
