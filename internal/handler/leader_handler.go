package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-admin-console/internal/model"
	"go-admin-console/internal/resource"
)

type leaderSectionView struct {
	resource.LeaderSection
	Record *itemView `json:"record"`
}

type LeaderHandler struct {
	leaders       *resource.LeaderController
	apiBase       string
	maxUploadSize int64
}

func NewLeaderHandler(leaders *resource.LeaderController, apiBase string, maxUploadSize int64) *LeaderHandler {
	return &LeaderHandler{leaders: leaders, apiBase: apiBase, maxUploadSize: maxUploadSize}
}

func (h *LeaderHandler) List(w http.ResponseWriter, r *http.Request) {
	sections := h.leaders.Sections(r.Context())

	views := make([]leaderSectionView, 0, len(sections))
	records := 0
	for _, section := range sections {
		view := leaderSectionView{LeaderSection: section}
		if section.Record != nil {
			item := viewItem(h.apiBase, *section.Record)
			view.Record = &item
			records++
		}
		views = append(views, view)
	}

	status := h.leaders.Status()
	writeSuccess(w, http.StatusOK, map[string]any{
		"kind":     h.leaders.Kind().Name,
		"title":    h.leaders.Kind().Label,
		"sections": views,
		"status":   status,
	}, &model.Meta{Total: records, Notices: status.Notices})
}

func (h *LeaderHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r, h.maxUploadSize)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.leaders.Upsert(r.Context(), chi.URLParam(r, "role"), form); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.leaders.Status(), nil)
}

func (h *LeaderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	confirm := resource.ConfirmFunc(func(string) bool { return confirmed(r) })
	if err := h.leaders.Remove(r.Context(), chi.URLParam(r, "role"), confirm); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, h.leaders.Status(), nil)
}
