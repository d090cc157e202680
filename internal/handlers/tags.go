package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// TagHandler serves the per-user tag catalog.
type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

type tagInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Create adds a tag.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in tagInput
	if !decodeJSON(w, r, &in) {
		return
	}

	tag, errs, err := h.tags.Create(r.Context(), userID, in.Name, in.Color)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}
	api.Success(w, http.StatusCreated, "Tag created", tag)
}

// List returns the caller's tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tags, err := h.tags.List(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Tags", tags)
}

// Update renames or recolors a tag.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tagID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, http.StatusNotFound, "Not found", nil)
		return
	}
	var in tagInput
	if !decodeJSON(w, r, &in) {
		return
	}

	tag, errs, err := h.tags.Update(r.Context(), userID, tagID, in.Name, in.Color)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}
	api.Success(w, http.StatusOK, "Tag updated", tag)
}

// Delete removes a tag.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tagID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, http.StatusNotFound, "Not found", nil)
		return
	}
	if err := h.tags.Delete(r.Context(), userID, tagID); err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Tag deleted", nil)
}
