package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/models"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// JournalHandler serves the journal entry CRUD surface.
type JournalHandler struct {
	journals  *services.JournalService
	dashboard *services.DashboardService
}

func NewJournalHandler(journals *services.JournalService, dashboard *services.DashboardService) *JournalHandler {
	return &JournalHandler{journals: journals, dashboard: dashboard}
}

// Create stores a new entry.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var entry models.JournalEntry
	if !decodeJSON(w, r, &entry) {
		return
	}

	created, errs, err := h.journals.Create(r.Context(), userID.String(), &entry)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}

	h.dashboard.Invalidate(r.Context(), userID)
	api.Success(w, http.StatusCreated, "Entry created", created)
}

// Quick captures a bare text entry, for the one-tap capture flow.
func (h *JournalHandler) Quick(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Content string `json:"content"`
		Title   string `json:"title"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	entry := models.JournalEntry{
		Title:     in.Title,
		Content:   in.Content,
		EntryType: models.EntryTypeText,
	}
	created, errs, err := h.journals.Create(r.Context(), userID.String(), &entry)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}

	h.dashboard.Invalidate(r.Context(), userID)
	api.Success(w, http.StatusCreated, "Entry created", created)
}

// List returns the caller's entries with filters and pagination.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit := api.ParsePageParams(r)

	q := r.URL.Query()
	filter := services.ListFilter{
		EntryType: q.Get("entry_type"),
		TagID:     q.Get("tag_id"),
		Search:    q.Get("search"),
	}
	if v := q.Get("favorite"); v != "" {
		fav := v == "true"
		filter.Favorite = &fav
	}
	if v := q.Get("archived"); v != "" {
		arch := v == "true"
		filter.Archived = &arch
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.AddDate(0, 0, 1)
			filter.To = &end
		}
	}

	entries, total, err := h.journals.List(r.Context(), userID.String(), filter, page, limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Paginated(w, "Entries", entries, api.NewPagination(page, limit, total))
}

// Get returns one entry.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	entry, err := h.journals.Get(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Entry", entry)
}

// Update applies a partial edit.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var patch models.JournalEntry
	if !decodeJSON(w, r, &patch) {
		return
	}

	entry, errs, err := h.journals.Update(r.Context(), userID.String(), chi.URLParam(r, "id"), &patch)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}
	api.Success(w, http.StatusOK, "Entry updated", entry)
}

// Favorite sets the favorite flag.
func (h *JournalHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, true, false)
}

// Unfavorite clears the favorite flag.
func (h *JournalHandler) Unfavorite(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, false, false)
}

// Archive hides the entry from the default listing.
func (h *JournalHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, true, true)
}

// Unarchive restores the entry to the default listing.
func (h *JournalHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, false, true)
}

func (h *JournalHandler) setFlag(w http.ResponseWriter, r *http.Request, value, archived bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var entry *models.JournalEntry
	var err error
	if archived {
		entry, err = h.journals.SetArchived(r.Context(), userID.String(), id, value)
	} else {
		entry, err = h.journals.SetFavorite(r.Context(), userID.String(), id, value)
	}
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Entry updated", entry)
}

// Delete removes an entry.
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.journals.Delete(r.Context(), userID.String(), chi.URLParam(r, "id")); err != nil {
		serviceError(w, err)
		return
	}
	h.dashboard.Invalidate(r.Context(), userID)
	api.Success(w, http.StatusOK, "Entry deleted", nil)
}
