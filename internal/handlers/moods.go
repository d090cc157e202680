package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/models"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// MoodHandler serves mood check-ins and the category catalog.
type MoodHandler struct {
	moods     *services.MoodService
	dashboard *services.DashboardService
}

func NewMoodHandler(moods *services.MoodService, dashboard *services.DashboardService) *MoodHandler {
	return &MoodHandler{moods: moods, dashboard: dashboard}
}

// Categories lists the active mood categories.
func (h *MoodHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.moods.Categories(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Mood categories", categories)
}

// Factors lists the active mood factors.
func (h *MoodHandler) Factors(w http.ResponseWriter, r *http.Request) {
	factors, err := h.moods.Factors(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Mood factors", factors)
}

// Record stores a mood check-in.
func (h *MoodHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var entry models.MoodEntry
	if !decodeJSON(w, r, &entry) {
		return
	}

	created, errs, err := h.moods.Record(r.Context(), userID.String(), &entry)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}

	h.dashboard.Invalidate(r.Context(), userID)
	api.Success(w, http.StatusCreated, "Mood recorded", created)
}

// List returns mood entries with pagination and an optional date range.
func (h *MoodHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit := api.ParsePageParams(r)

	var from, to *time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.AddDate(0, 0, 1)
			to = &end
		}
	}

	entries, total, err := h.moods.List(r.Context(), userID.String(), from, to, page, limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Paginated(w, "Mood entries", entries, api.NewPagination(page, limit, total))
}

// Summary aggregates moods by category over a trailing window.
func (h *MoodHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}

	summary, err := h.moods.Summary(r.Context(), userID.String(), days)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Mood summary", summary)
}

// Delete removes one mood entry.
func (h *MoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.moods.Delete(r.Context(), userID.String(), chi.URLParam(r, "id")); err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Mood entry deleted", nil)
}
