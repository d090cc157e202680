package handlers

import (
	"net/http"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// PromptHandler serves the daily prompt set and responses.
type PromptHandler struct {
	prompts   *services.PromptService
	dashboard *services.DashboardService
}

func NewPromptHandler(prompts *services.PromptService, dashboard *services.DashboardService) *PromptHandler {
	return &PromptHandler{prompts: prompts, dashboard: dashboard}
}

// Today returns today's prompt set, generating it on first request.
func (h *PromptHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	set, err := h.prompts.TodaySet(r.Context(), userID.String())
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Today's prompts", set)
}

// Respond records an answer to one of today's prompts.
func (h *PromptHandler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in struct {
		PromptID         string `json:"prompt_id"`
		Response         string `json:"response"`
		TimeSpentSeconds int    `json:"time_spent_seconds"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	response, errs, err := h.prompts.Respond(r.Context(), userID.String(), in.PromptID, in.Response, in.TimeSpentSeconds)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}

	h.dashboard.Invalidate(r.Context(), userID)
	api.Success(w, http.StatusCreated, "Response recorded", response)
}

// History lists past responses.
func (h *PromptHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit := api.ParsePageParams(r)

	responses, total, err := h.prompts.History(r.Context(), userID.String(), page, limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Paginated(w, "Prompt history", responses, api.NewPagination(page, limit, total))
}

// Streak returns the consecutive-day prompt streak.
func (h *PromptHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	streak, err := h.prompts.Streak(r.Context(), userID.String())
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Prompt streak", map[string]int{"current_streak": streak})
}
