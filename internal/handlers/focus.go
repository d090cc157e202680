package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// FocusHandler serves the focus session lifecycle.
type FocusHandler struct {
	sessions  *services.SessionService
	dashboard *services.DashboardService
}

func NewFocusHandler(sessions *services.SessionService, dashboard *services.DashboardService) *FocusHandler {
	return &FocusHandler{sessions: sessions, dashboard: dashboard}
}

// Start opens a session, or returns the caller's existing open session.
func (h *FocusHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in services.StartInput
	if !decodeJSON(w, r, &in) {
		return
	}

	session, created, errs, err := h.sessions.Start(r.Context(), userID.String(), in)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}
	if created {
		api.Success(w, http.StatusCreated, "Session started", session)
		return
	}
	api.Success(w, http.StatusOK, "Session already in progress", session)
}

// Active returns the caller's open session.
func (h *FocusHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.Active(r.Context(), userID.String())
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Active session", session)
}

// Get returns one session by id.
func (h *FocusHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.Get(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Session", session)
}

// Pause transitions active → paused.
func (h *FocusHandler) Pause(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.Pause(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Session paused", session)
}

// Resume transitions paused → active.
func (h *FocusHandler) Resume(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.Resume(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Session resumed", session)
}

// Distraction logs a distraction note against an open session.
func (h *FocusHandler) Distraction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Note string `json:"note"`
	}
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &in) {
			return
		}
	}
	session, err := h.sessions.AddDistraction(r.Context(), userID.String(), chi.URLParam(r, "id"), in.Note)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Distraction logged", session)
}

// Complete closes the session and rolls up focus time and streaks.
func (h *FocusHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in services.CompleteInput
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &in) {
			return
		}
	}

	session, err := h.sessions.Complete(r.Context(), userID.String(), chi.URLParam(r, "id"), in)
	if err != nil {
		serviceError(w, err)
		return
	}

	h.dashboard.Invalidate(r.Context(), userID)
	api.Success(w, http.StatusOK, "Session completed", session)
}

// Cancel discards the session.
func (h *FocusHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.Cancel(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Session canceled", session)
}

// Tick records a heartbeat on an active session.
func (h *FocusHandler) Tick(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.sessions.Tick(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Tick recorded", session)
}

// History lists past sessions.
func (h *FocusHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit := api.ParsePageParams(r)

	sessions, total, err := h.sessions.History(r.Context(), userID.String(), page, limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Paginated(w, "Session history", sessions, api.NewPagination(page, limit, total))
}
