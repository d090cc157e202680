package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/models"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// ReflectionHandler serves the premium guided reflection flows. Every
// mutating endpoint passes the entitlement gate first; a lapsed user gets a
// 403 carrying the denial reason so the client can show the right upsell.
type ReflectionHandler struct {
	reflections *services.ReflectionService
	entitlement *services.EntitlementService
	log         zerolog.Logger
}

func NewReflectionHandler(reflections *services.ReflectionService, entitlement *services.EntitlementService, log zerolog.Logger) *ReflectionHandler {
	return &ReflectionHandler{reflections: reflections, entitlement: entitlement, log: log}
}

// Access reports the caller's entitlement for the guided flows, starting the
// feature trial on first touch.
func (h *ReflectionHandler) Access(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ent, trial, err := h.entitlement.CheckFlowAccess(r.Context(), userID, time.Now().UTC())
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Flow access", map[string]interface{}{
		"entitlement": ent,
		"trial":       trial,
	})
}

// gate resolves the entitlement and writes the 403 on denial.
func (h *ReflectionHandler) gate(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return "", false
	}

	ent, _, err := h.entitlement.CheckFlowAccess(r.Context(), userID, time.Now().UTC())
	if err != nil {
		serviceError(w, err)
		return "", false
	}
	if !ent.IsEntitled {
		api.Error(w, http.StatusForbidden, "Premium feature", map[string]string{
			"denial_reason": ent.DenialReason,
		})
		return "", false
	}
	return userID.String(), true
}

// Start opens today's session for the flow in the URL.
func (h *ReflectionHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.gate(w, r)
	if !ok {
		return
	}
	flow := chi.URLParam(r, "flow")

	var in struct {
		PlannedDurationSeconds int `json:"planned_duration_seconds"`
	}
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &in) {
			return
		}
	}

	session, created, err := h.reflections.Start(r.Context(), uid, flow, in.PlannedDurationSeconds)
	if err != nil {
		serviceError(w, err)
		return
	}

	if created {
		h.trackUsage(r, uid, flow)
		api.Success(w, http.StatusCreated, "Session started", session)
		return
	}
	api.Success(w, http.StatusOK, "Session already exists for today", session)
}

func (h *ReflectionHandler) trackUsage(r *http.Request, uid, flow string) {
	userID, err := uuid.Parse(uid)
	if err != nil {
		return
	}
	if err := h.entitlement.IncrementTrialUsage(r.Context(), userID, flow); err != nil {
		h.log.Warn().Err(err).Str("flow", flow).Msg("trial usage increment failed")
	}
}

// Today returns the flow's session for the current day, null when none.
// Readable without the premium gate so the client can render locked state.
func (h *ReflectionHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.reflections.Today(r.Context(), userID.String(), chi.URLParam(r, "flow"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Today's session", session)
}

// Step records one step's payload.
func (h *ReflectionHandler) Step(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.gate(w, r)
	if !ok {
		return
	}
	var in struct {
		Step    string                 `json:"step"`
		Payload map[string]interface{} `json:"payload"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	session, err := h.reflections.RecordStep(r.Context(), uid, chi.URLParam(r, "id"), in.Step, in.Payload)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Step recorded", session)
}

// Pause suspends the open session.
func (h *ReflectionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.gate(w, r)
	if !ok {
		return
	}
	session, err := h.reflections.Pause(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Session paused", session)
}

// Resume reactivates the open session.
func (h *ReflectionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.gate(w, r)
	if !ok {
		return
	}
	session, err := h.reflections.Resume(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Session resumed", session)
}

// Complete closes the session and returns the advanced streak.
func (h *ReflectionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.gate(w, r)
	if !ok {
		return
	}
	session, streak, err := h.reflections.Complete(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Session completed", map[string]interface{}{
		"session": session,
		"streak":  streak,
	})
}

// Cancel discards the open session.
func (h *ReflectionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.gate(w, r)
	if !ok {
		return
	}
	session, err := h.reflections.Cancel(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Session canceled", session)
}

// Streaks returns the per-flow streaks and badges. Readable on the free tier
// so the app can render locked-state progress.
func (h *ReflectionHandler) Streaks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	streaks, err := h.reflections.Streaks(r.Context(), userID.String())
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Streaks", streaks)
}

// History lists past sessions, optionally filtered by flow.
func (h *ReflectionHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, limit := api.ParsePageParams(r)
	flow := r.URL.Query().Get("flow")

	sessions, total, err := h.reflections.History(r.Context(), userID.String(), flow, page, limit)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Paginated(w, "Reflection history", sessions, api.NewPagination(page, limit, total))
}

// Flows describes the available flows and their step order for clients.
func (h *ReflectionHandler) Flows(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	api.Success(w, http.StatusOK, "Flows", models.FlowSteps)
}
