package handlers

import (
	"net/http"
	"time"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// SubscriptionHandler serves subscription state and the aggregate views.
type SubscriptionHandler struct {
	entitlement *services.EntitlementService
	profile     *services.ProfileService
	dashboard   *services.DashboardService
}

func NewSubscriptionHandler(entitlement *services.EntitlementService, profile *services.ProfileService, dashboard *services.DashboardService) *SubscriptionHandler {
	return &SubscriptionHandler{entitlement: entitlement, profile: profile, dashboard: dashboard}
}

// Me returns the caller's subscription and resolved entitlement.
func (h *SubscriptionHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	sub, err := h.entitlement.GetSubscription(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	ent, err := h.entitlement.Check(r.Context(), userID, time.Now().UTC())
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Subscription", map[string]interface{}{
		"subscription": sub,
		"entitlement":  ent,
	})
}

// Summary returns the profile screen aggregate.
func (h *SubscriptionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	summary, err := h.profile.Load(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Profile summary", summary)
}

// Dashboard returns the home screen aggregate.
func (h *SubscriptionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	dash, err := h.dashboard.Load(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Dashboard", dash)
}

// Recompute rebuilds the denormalized profile counters from source documents.
func (h *SubscriptionHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	profile, err := h.profile.Recompute(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Counters recomputed", profile)
}

// InvalidateCache drops the caller's cached aggregate views.
func (h *SubscriptionHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.profile.InvalidateAll(r.Context(), userID)
	api.Success(w, http.StatusOK, "Cache invalidated", nil)
}
