// Package handlers wires HTTP requests to the service layer. Handlers decode
// and authenticate; all domain rules live in internal/services.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/middleware"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// decodeJSON reads the request body into dst, rejecting malformed payloads.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return true
}

// requireUser pulls the authenticated user id set by the auth middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "Authentication required", nil)
		return uuid.Nil, false
	}
	return id, true
}

// serviceError maps the service sentinel errors onto the HTTP taxonomy.
// Unknown errors become 503s; backend failures are transient from the
// client's point of view.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		api.Error(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, services.ErrForbidden):
		api.Error(w, http.StatusForbidden, "You do not have access to this resource", nil)
	case errors.Is(err, services.ErrInvalidTransition):
		api.Error(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrDuplicate):
		api.Error(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrValidation):
		api.Error(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		api.Error(w, http.StatusUnauthorized, "Invalid email or password", nil)
	default:
		api.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable", nil)
	}
}
