package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/auth"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// AuthHandler serves signup, login, token refresh and account management.
type AuthHandler struct {
	users  *services.UserService
	tokens *auth.Manager
	log    zerolog.Logger
}

func NewAuthHandler(users *services.UserService, tokens *auth.Manager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Signup registers an account and returns a token pair.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if errs := services.ValidateSignup(in); len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		serviceError(w, err)
		return
	}

	access, refresh, err := h.tokens.IssuePair(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("issue tokens after signup")
		serviceError(w, err)
		return
	}

	h.log.Info().Str("user_id", user.ID.String()).Msg("user registered")
	api.Success(w, http.StatusCreated, "Account created", map[string]interface{}{
		"user":   user,
		"tokens": tokenPair{AccessToken: access, RefreshToken: refresh},
	})
}

// Login authenticates and returns a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		serviceError(w, err)
		return
	}

	access, refresh, err := h.tokens.IssuePair(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("issue tokens after login")
		serviceError(w, err)
		return
	}

	api.Success(w, http.StatusOK, "Signed in", map[string]interface{}{
		"user":   user,
		"tokens": tokenPair{AccessToken: access, RefreshToken: refresh},
	})
}

// Refresh rotates a refresh token into a new pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	access, refresh, err := h.tokens.Rotate(r.Context(), in.RefreshToken)
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "Invalid or expired refresh token", nil)
		return
	}
	api.Success(w, http.StatusOK, "Token refreshed", tokenPair{AccessToken: access, RefreshToken: refresh})
}

// Logout revokes every refresh token for the caller.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.tokens.RevokeAll(r.Context(), userID); err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Signed out", nil)
}

// Me returns the caller's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Account", user)
}

// UpdateMe applies a partial account update.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in services.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := h.users.Update(r.Context(), userID, in)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Account updated", user)
}

// ChangePassword sets a new password and revokes existing refresh tokens.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, in.CurrentPassword, in.NewPassword); err != nil {
		serviceError(w, err)
		return
	}
	if err := h.tokens.RevokeAll(r.Context(), userID); err != nil {
		h.log.Warn().Err(err).Msg("revoke tokens after password change")
	}
	api.Success(w, http.StatusOK, "Password changed", nil)
}

// Preferences returns the caller's profile row.
func (h *AuthHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	profile, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Preferences", profile)
}

// UpdatePreferences applies a partial preferences update.
func (h *AuthHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in services.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	profile, err := h.users.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Preferences updated", profile)
}
