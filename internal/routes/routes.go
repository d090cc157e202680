// Package routes assembles the /api/v1 route table.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mindnotes/mindnotes-backend/internal/auth"
	"github.com/mindnotes/mindnotes-backend/internal/handlers"
	"github.com/mindnotes/mindnotes-backend/internal/middleware"
)

// Handlers bundles everything the route table mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Journals      *handlers.JournalHandler
	Tags          *handlers.TagHandler
	Moods         *handlers.MoodHandler
	Focus         *handlers.FocusHandler
	FocusChannel  *handlers.FocusChannel
	Programs      *handlers.ProgramHandler
	Reflections   *handlers.ReflectionHandler
	Prompts       *handlers.PromptHandler
	Subscriptions *handlers.SubscriptionHandler
}

// Mount attaches the API surface to the router. Everything under /api/v1
// except auth entry points requires a bearer token.
func Mount(r chi.Router, h Handlers, tokens *auth.Manager) {
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth surface.
		r.Post("/auth/signup", h.Auth.Signup)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/refresh", h.Auth.Refresh)

		// Mood catalogs are reference data, readable before login.
		r.Get("/moods/categories", h.Moods.Categories)
		r.Get("/moods/factors", h.Moods.Factors)

		// Token required past this point.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))

			r.Post("/auth/logout", h.Auth.Logout)
			r.Get("/auth/me", h.Auth.Me)
			r.Patch("/auth/me", h.Auth.UpdateMe)
			r.Post("/auth/change-password", h.Auth.ChangePassword)
			r.Get("/auth/preferences", h.Auth.Preferences)
			r.Patch("/auth/preferences", h.Auth.UpdatePreferences)

			r.Route("/journals", func(r chi.Router) {
				r.Post("/", h.Journals.Create)
				r.Post("/quick", h.Journals.Quick)
				r.Get("/", h.Journals.List)
				r.Get("/{id}", h.Journals.Get)
				r.Patch("/{id}", h.Journals.Update)
				r.Delete("/{id}", h.Journals.Delete)
				r.Post("/{id}/favorite", h.Journals.Favorite)
				r.Delete("/{id}/favorite", h.Journals.Unfavorite)
				r.Post("/{id}/archive", h.Journals.Archive)
				r.Delete("/{id}/archive", h.Journals.Unarchive)
			})

			r.Route("/tags", func(r chi.Router) {
				r.Post("/", h.Tags.Create)
				r.Get("/", h.Tags.List)
				r.Patch("/{id}", h.Tags.Update)
				r.Delete("/{id}", h.Tags.Delete)
			})

			r.Route("/moods", func(r chi.Router) {
				r.Post("/", h.Moods.Record)
				r.Get("/", h.Moods.List)
				r.Get("/summary", h.Moods.Summary)
				r.Delete("/{id}", h.Moods.Delete)
			})

			r.Route("/focus", func(r chi.Router) {
				r.Post("/sessions", h.Focus.Start)
				r.Get("/sessions/active", h.Focus.Active)
				r.Get("/sessions", h.Focus.History)
				r.Get("/sessions/{id}", h.Focus.Get)
				r.Post("/sessions/{id}/pause", h.Focus.Pause)
				r.Post("/sessions/{id}/resume", h.Focus.Resume)
				r.Post("/sessions/{id}/complete", h.Focus.Complete)
				r.Post("/sessions/{id}/cancel", h.Focus.Cancel)
				r.Post("/sessions/{id}/tick", h.Focus.Tick)
				r.Post("/sessions/{id}/distraction", h.Focus.Distraction)

				r.Route("/programs", func(r chi.Router) {
					r.Get("/", h.Programs.List)
					r.Get("/{id}", h.Programs.Get)
					r.Get("/{id}/days/{day}", h.Programs.Day)
					r.Post("/{id}/enroll", h.Programs.Enroll)
				})

				r.Route("/enrollments", func(r chi.Router) {
					r.Get("/", h.Programs.Enrollments)
					r.Get("/{enrollmentID}/day", h.Programs.DayProgress)
					r.Post("/{enrollmentID}/tasks", h.Programs.SetTask)
					r.Post("/{enrollmentID}/reflections", h.Programs.AddReflection)
					r.Post("/{enrollmentID}/focus-minutes", h.Programs.AddFocusMinutes)
					r.Post("/{enrollmentID}/complete-day", h.Programs.CompleteDay)
					r.Post("/{enrollmentID}/pause", h.Programs.PauseEnrollment)
					r.Post("/{enrollmentID}/resume", h.Programs.ResumeEnrollment)
				})
			})

			r.Route("/reflections", func(r chi.Router) {
				r.Get("/flows", h.Reflections.Flows)
				r.Get("/access", h.Reflections.Access)
				r.Get("/streaks", h.Reflections.Streaks)
				r.Get("/sessions", h.Reflections.History)
				r.Post("/{flow}/start", h.Reflections.Start)
				r.Get("/{flow}/today", h.Reflections.Today)
				r.Post("/sessions/{id}/steps", h.Reflections.Step)
				r.Post("/sessions/{id}/pause", h.Reflections.Pause)
				r.Post("/sessions/{id}/resume", h.Reflections.Resume)
				r.Post("/sessions/{id}/complete", h.Reflections.Complete)
				r.Post("/sessions/{id}/cancel", h.Reflections.Cancel)
			})

			r.Route("/prompts", func(r chi.Router) {
				r.Get("/today", h.Prompts.Today)
				r.Post("/respond", h.Prompts.Respond)
				r.Get("/history", h.Prompts.History)
				r.Get("/streak", h.Prompts.Streak)
			})

			r.Get("/subscriptions/me", h.Subscriptions.Me)
			r.Get("/dashboard", h.Subscriptions.Dashboard)
			r.Get("/profile/summary", h.Subscriptions.Summary)
			r.Post("/profile/recompute", h.Subscriptions.Recompute)
			r.Post("/cache/invalidate", h.Subscriptions.InvalidateCache)
		})
	})

	// Timer channel authenticates inside the upgrade handshake.
	r.Get("/api/v1/focus/channel", h.FocusChannel.ServeHTTP)
}

// Health returns a liveness handler.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
