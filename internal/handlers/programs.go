package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindnotes/mindnotes-backend/internal/api"
	"github.com/mindnotes/mindnotes-backend/internal/services"
)

// ProgramHandler serves the focus program catalog, enrollments and per-day
// progress.
type ProgramHandler struct {
	programs    *services.ProgramService
	entitlement *services.EntitlementService
}

func NewProgramHandler(programs *services.ProgramService, entitlement *services.EntitlementService) *ProgramHandler {
	return &ProgramHandler{programs: programs, entitlement: entitlement}
}

func (h *ProgramHandler) entitled(r *http.Request, userID uuid.UUID) bool {
	ent, err := h.entitlement.Check(r.Context(), userID, time.Now().UTC())
	return err == nil && ent.IsEntitled
}

// List returns the catalog with pro gating and enrollment state resolved.
func (h *ProgramHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	listings, err := h.programs.List(r.Context(), userID, h.entitled(r, userID))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Programs", listings)
}

// Get returns one program with its day outline.
func (h *ProgramHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	programID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, http.StatusNotFound, "Not found", nil)
		return
	}

	program, err := h.programs.Get(r.Context(), programID)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Program", program)
}

// Day returns one day's catalog content.
func (h *ProgramHandler) Day(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	programID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, http.StatusNotFound, "Not found", nil)
		return
	}
	dayNumber, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil || dayNumber < 1 {
		api.Error(w, http.StatusNotFound, "Not found", nil)
		return
	}

	day, err := h.programs.Day(r.Context(), programID, dayNumber)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Program day", day)
}

// Enroll starts a program for the caller.
func (h *ProgramHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	programID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.Error(w, http.StatusNotFound, "Not found", nil)
		return
	}

	enrollment, err := h.programs.Enroll(r.Context(), userID, programID, h.entitled(r, userID))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, "Enrolled", enrollment)
}

// Enrollments lists the caller's enrollments.
func (h *ProgramHandler) Enrollments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	enrollments, err := h.programs.Enrollments(r.Context(), userID)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Enrollments", enrollments)
}

func (h *ProgramHandler) enrollmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "enrollmentID"))
	if err != nil {
		api.Error(w, http.StatusNotFound, "Not found", nil)
		return uuid.Nil, false
	}
	return id, true
}

func dayParam(r *http.Request) int {
	if v := r.URL.Query().Get("day"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// DayProgress returns the current (or requested) day's progress and content.
func (h *ProgramHandler) DayProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	enrollmentID, ok := h.enrollmentID(w, r)
	if !ok {
		return
	}

	progress, day, err := h.programs.DayProgress(r.Context(), userID, enrollmentID, dayParam(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Day progress", map[string]interface{}{
		"progress": progress,
		"day":      day,
	})
}

// SetTask checks or unchecks one task.
func (h *ProgramHandler) SetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	enrollmentID, ok := h.enrollmentID(w, r)
	if !ok {
		return
	}
	var in struct {
		Day       int  `json:"day"`
		TaskOrder int  `json:"task_order"`
		Completed bool `json:"completed"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	progress, err := h.programs.SetTask(r.Context(), userID, enrollmentID, in.Day, in.TaskOrder, in.Completed)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Task updated", progress)
}

// AddReflection records one reflection answer on the day.
func (h *ProgramHandler) AddReflection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	enrollmentID, ok := h.enrollmentID(w, r)
	if !ok {
		return
	}
	var in struct {
		Day      int    `json:"day"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	progress, errs, err := h.programs.AddReflection(r.Context(), userID, enrollmentID, in.Day, in.Question, in.Answer)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(errs) > 0 {
		api.ValidationError(w, errs)
		return
	}
	api.Success(w, http.StatusOK, "Reflection saved", progress)
}

// AddFocusMinutes folds focus time into the day.
func (h *ProgramHandler) AddFocusMinutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	enrollmentID, ok := h.enrollmentID(w, r)
	if !ok {
		return
	}
	var in struct {
		Day     int `json:"day"`
		Minutes int `json:"minutes"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	progress, err := h.programs.AddFocusMinutes(r.Context(), userID, enrollmentID, in.Day, in.Minutes)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Focus time recorded", progress)
}

// CompleteDay closes the current day and advances the enrollment.
func (h *ProgramHandler) CompleteDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	enrollmentID, ok := h.enrollmentID(w, r)
	if !ok {
		return
	}
	var in struct {
		Day int `json:"day"`
	}
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, &in) {
			return
		}
	}

	enrollment, progress, err := h.programs.CompleteDay(r.Context(), userID, enrollmentID, in.Day)
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Day completed", map[string]interface{}{
		"enrollment": enrollment,
		"progress":   progress,
	})
}

// PauseEnrollment suspends the enrollment.
func (h *ProgramHandler) PauseEnrollment(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, true)
}

// ResumeEnrollment reactivates the enrollment.
func (h *ProgramHandler) ResumeEnrollment(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, false)
}

func (h *ProgramHandler) setStatus(w http.ResponseWriter, r *http.Request, pause bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	enrollmentID, ok := h.enrollmentID(w, r)
	if !ok {
		return
	}

	var err error
	var enrollment interface{}
	if pause {
		enrollment, err = h.programs.PauseEnrollment(r.Context(), userID, enrollmentID)
	} else {
		enrollment, err = h.programs.ResumeEnrollment(r.Context(), userID, enrollmentID)
	}
	if err != nil {
		serviceError(w, err)
		return
	}
	api.Success(w, http.StatusOK, "Enrollment updated", enrollment)
}
