package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session lifecycle statuses. Active and paused are the non-terminal states;
// completed and canceled are terminal.
const (
	SessionActive    = "active"
	SessionPaused    = "paused"
	SessionCompleted = "completed"
	SessionCanceled  = "canceled"
)

// Focus session types.
const (
	SessionTypePomodoro = "pomodoro"
	SessionTypeCustom   = "custom"
	SessionTypeProgram  = "program"
)

// PauseInterval is an embedded pause record. EndedAt is nil while the pause is
// open; DurationSeconds is filled when it closes.
type PauseInterval struct {
	StartedAt       time.Time  `bson:"started_at" json:"started_at"`
	EndedAt         *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	DurationSeconds int        `bson:"duration_seconds" json:"duration_seconds"`
}

// FocusSession is one timed focus activity in the document store. At most one
// session per user may be in a non-terminal state; a partial unique index
// enforces it at commit time.
type FocusSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	UserID    string             `bson:"user_id" json:"user_id"`

	SessionType string `bson:"session_type" json:"session_type"`
	Status      string `bson:"status" json:"status"`

	PlannedDurationSeconds int `bson:"planned_duration_seconds" json:"planned_duration_seconds"`
	ActualDurationSeconds  int `bson:"actual_duration_seconds" json:"actual_duration_seconds"`

	TaskDescription string `bson:"task_description,omitempty" json:"task_description,omitempty"`

	// Program association (relational ids), present for program sessions.
	ProgramID    string `bson:"program_id,omitempty" json:"program_id,omitempty"`
	EnrollmentID string `bson:"enrollment_id,omitempty" json:"enrollment_id,omitempty"`
	DayNumber    int    `bson:"day_number,omitempty" json:"day_number,omitempty"`

	StartedAt  time.Time  `bson:"started_at" json:"started_at"`
	EndedAt    *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	LastTickAt *time.Time `bson:"last_tick_at,omitempty" json:"last_tick_at,omitempty"`

	Pauses                    []PauseInterval `bson:"pauses,omitempty" json:"pauses,omitempty"`
	TotalPauseDurationSeconds int             `bson:"total_pause_duration_seconds" json:"total_pause_duration_seconds"`

	ProductivityRating int      `bson:"productivity_rating,omitempty" json:"productivity_rating,omitempty"`
	Notes              string   `bson:"notes,omitempty" json:"notes,omitempty"`
	Distractions       []string `bson:"distractions,omitempty" json:"distractions,omitempty"`
	Tags               []string `bson:"tags,omitempty" json:"tags,omitempty"`
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminal(status string) bool {
	return status == SessionCompleted || status == SessionCanceled
}

// OpenPause returns the index of the unclosed pause interval, or -1.
func (s *FocusSession) OpenPause() int {
	for i := range s.Pauses {
		if s.Pauses[i].EndedAt == nil {
			return i
		}
	}
	return -1
}

// ActualDuration computes wall-clock span minus accumulated pause time. An
// open pause is counted up to endedAt.
func (s *FocusSession) ActualDuration(endedAt time.Time) time.Duration {
	elapsed := endedAt.Sub(s.StartedAt)
	paused := time.Duration(s.TotalPauseDurationSeconds) * time.Second
	if i := s.OpenPause(); i >= 0 {
		paused += endedAt.Sub(s.Pauses[i].StartedAt)
	}
	d := elapsed - paused
	if d < 0 {
		d = 0
	}
	return d
}
