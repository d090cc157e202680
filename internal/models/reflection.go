package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Guided reflection flows. Each is a premium multi-step program with its own
// named steps and its own streak.
const (
	FlowMorningCharge  = "morning_charge"
	FlowBrainDump      = "brain_dump"
	FlowGratitudePause = "gratitude_pause"
)

// Step names per flow. Step data is free-form; these constants are the known
// checkpoints clients submit.
var FlowSteps = map[string][]string{
	FlowMorningCharge:  {"breathing", "gratitude", "affirmation", "clarity", "charge_close"},
	FlowBrainDump:      {"settle_in", "thoughts", "guided_responses", "chosen_task", "close_breathe"},
	FlowGratitudePause: {"arrive", "three_gratitudes", "deep_dive", "expression", "anchor"},
}

// KnownFlow reports whether flow names one of the guided programs.
func KnownFlow(flow string) bool {
	_, ok := FlowSteps[flow]
	return ok
}

// KnownStep reports whether step belongs to flow.
func KnownStep(flow, step string) bool {
	for _, s := range FlowSteps[flow] {
		if s == step {
			return true
		}
	}
	return false
}

// StepRecord is one completed step. Re-submitting the same step overwrites the
// record rather than appending a duplicate.
type StepRecord struct {
	Payload     map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	CompletedAt time.Time              `bson:"completed_at" json:"completed_at"`
}

// ReflectionSession is one instance of a guided flow, scoped to a calendar
// day: starting the same flow again on the same day returns the existing
// session.
type ReflectionSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	UserID    string             `bson:"user_id" json:"user_id"`

	Flow        string `bson:"flow" json:"flow"`
	Status      string `bson:"status" json:"status"`
	SessionDate string `bson:"session_date" json:"session_date"` // YYYY-MM-DD

	PlannedDurationSeconds int `bson:"planned_duration_seconds,omitempty" json:"planned_duration_seconds,omitempty"`
	ActualDurationSeconds  int `bson:"actual_duration_seconds" json:"actual_duration_seconds"`

	StartedAt time.Time  `bson:"started_at" json:"started_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	Pauses                    []PauseInterval `bson:"pauses,omitempty" json:"pauses,omitempty"`
	TotalPauseDurationSeconds int             `bson:"total_pause_duration_seconds" json:"total_pause_duration_seconds"`

	// Step records keyed by step name; idempotent per step.
	Steps map[string]StepRecord `bson:"steps,omitempty" json:"steps,omitempty"`

	CurrentStreak int `bson:"current_streak,omitempty" json:"current_streak,omitempty"`
}

// OpenPause returns the index of the unclosed pause interval, or -1.
func (s *ReflectionSession) OpenPause() int {
	for i := range s.Pauses {
		if s.Pauses[i].EndedAt == nil {
			return i
		}
	}
	return -1
}

// Badge is a streak milestone award on the premium streak tracker.
type Badge struct {
	Name        string    `bson:"name" json:"name"`
	Flow        string    `bson:"flow" json:"flow"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	EarnedAt    time.Time `bson:"earned_at" json:"earned_at"`
}

// FlowStreak is the per-flow streak state on PremiumStreak.
type FlowStreak struct {
	CurrentStreak      int    `bson:"current_streak" json:"current_streak"`
	LongestStreak      int    `bson:"longest_streak" json:"longest_streak"`
	LastCompletionDate string `bson:"last_completion_date,omitempty" json:"last_completion_date,omitempty"` // YYYY-MM-DD
	TotalCompleted     int    `bson:"total_completed" json:"total_completed"`
}

// PremiumStreak tracks streaks and badges across all guided flows for a user.
type PremiumStreak struct {
	ID        primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID    string                `bson:"user_id" json:"user_id"`
	Flows     map[string]FlowStreak `bson:"flows,omitempty" json:"flows,omitempty"`
	Badges    []Badge               `bson:"badges,omitempty" json:"badges,omitempty"`
	UpdatedAt time.Time             `bson:"updated_at" json:"updated_at"`
}
