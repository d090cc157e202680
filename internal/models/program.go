package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program types.
const (
	ProgramType14Day  = "14_day"
	ProgramType30Day  = "30_day"
	ProgramTypeCustom = "custom"
)

// Enrollment statuses.
const (
	EnrollmentNotStarted = "not_started"
	EnrollmentInProgress = "in_progress"
	EnrollmentCompleted  = "completed"
	EnrollmentPaused     = "paused"
)

// FocusProgram is catalog data for the structured focus programs.
type FocusProgram struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProgramType  string    `json:"program_type"`
	Description  string    `json:"description"`
	DurationDays int       `json:"duration_days"`
	IsProOnly    bool      `json:"is_pro_only"`
	Icon         string    `json:"icon,omitempty"`
	Color        string    `json:"color"`
	SortOrder    int       `json:"sort_order"`
}

// ProgramDay is the catalog content for one day of a program. Tasks, tips and
// reflection prompts are stored as JSONB string lists.
type ProgramDay struct {
	ID                uuid.UUID `json:"id"`
	ProgramID         uuid.UUID `json:"program_id"`
	DayNumber         int       `json:"day_number"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	FocusDuration     int       `json:"focus_duration"` // recommended minutes
	Tasks             []string  `json:"tasks"`
	Tips              []string  `json:"tips"`
	ReflectionPrompts []string  `json:"reflection_prompts"`
}

// Enrollment is a user's participation in a program, tracked in the
// relational ledger for strong consistency on the day index and streaks.
type Enrollment struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `json:"user_id"`
	ProgramID uuid.UUID `json:"program_id"`

	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CurrentDay        int `json:"current_day"`
	DaysCompleted     int `json:"days_completed"`
	TotalFocusMinutes int `json:"total_focus_minutes"`
	CurrentStreak     int `json:"current_streak"`
	LongestStreak     int `json:"longest_streak"`
}

// DayTask is one checklist item in a day's progress document.
type DayTask struct {
	TaskText    string     `bson:"task_text" json:"task_text"`
	IsCompleted bool       `bson:"is_completed" json:"is_completed"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Order       int        `bson:"order" json:"order"`
}

// DayReflection is one reflection answer in a day's progress document.
type DayReflection struct {
	Question   string    `bson:"question" json:"question"`
	Answer     string    `bson:"answer" json:"answer"`
	AnsweredAt time.Time `bson:"answered_at" json:"answered_at"`
}

// ProgramDayProgress is the per-day document paired with an enrollment row:
// task checklist, reflections and focus minutes for one program day.
type ProgramDayProgress struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
	UserID       string             `bson:"user_id" json:"user_id"`
	EnrollmentID string             `bson:"enrollment_id" json:"enrollment_id"`
	ProgramID    string             `bson:"program_id" json:"program_id"`
	DayNumber    int                `bson:"day_number" json:"day_number"`

	IsCompleted bool       `bson:"is_completed" json:"is_completed"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	Tasks               []DayTask `bson:"tasks,omitempty" json:"tasks,omitempty"`
	TasksCompletedCount int       `bson:"tasks_completed_count" json:"tasks_completed_count"`

	TotalFocusMinutes  int `bson:"total_focus_minutes" json:"total_focus_minutes"`
	TargetFocusMinutes int `bson:"target_focus_minutes" json:"target_focus_minutes"`

	Reflections []DayReflection `bson:"reflections,omitempty" json:"reflections,omitempty"`
	Notes       string          `bson:"notes,omitempty" json:"notes,omitempty"`
}

// CheckCompletion reports whether the day is fully done: all tasks checked,
// focus target met, and at least one reflection recorded.
func (p *ProgramDayProgress) CheckCompletion() bool {
	tasksDone := len(p.Tasks) == 0 || p.TasksCompletedCount == len(p.Tasks)
	focusDone := p.TargetFocusMinutes == 0 || p.TotalFocusMinutes >= p.TargetFocusMinutes
	return tasksDone && focusDone && len(p.Reflections) > 0
}
