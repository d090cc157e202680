package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account row in the relational ledger. Accounts are soft-disabled
// via IsActive, never hard-deleted.
type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	Bio          string `json:"bio,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`

	Timezone            string     `json:"timezone"`
	Language            string     `json:"language"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	IsActive            bool       `json:"is_active"`
}

// UserProfile carries per-user counters and preferences. The counters are
// best-effort denormalizations of document-store events; ProfileService
// recomputes them from source documents on read.
type UserProfile struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	DefaultEntryPrivacy  string `json:"default_entry_privacy"`
	DefaultFocusDuration int    `json:"default_focus_duration"`
	MoodTrackingEnabled  bool   `json:"mood_tracking_enabled"`

	TotalEntries       int        `json:"total_entries"`
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	TotalFocusMinutes  int        `json:"total_focus_minutes"`
	LastCompletionDate *time.Time `json:"last_completion_date,omitempty"`
}
