package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MoodCategory is slowly-changing catalog data in the relational ledger.
type MoodCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Emoji       string    `json:"emoji"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
}

// MoodFactor is catalog data for the free-form factor list on mood entries.
type MoodFactor struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	FactorType string    `json:"factor_type"`
	IsActive   bool      `json:"is_active"`
}

// FactorEntry is a flexible factor record on a mood entry, e.g.
// {name: "Sleep", value: "good"}.
type FactorEntry struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value,omitempty" json:"value,omitempty"`
}

// MoodEntry is high-write time-series data in the document store.
type MoodEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UserID    string             `bson:"user_id" json:"user_id"`

	CategoryID   string `bson:"category_id,omitempty" json:"category_id,omitempty"`
	CategoryName string `bson:"category_name,omitempty" json:"category_name,omitempty"` // denormalized for fast queries
	Emoji        string `bson:"emoji,omitempty" json:"emoji,omitempty"`

	Intensity int           `bson:"intensity" json:"intensity"`
	Note      string        `bson:"note,omitempty" json:"note,omitempty"`
	Factors   []FactorEntry `bson:"factors,omitempty" json:"factors,omitempty"`

	RecordedAt time.Time `bson:"recorded_at" json:"recorded_at"`
}

// ValidateMoodEntry checks the required fields; map is field → reason.
func ValidateMoodEntry(m *MoodEntry) map[string]string {
	errs := map[string]string{}
	if m.Intensity < 1 || m.Intensity > 10 {
		errs["intensity"] = "intensity must be between 1 and 10"
	}
	if m.CategoryID == "" && m.CategoryName == "" {
		errs["category_id"] = "category_id or category_name is required"
	}
	return errs
}
