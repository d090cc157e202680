package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DailyPrompt is a journaling question from the relational catalog.
type DailyPrompt struct {
	ID       uuid.UUID `json:"id"`
	Question string    `json:"question"`
	Category string    `json:"category"`
	IsActive bool      `json:"is_active"`
}

// PromptPick is one prompt snapshot inside a daily set. The question text is
// denormalized so catalog edits don't rewrite history.
type PromptPick struct {
	PromptID string `bson:"prompt_id" json:"prompt_id"`
	Question string `bson:"question" json:"question"`
	Category string `bson:"category" json:"category"`
}

// DailyPromptSet is the per-user, per-day selection of prompts, stored in the
// document store. Unique per (user, date).
type DailyPromptSet struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             string             `bson:"user_id" json:"user_id"`
	Date               string             `bson:"date" json:"date"` // YYYY-MM-DD
	Prompts            []PromptPick       `bson:"prompts" json:"prompts"`
	CompletedPromptIDs []string           `bson:"completed_prompt_ids,omitempty" json:"completed_prompt_ids,omitempty"`
	GeneratedAt        time.Time          `bson:"generated_at" json:"generated_at"`
}

// PromptResponse is one submitted answer, time-series in the document store.
type PromptResponse struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"user_id" json:"user_id"`
	PromptID         string             `bson:"prompt_id" json:"prompt_id"`
	SetDate          string             `bson:"set_date" json:"set_date"`
	Response         string             `bson:"response" json:"response"`
	WordCount        int                `bson:"word_count" json:"word_count"`
	TimeSpentSeconds int                `bson:"time_spent_seconds,omitempty" json:"time_spent_seconds,omitempty"`
	AnsweredAt       time.Time          `bson:"answered_at" json:"answered_at"`
}
