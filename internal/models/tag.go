package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag categorizes journal entries. Unique per (user, name).
type Tag struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
}
