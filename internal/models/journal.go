package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Journal entry types. The type decides which fields are required; see
// ValidateJournalEntry.
const (
	EntryTypeText  = "text"
	EntryTypeVoice = "voice"
	EntryTypePhoto = "photo"
	EntryTypeMixed = "mixed"
)

// Entry privacy values.
const (
	PrivacyPrivate = "private"
	PrivacyPublic  = "public"
)

// PhotoEmbed is photo metadata embedded in a journal entry. Only URLs are
// stored; media lives on an external CDN.
type PhotoEmbed struct {
	ImageURL string `bson:"image_url" json:"image_url"`
	Caption  string `bson:"caption,omitempty" json:"caption,omitempty"`
	Order    int    `bson:"order" json:"order"`
	Width    int    `bson:"width,omitempty" json:"width,omitempty"`
	Height   int    `bson:"height,omitempty" json:"height,omitempty"`
}

// VoiceNoteEmbed is voice note metadata embedded in a journal entry.
type VoiceNoteEmbed struct {
	AudioURL        string `bson:"audio_url" json:"audio_url"`
	DurationSeconds int    `bson:"duration_seconds,omitempty" json:"duration_seconds,omitempty"`
	Transcription   string `bson:"transcription,omitempty" json:"transcription,omitempty"`
	IsTranscribed   bool   `bson:"is_transcribed" json:"is_transcribed"`
}

// PromptResponseEmbed is a prompt answer embedded in a journal entry.
type PromptResponseEmbed struct {
	PromptID string `bson:"prompt_id" json:"prompt_id"`
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
}

// JournalEntry is a document-store record keyed by user and entry date.
type JournalEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	UserID    string             `bson:"user_id" json:"user_id"`

	Title     string    `bson:"title,omitempty" json:"title,omitempty"`
	Content   string    `bson:"content,omitempty" json:"content,omitempty"`
	EntryType string    `bson:"entry_type" json:"entry_type"`
	EntryDate time.Time `bson:"entry_date" json:"entry_date"`

	Privacy    string `bson:"privacy" json:"privacy"`
	IsFavorite bool   `bson:"is_favorite" json:"is_favorite"`
	IsArchived bool   `bson:"is_archived" json:"is_archived"`

	// Relational tag ids; no cross-store referential integrity.
	TagIDs []string `bson:"tag_ids,omitempty" json:"tag_ids,omitempty"`

	LocationName string   `bson:"location_name,omitempty" json:"location_name,omitempty"`
	Latitude     *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude    *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Weather      string   `bson:"weather,omitempty" json:"weather,omitempty"`
	Temperature  *float64 `bson:"temperature,omitempty" json:"temperature,omitempty"`

	WordCount          int `bson:"word_count" json:"word_count"`
	CharacterCount     int `bson:"character_count" json:"character_count"`
	ReadingTimeMinutes int `bson:"reading_time_minutes" json:"reading_time_minutes"`

	Photos          []PhotoEmbed          `bson:"photos,omitempty" json:"photos,omitempty"`
	VoiceNotes      []VoiceNoteEmbed      `bson:"voice_notes,omitempty" json:"voice_notes,omitempty"`
	PromptResponses []PromptResponseEmbed `bson:"prompt_responses,omitempty" json:"prompt_responses,omitempty"`
}

// ComputeStats fills the derived content counters.
func (e *JournalEntry) ComputeStats() {
	if e.Content == "" {
		return
	}
	e.WordCount = len(strings.Fields(e.Content))
	e.CharacterCount = len(e.Content)
	e.ReadingTimeMinutes = e.WordCount / 200
	if e.ReadingTimeMinutes < 1 {
		e.ReadingTimeMinutes = 1
	}
}

// ValidateJournalEntry enforces the per-variant required fields of the closed
// entry-type set. The returned map is field name → reason, empty when valid.
func ValidateJournalEntry(e *JournalEntry) map[string]string {
	errs := map[string]string{}

	switch e.EntryType {
	case EntryTypeText:
		if e.Content == "" && len(e.PromptResponses) == 0 {
			errs["content"] = "text entries must have content or prompt responses"
		}
	case EntryTypeVoice:
		if len(e.VoiceNotes) == 0 {
			errs["voice_notes"] = "voice entries must have at least one voice note"
		}
	case EntryTypePhoto:
		if len(e.Photos) == 0 {
			errs["photos"] = "photo entries must have at least one photo"
		}
	case EntryTypeMixed:
		if e.Content == "" && len(e.Photos) == 0 && len(e.VoiceNotes) == 0 {
			errs["content"] = "mixed entries must have content, photos, or voice notes"
		}
	default:
		errs["entry_type"] = "entry_type must be one of: text, voice, photo, mixed"
	}

	if e.Privacy != "" && e.Privacy != PrivacyPrivate && e.Privacy != PrivacyPublic {
		errs["privacy"] = "privacy must be private or public"
	}

	for _, p := range e.Photos {
		if p.ImageURL == "" {
			errs["photos"] = "each photo requires image_url"
			break
		}
	}
	for _, v := range e.VoiceNotes {
		if v.AudioURL == "" {
			errs["voice_notes"] = "each voice note requires audio_url"
			break
		}
	}
	for _, pr := range e.PromptResponses {
		if pr.Question == "" || pr.Answer == "" {
			errs["prompt_responses"] = "each prompt response requires question and answer"
			break
		}
	}

	return errs
}
