package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateJournalEntry(t *testing.T) {
	t.Run("text entry needs content or prompt responses", func(t *testing.T) {
		errs := ValidateJournalEntry(&JournalEntry{EntryType: EntryTypeText})
		assert.Contains(t, errs, "content")

		errs = ValidateJournalEntry(&JournalEntry{EntryType: EntryTypeText, Content: "today was fine"})
		assert.Empty(t, errs)

		errs = ValidateJournalEntry(&JournalEntry{
			EntryType: EntryTypeText,
			PromptResponses: []PromptResponseEmbed{
				{PromptID: "p1", Question: "What went well?", Answer: "Everything"},
			},
		})
		assert.Empty(t, errs)
	})

	t.Run("voice entry needs a voice note", func(t *testing.T) {
		errs := ValidateJournalEntry(&JournalEntry{EntryType: EntryTypeVoice})
		assert.Contains(t, errs, "voice_notes")

		errs = ValidateJournalEntry(&JournalEntry{
			EntryType:  EntryTypeVoice,
			VoiceNotes: []VoiceNoteEmbed{{AudioURL: "https://cdn.example.com/a.m4a"}},
		})
		assert.Empty(t, errs)
	})

	t.Run("photo entry needs a photo with url", func(t *testing.T) {
		errs := ValidateJournalEntry(&JournalEntry{EntryType: EntryTypePhoto})
		assert.Contains(t, errs, "photos")

		errs = ValidateJournalEntry(&JournalEntry{
			EntryType: EntryTypePhoto,
			Photos:    []PhotoEmbed{{ImageURL: ""}},
		})
		assert.Contains(t, errs, "photos")
	})

	t.Run("mixed entry needs any content", func(t *testing.T) {
		errs := ValidateJournalEntry(&JournalEntry{EntryType: EntryTypeMixed})
		assert.Contains(t, errs, "content")

		errs = ValidateJournalEntry(&JournalEntry{
			EntryType: EntryTypeMixed,
			Photos:    []PhotoEmbed{{ImageURL: "https://cdn.example.com/p.jpg"}},
		})
		assert.Empty(t, errs)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		errs := ValidateJournalEntry(&JournalEntry{EntryType: "video"})
		assert.Contains(t, errs, "entry_type")
	})

	t.Run("privacy values are closed", func(t *testing.T) {
		errs := ValidateJournalEntry(&JournalEntry{EntryType: EntryTypeText, Content: "x", Privacy: "friends"})
		assert.Contains(t, errs, "privacy")
	})
}

func TestComputeStats(t *testing.T) {
	e := &JournalEntry{Content: strings.Repeat("word ", 400)}
	e.ComputeStats()
	assert.Equal(t, 400, e.WordCount)
	assert.Equal(t, 2, e.ReadingTimeMinutes)

	short := &JournalEntry{Content: "just a few words"}
	short.ComputeStats()
	assert.Equal(t, 4, short.WordCount)
	assert.Equal(t, 1, short.ReadingTimeMinutes, "reading time floors at one minute")

	empty := &JournalEntry{}
	empty.ComputeStats()
	assert.Zero(t, empty.WordCount)
}
