package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActualDuration(t *testing.T) {
	start := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	t.Run("no pauses", func(t *testing.T) {
		s := &FocusSession{StartedAt: start}
		assert.Equal(t, 25*time.Minute, s.ActualDuration(start.Add(25*time.Minute)))
	})

	t.Run("closed pause subtracted", func(t *testing.T) {
		s := &FocusSession{
			StartedAt:                 start,
			TotalPauseDurationSeconds: 300,
		}
		assert.Equal(t, 20*time.Minute, s.ActualDuration(start.Add(25*time.Minute)))
	})

	t.Run("open pause counted up to end", func(t *testing.T) {
		pauseStart := start.Add(20 * time.Minute)
		s := &FocusSession{
			StartedAt: start,
			Pauses:    []PauseInterval{{StartedAt: pauseStart}},
		}
		// Paused for the final 5 minutes of a 25 minute span.
		assert.Equal(t, 20*time.Minute, s.ActualDuration(start.Add(25*time.Minute)))
	})

	t.Run("never negative", func(t *testing.T) {
		s := &FocusSession{
			StartedAt:                 start,
			TotalPauseDurationSeconds: 3600,
		}
		assert.Equal(t, time.Duration(0), s.ActualDuration(start.Add(10*time.Minute)))
	})
}

func TestOpenPause(t *testing.T) {
	now := time.Now()
	closed := PauseInterval{StartedAt: now, EndedAt: &now, DurationSeconds: 60}
	open := PauseInterval{StartedAt: now}

	s := &FocusSession{Pauses: []PauseInterval{closed, open}}
	assert.Equal(t, 1, s.OpenPause())

	s = &FocusSession{Pauses: []PauseInterval{closed}}
	assert.Equal(t, -1, s.OpenPause())

	s = &FocusSession{}
	assert.Equal(t, -1, s.OpenPause())
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(SessionCompleted))
	assert.True(t, IsTerminal(SessionCanceled))
	assert.False(t, IsTerminal(SessionActive))
	assert.False(t, IsTerminal(SessionPaused))
}
