package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mindnotes/mindnotes-backend/internal/models"
)

func TestStepUpdate(t *testing.T) {
	now := time.Date(2026, 8, 31, 7, 30, 0, 0, time.UTC)

	t.Run("addresses the step by its fixed name", func(t *testing.T) {
		update := stepUpdate("gratitude", models.StepRecord{
			Payload:     map[string]interface{}{"text": "morning coffee"},
			CompletedAt: now,
		}, now)

		set, ok := update["$set"].(bson.M)
		require.True(t, ok)
		assert.Contains(t, set, "steps.gratitude")
		assert.Contains(t, set, "updated_at")
		assert.NotContains(t, update, "$push")
	})

	t.Run("resubmission replaces the prior record", func(t *testing.T) {
		steps := map[string]models.StepRecord{}
		apply := func(update bson.M) {
			for key, val := range update["$set"].(bson.M) {
				if key == "steps.intention" {
					steps["intention"] = val.(models.StepRecord)
				}
			}
		}

		apply(stepUpdate("intention", models.StepRecord{
			Payload:     map[string]interface{}{"text": "first draft"},
			CompletedAt: now,
		}, now))
		later := now.Add(2 * time.Minute)
		apply(stepUpdate("intention", models.StepRecord{
			Payload:     map[string]interface{}{"text": "second draft"},
			CompletedAt: later,
		}, later))

		require.Len(t, steps, 1)
		assert.Equal(t, "second draft", steps["intention"].Payload["text"])
		assert.Equal(t, later, steps["intention"].CompletedAt)
	})
}

func TestOpenFromToday(t *testing.T) {
	now := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)
	today := sessionDate(now)

	t.Run("session started today is resumable", func(t *testing.T) {
		session := &models.ReflectionSession{SessionDate: today}
		assert.True(t, openFromToday(session, today))
	})

	t.Run("session left over from yesterday is not", func(t *testing.T) {
		session := &models.ReflectionSession{SessionDate: sessionDate(now.AddDate(0, 0, -1))}
		assert.False(t, openFromToday(session, today))
	})
}
