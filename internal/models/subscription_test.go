package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsPro(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	t.Run("free plan never pro", func(t *testing.T) {
		s := &Subscription{Plan: PlanFree, Status: SubscriptionActive}
		assert.False(t, s.IsPro(now))
	})

	t.Run("active with future expiry", func(t *testing.T) {
		s := &Subscription{Plan: PlanProMonthly, Status: SubscriptionActive, ExpiresAt: &future}
		assert.True(t, s.IsPro(now))
	})

	t.Run("active with no expiry does not lapse", func(t *testing.T) {
		s := &Subscription{Plan: PlanProYearly, Status: SubscriptionActive}
		assert.True(t, s.IsPro(now))
	})

	t.Run("active but lapsed", func(t *testing.T) {
		s := &Subscription{Plan: PlanProMonthly, Status: SubscriptionActive, ExpiresAt: &past}
		assert.False(t, s.IsPro(now))
	})

	t.Run("trial honors trial end", func(t *testing.T) {
		s := &Subscription{Plan: PlanProMonthly, Status: SubscriptionTrial, TrialEndsAt: &future}
		assert.True(t, s.IsPro(now))

		s.TrialEndsAt = &past
		assert.False(t, s.IsPro(now))

		s.TrialEndsAt = nil
		assert.False(t, s.IsPro(now))
	})

	t.Run("canceled and expired are never pro", func(t *testing.T) {
		s := &Subscription{Plan: PlanProMonthly, Status: SubscriptionCanceled, ExpiresAt: &future}
		assert.False(t, s.IsPro(now))

		s.Status = SubscriptionExpired
		assert.False(t, s.IsPro(now))
	})
}

func TestPremiumTrialWindow(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	trial := &PremiumTrial{TrialEndsAt: now.Add(3*24*time.Hour + time.Hour)}
	assert.True(t, trial.IsTrialActive(now))
	assert.Equal(t, 3, trial.DaysRemaining(now))

	ended := &PremiumTrial{TrialEndsAt: now.Add(-time.Hour)}
	assert.False(t, ended.IsTrialActive(now))
	assert.Zero(t, ended.DaysRemaining(now))
}

func TestPlanDisplayName(t *testing.T) {
	assert.Equal(t, "Pro Monthly", (&Subscription{Plan: PlanProMonthly}).PlanDisplayName())
	assert.Equal(t, "Pro Yearly", (&Subscription{Plan: PlanProYearly}).PlanDisplayName())
	assert.Equal(t, "Free Plan", (&Subscription{Plan: PlanFree}).PlanDisplayName())
}
