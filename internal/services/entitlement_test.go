package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindnotes/mindnotes-backend/internal/models"
)

var subscriptionCols = []string{
	"id", "user_id", "plan", "status", "started_at", "expires_at", "canceled_at",
	"trial_started_at", "trial_ends_at", "auto_renew",
}

func TestEntitlementCheck(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	newService := func(t *testing.T) (*EntitlementService, sqlmock.Sqlmock) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return NewEntitlementService(db, 7), mock
	}

	t.Run("never subscribed", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectQuery(`SELECT .+ FROM subscriptions`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(subscriptionCols))

		ent, err := svc.Check(context.Background(), userID, now)
		require.NoError(t, err)
		assert.False(t, ent.IsEntitled)
		assert.Equal(t, models.PlanFree, ent.Plan)
		assert.Equal(t, DenialNeverSubscribed, ent.DenialReason)
	})

	t.Run("active paid subscription", func(t *testing.T) {
		svc, mock := newService(t)
		expires := now.Add(30 * 24 * time.Hour)
		mock.ExpectQuery(`SELECT .+ FROM subscriptions`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(subscriptionCols).AddRow(
				uuid.New(), userID, models.PlanProMonthly, models.SubscriptionActive,
				now.Add(-time.Hour), expires, nil, nil, nil, true))

		ent, err := svc.Check(context.Background(), userID, now)
		require.NoError(t, err)
		assert.True(t, ent.IsEntitled)
		assert.Empty(t, ent.DenialReason)
	})

	t.Run("lapsed subscription", func(t *testing.T) {
		svc, mock := newService(t)
		expired := now.Add(-24 * time.Hour)
		mock.ExpectQuery(`SELECT .+ FROM subscriptions`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(subscriptionCols).AddRow(
				uuid.New(), userID, models.PlanProMonthly, models.SubscriptionActive,
				now.Add(-48*time.Hour), expired, nil, nil, nil, true))

		ent, err := svc.Check(context.Background(), userID, now)
		require.NoError(t, err)
		assert.False(t, ent.IsEntitled)
		assert.Equal(t, DenialSubscriptionExpired, ent.DenialReason)
	})

	t.Run("trial in window", func(t *testing.T) {
		svc, mock := newService(t)
		trialEnds := now.Add(3 * 24 * time.Hour)
		mock.ExpectQuery(`SELECT .+ FROM subscriptions`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(subscriptionCols).AddRow(
				uuid.New(), userID, models.PlanProMonthly, models.SubscriptionTrial,
				now.Add(-4*24*time.Hour), nil, nil, now.Add(-4*24*time.Hour), trialEnds, true))

		ent, err := svc.Check(context.Background(), userID, now)
		require.NoError(t, err)
		assert.True(t, ent.IsEntitled)
		assert.True(t, ent.OnTrial)
		assert.Equal(t, 4, ent.TrialDaysLeft)
	})

	t.Run("trial lapsed", func(t *testing.T) {
		svc, mock := newService(t)
		trialEnded := now.Add(-24 * time.Hour)
		mock.ExpectQuery(`SELECT .+ FROM subscriptions`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(subscriptionCols).AddRow(
				uuid.New(), userID, models.PlanProMonthly, models.SubscriptionTrial,
				now.Add(-8*24*time.Hour), nil, nil, now.Add(-8*24*time.Hour), trialEnded, true))

		ent, err := svc.Check(context.Background(), userID, now)
		require.NoError(t, err)
		assert.False(t, ent.IsEntitled)
		assert.Equal(t, DenialTrialExpired, ent.DenialReason)
	})
}

func TestIncrementTrialUsage(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	svc := NewEntitlementService(db, 7)
	userID := uuid.New()

	mock.ExpectExec(`UPDATE premium_trials SET morning_charge_count`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.IncrementTrialUsage(context.Background(), userID, models.FlowMorningCharge))
	assert.NoError(t, mock.ExpectationsWereMet())

	err = svc.IncrementTrialUsage(context.Background(), userID, "not_a_flow")
	assert.Error(t, err)
}
