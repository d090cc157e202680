package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindnotes/mindnotes-backend/internal/models"
)

func TestValidateStart(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		errs := validateStart(StartInput{
			SessionType:            models.SessionTypePomodoro,
			PlannedDurationSeconds: 1500,
		})
		assert.Empty(t, errs)
	})

	t.Run("reports each bad field by name", func(t *testing.T) {
		errs := validateStart(StartInput{SessionType: "marathon"})
		assert.Len(t, errs, 2)
		assert.Contains(t, errs, "session_type")
		assert.Contains(t, errs, "planned_duration_seconds")
	})

	t.Run("zero duration rejected", func(t *testing.T) {
		errs := validateStart(StartInput{SessionType: models.SessionTypeCustom})
		assert.Contains(t, errs, "planned_duration_seconds")
		assert.NotContains(t, errs, "session_type")
	})
}

func TestTransitionGuard(t *testing.T) {
	cases := []struct {
		name   string
		status string
		op     string
		ok     bool
	}{
		{"pause from active", models.SessionActive, "pause", true},
		{"pause from paused is a conflict", models.SessionPaused, "pause", false},
		{"pause from completed", models.SessionCompleted, "pause", false},
		{"resume from paused", models.SessionPaused, "resume", true},
		{"resume from active", models.SessionActive, "resume", false},
		{"tick from paused", models.SessionPaused, "tick", false},
		{"complete from active", models.SessionActive, "complete", true},
		{"complete from paused", models.SessionPaused, "complete", true},
		{"complete from completed", models.SessionCompleted, "complete", false},
		{"cancel from canceled", models.SessionCanceled, "cancel", false},
		{"step on paused session", models.SessionPaused, "step", true},
		{"step on completed session", models.SessionCompleted, "step", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := transitionGuard(tc.status, tc.op)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestRollUpCompletion(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	userID := "2f0c8f7e-2a34-4d6c-9a1e-000000000001"

	newService := func(t *testing.T) (*SessionService, sqlmock.Sqlmock) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return &SessionService{pg: db}, mock
	}

	t.Run("advances streak and adds minutes", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT current_streak, longest_streak, last_completion_date FROM user_profiles .+ FOR UPDATE`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"current_streak", "longest_streak", "last_completion_date"}).
				AddRow(3, 5, yesterday))
		mock.ExpectExec(`UPDATE user_profiles`).
			WithArgs(userID, 4, 5, dateOnly(now), 25).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		session := &models.FocusSession{SessionType: models.SessionTypePomodoro}
		err := svc.rollUpCompletion(context.Background(), userID, session, 25, now)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("program session also bumps the enrollment", func(t *testing.T) {
		svc, mock := newService(t)
		enrollmentID := "2f0c8f7e-2a34-4d6c-9a1e-000000000002"
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT current_streak, longest_streak, last_completion_date FROM user_profiles .+ FOR UPDATE`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"current_streak", "longest_streak", "last_completion_date"}).
				AddRow(0, 0, nil))
		mock.ExpectExec(`UPDATE user_profiles`).
			WithArgs(userID, 1, 1, dateOnly(now), 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE program_enrollments`).
			WithArgs(enrollmentID, 10, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		session := &models.FocusSession{
			SessionType:  models.SessionTypeProgram,
			EnrollmentID: enrollmentID,
		}
		err := svc.rollUpCompletion(context.Background(), userID, session, 10, now)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing profile row is tolerated", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT current_streak, longest_streak, last_completion_date FROM user_profiles .+ FOR UPDATE`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"current_streak", "longest_streak", "last_completion_date"}))
		mock.ExpectCommit()

		session := &models.FocusSession{SessionType: models.SessionTypeCustom}
		err := svc.rollUpCompletion(context.Background(), userID, session, 5, now)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
