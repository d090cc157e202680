package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lib/pq"
)

func newTagService(t *testing.T) (*TagService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTagService(db), mock
}

func TestTagCreate(t *testing.T) {
	userID := uuid.New()

	t.Run("created with default color", func(t *testing.T) {
		svc, mock := newTagService(t)
		tagID := uuid.New()
		mock.ExpectQuery(`INSERT INTO tags`).
			WithArgs(userID, "work", "#3B82F6").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(tagID, time.Now()))

		tag, errs, err := svc.Create(context.Background(), userID, "  work  ", "")
		require.NoError(t, err)
		assert.Empty(t, errs)
		assert.Equal(t, tagID, tag.ID)
		assert.Equal(t, "work", tag.Name)
		assert.Equal(t, "#3B82F6", tag.Color)
	})

	t.Run("empty name is a field error", func(t *testing.T) {
		svc, _ := newTagService(t)
		_, errs, err := svc.Create(context.Background(), userID, "   ", "")
		require.NoError(t, err)
		assert.Contains(t, errs, "name")
	})

	t.Run("bad color is a field error", func(t *testing.T) {
		svc, _ := newTagService(t)
		_, errs, err := svc.Create(context.Background(), userID, "work", "blue")
		require.NoError(t, err)
		assert.Contains(t, errs, "color")
	})

	t.Run("unique violation maps to duplicate", func(t *testing.T) {
		svc, mock := newTagService(t)
		mock.ExpectQuery(`INSERT INTO tags`).
			WithArgs(userID, "work", "#3B82F6").
			WillReturnError(&pq.Error{Code: "23505"})

		_, _, err := svc.Create(context.Background(), userID, "work", "")
		assert.ErrorIs(t, err, ErrDuplicate)
	})
}

func TestTagDelete(t *testing.T) {
	userID := uuid.New()
	tagID := uuid.New()

	t.Run("deletes own tag", func(t *testing.T) {
		svc, mock := newTagService(t)
		mock.ExpectExec(`DELETE FROM tags`).
			WithArgs(tagID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.Delete(context.Background(), userID, tagID))
	})

	t.Run("missing tag is not found", func(t *testing.T) {
		svc, mock := newTagService(t)
		mock.ExpectExec(`DELETE FROM tags`).
			WithArgs(tagID, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, svc.Delete(context.Background(), userID, tagID), ErrNotFound)
	})
}
