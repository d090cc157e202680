package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCurrentStreak(t *testing.T) {
	now := day("2026-08-31")

	t.Run("empty history", func(t *testing.T) {
		assert.Equal(t, 0, CurrentStreak(nil, now))
	})

	t.Run("single completion today", func(t *testing.T) {
		assert.Equal(t, 1, CurrentStreak([]time.Time{day("2026-08-31")}, now))
	})

	t.Run("run ending today", func(t *testing.T) {
		days := []time.Time{day("2026-08-29"), day("2026-08-30"), day("2026-08-31")}
		assert.Equal(t, 3, CurrentStreak(days, now))
	})

	t.Run("run ending yesterday still counts", func(t *testing.T) {
		days := []time.Time{day("2026-08-28"), day("2026-08-29"), day("2026-08-30")}
		assert.Equal(t, 3, CurrentStreak(days, now))
	})

	t.Run("run ending two days ago is broken", func(t *testing.T) {
		days := []time.Time{day("2026-08-27"), day("2026-08-28"), day("2026-08-29")}
		assert.Equal(t, 0, CurrentStreak(days, now))
	})

	t.Run("gap splits the run", func(t *testing.T) {
		days := []time.Time{day("2026-08-25"), day("2026-08-26"), day("2026-08-30"), day("2026-08-31")}
		assert.Equal(t, 2, CurrentStreak(days, now))
	})

	t.Run("duplicate days collapse", func(t *testing.T) {
		days := []time.Time{day("2026-08-31"), day("2026-08-31"), day("2026-08-30")}
		assert.Equal(t, 2, CurrentStreak(days, now))
	})
}

func TestAdvanceStreak(t *testing.T) {
	now := day("2026-08-31")

	t.Run("first ever completion", func(t *testing.T) {
		assert.Equal(t, 1, AdvanceStreak(0, nil, now))
	})

	t.Run("second completion same day keeps streak", func(t *testing.T) {
		last := day("2026-08-31")
		assert.Equal(t, 4, AdvanceStreak(4, &last, now))
	})

	t.Run("completion after yesterday extends", func(t *testing.T) {
		last := day("2026-08-30")
		assert.Equal(t, 5, AdvanceStreak(4, &last, now))
	})

	t.Run("completion after a gap resets to one", func(t *testing.T) {
		last := day("2026-08-20")
		assert.Equal(t, 1, AdvanceStreak(9, &last, now))
	})
}

func TestLongestStreak(t *testing.T) {
	assert.Equal(t, 10, LongestStreak(10, 7))
	assert.Equal(t, 11, LongestStreak(10, 11))
	assert.Equal(t, 0, LongestStreak(0, 0))
}
