package services

import (
	"sort"
	"time"
)

// dateOnly truncates t to midnight in its own location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CurrentStreak counts the maximal run of consecutive calendar days ending
// today or yesterday, given the set of days with at least one completion.
// A run that ended before yesterday is broken and counts as zero.
func CurrentStreak(completionDays []time.Time, now time.Time) int {
	if len(completionDays) == 0 {
		return 0
	}

	seen := make(map[time.Time]bool, len(completionDays))
	for _, d := range completionDays {
		seen[dateOnly(d)] = true
	}

	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := dateOnly(now)
	yesterday := today.AddDate(0, 0, -1)

	latest := days[0]
	if !latest.Equal(today) && !latest.Equal(yesterday) {
		return 0
	}

	streak := 1
	cursor := latest
	for _, d := range days[1:] {
		if d.Equal(cursor.AddDate(0, 0, -1)) {
			streak++
			cursor = d
		} else {
			break
		}
	}
	return streak
}

// AdvanceStreak computes the new current streak after a completion today,
// using the previous streak and the date of the last completion. Completing
// twice on the same day keeps the streak unchanged.
func AdvanceStreak(current int, lastCompletion *time.Time, now time.Time) int {
	today := dateOnly(now)
	if lastCompletion == nil {
		return 1
	}
	last := dateOnly(*lastCompletion)
	switch {
	case last.Equal(today):
		return current
	case last.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

// LongestStreak keeps the historical high-water mark.
func LongestStreak(longest, current int) int {
	if current > longest {
		return current
	}
	return longest
}
