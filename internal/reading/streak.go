package reading

import (
	"sort"
	"time"

	"truthgoals/internal/models"
)

// ComputeStreak derives streak information from distinct reading dates.
//
// The current streak only counts if the most recent date is today or
// yesterday; it then extends backwards while dates are exactly one day
// apart. LongestStreak equals CurrentStreak. LongestRun scans the whole
// history for the longest run of consecutive days.
//
// today must already be a calendar date as returned by CalendarDate or
// Tracker.Today. A wall-clock time is truncated in UTC, which can pick the
// wrong day near midnight in other zones.
func ComputeStreak(dates []time.Time, today time.Time) models.StreakInfo {
	sorted := distinctDescending(dates)
	if len(sorted) == 0 {
		return models.StreakInfo{}
	}

	today = CalendarDate(today, time.UTC)
	latest := sorted[0]

	current := 0
	if gap := daysBetween(today, latest); gap == 0 || gap == 1 {
		current = 1
		for i := 1; i < len(sorted); i++ {
			if daysBetween(sorted[i-1], sorted[i]) != 1 {
				break
			}
			current++
		}
	}

	return models.StreakInfo{
		CurrentStreak: current,
		LongestStreak: current,
		LastReadDate:  &latest,
		LongestRun:    longestRun(sorted),
	}
}

// longestRun expects distinct dates sorted descending
func longestRun(sorted []time.Time) int {
	if len(sorted) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if daysBetween(sorted[i-1], sorted[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func distinctDescending(dates []time.Time) []time.Time {
	seen := make(map[time.Time]bool, len(dates))
	sorted := make([]time.Time, 0, len(dates))
	for _, date := range dates {
		date = CalendarDate(date, time.UTC)
		if seen[date] {
			continue
		}
		seen[date] = true
		sorted = append(sorted, date)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].After(sorted[j])
	})
	return sorted
}
