package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreak(t *testing.T) {
	today := date("2024-03-10")
	daysAgo := func(n int) time.Time {
		return today.AddDate(0, 0, -n)
	}

	testCases := []struct {
		name            string
		dates           []time.Time
		expectedCurrent int
		expectedRun     int
		expectedLast    string
		description     string
	}{
		{
			name:            "three consecutive days ending today",
			dates:           []time.Time{today, daysAgo(1), daysAgo(2)},
			expectedCurrent: 3,
			expectedRun:     3,
			expectedLast:    "2024-03-10",
			description:     "today, yesterday and the day before form a streak of 3",
		},
		{
			name:            "last read two days ago",
			dates:           []time.Time{daysAgo(2)},
			expectedCurrent: 0,
			expectedRun:     1,
			expectedLast:    "2024-03-08",
			description:     "no credit when neither today nor yesterday was read",
		},
		{
			name:            "gap after today",
			dates:           []time.Time{today, daysAgo(5)},
			expectedCurrent: 1,
			expectedRun:     1,
			expectedLast:    "2024-03-10",
			description:     "the gap breaks the run at the second date",
		},
		{
			name:            "streak ending yesterday",
			dates:           []time.Time{daysAgo(1), daysAgo(2), daysAgo(3), daysAgo(7)},
			expectedCurrent: 3,
			expectedRun:     3,
			expectedLast:    "2024-03-09",
			description:     "yesterday still keeps the streak alive",
		},
		{
			name:            "single date today",
			dates:           []time.Time{today},
			expectedCurrent: 1,
			expectedRun:     1,
			expectedLast:    "2024-03-10",
			description:     "a single read today is a streak of one",
		},
		{
			name:            "unsorted with duplicates",
			dates:           []time.Time{daysAgo(1), today, daysAgo(1), daysAgo(2), today},
			expectedCurrent: 3,
			expectedRun:     3,
			expectedLast:    "2024-03-10",
			description:     "input is deduplicated and sorted before walking",
		},
		{
			name:            "older run longer than current",
			dates:           []time.Time{today, daysAgo(10), daysAgo(11), daysAgo(12), daysAgo(13)},
			expectedCurrent: 1,
			expectedRun:     4,
			expectedLast:    "2024-03-10",
			description:     "the longest run scans the full history",
		},
		{
			name:            "across a month boundary",
			dates:           []time.Time{date("2024-03-01"), date("2024-02-29"), date("2024-02-28")},
			expectedCurrent: 0,
			expectedRun:     3,
			expectedLast:    "2024-03-01",
			description:     "leap day counts as a consecutive day",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			streak := ComputeStreak(tc.dates, today)

			assert.Equal(t, tc.expectedCurrent, streak.CurrentStreak, tc.description)
			assert.Equal(t, streak.CurrentStreak, streak.LongestStreak, "longest streak mirrors the current streak")
			assert.Equal(t, tc.expectedRun, streak.LongestRun, tc.description)
			require.NotNil(t, streak.LastReadDate)
			assert.Equal(t, tc.expectedLast, streak.LastReadDate.Format("2006-01-02"))
		})
	}
}

func TestComputeStreak_Empty(t *testing.T) {
	streak := ComputeStreak(nil, date("2024-03-10"))

	assert.Equal(t, 0, streak.CurrentStreak)
	assert.Equal(t, 0, streak.LongestStreak)
	assert.Nil(t, streak.LastReadDate)
	assert.Equal(t, 0, streak.LongestRun)
}

func TestComputeStreak_TodayInLocalTime(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 22:00 local on March 9 is already March 10 in UTC
	now := time.Date(2024, 3, 9, 22, 0, 0, 0, loc)

	streak := ComputeStreak([]time.Time{date("2024-03-09")}, CalendarDate(now, loc))
	assert.Equal(t, 1, streak.CurrentStreak)
}

func TestComputeStreak_LocalEveningUsesCalendarDate(t *testing.T) {
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	// 2024-03-11 07:30 in Tokyo is still 2024-03-10 in UTC
	now := time.Date(2024, 3, 11, 7, 30, 0, 0, tokyo)
	dates := []time.Time{date("2024-03-09"), date("2024-03-08")}

	streak := ComputeStreak(dates, CalendarDate(now, tokyo))
	assert.Equal(t, 0, streak.CurrentStreak, "2024-03-09 is two days before the Tokyo date")

	streak = ComputeStreak(dates, CalendarDate(now, time.UTC))
	assert.Equal(t, 2, streak.CurrentStreak, "2024-03-09 is yesterday in UTC")
}
