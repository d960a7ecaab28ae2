package reading

import (
	"sort"
	"time"

	"truthgoals/internal/models"
)

const day = 24 * time.Hour

// CalendarDate returns the calendar date of t in loc as midnight UTC
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(value string) (time.Time, error) {
	return time.Parse(models.DateLayout, value)
}

// daysBetween returns the whole days from b to a; both must be calendar dates
func daysBetween(a, b time.Time) int {
	return int(a.Sub(b) / day)
}

// ReadingDates returns the distinct reading dates of the events, most recent first
func ReadingDates(events []models.ReadEvent) []time.Time {
	seen := make(map[time.Time]bool)
	dates := make([]time.Time, 0)
	for _, event := range events {
		if event.DateRead.IsZero() {
			continue
		}
		date := CalendarDate(event.DateRead, time.UTC)
		if seen[date] {
			continue
		}
		seen[date] = true
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool {
		return dates[i].After(dates[j])
	})
	return dates
}

// FormatDates renders dates as YYYY-MM-DD strings
func FormatDates(dates []time.Time) []string {
	formatted := make([]string, len(dates))
	for i, date := range dates {
		formatted[i] = date.Format(models.DateLayout)
	}
	return formatted
}

// MonthlyCompletion returns the percentage of days in the month with reading
func MonthlyCompletion(dates []time.Time, year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	read := 0
	for _, date := range dates {
		if date.Year() == year && date.Month() == month {
			read++
		}
	}
	return Percentage(read, daysInMonth)
}

// YearlyCompletion returns the share of a 365-day year with reading
func YearlyCompletion(dates []time.Time, year int) int {
	read := 0
	for _, date := range dates {
		if date.Year() == year {
			read++
		}
	}
	return Percentage(read, 365)
}
