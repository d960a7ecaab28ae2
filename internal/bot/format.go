package bot

import (
	"fmt"
	"strings"
	"time"

	"truthgoals/internal/models"
	"truthgoals/internal/notify"
	"truthgoals/internal/reading"
)

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// FormatStreak renders streak statistics
func FormatStreak(streak models.StreakInfo) string {
	if streak.LastReadDate == nil {
		return "No chapters read yet. Use /read to mark your first chapter."
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("🔥 Current streak: %s\n", days(streak.CurrentStreak)))
	text.WriteString(fmt.Sprintf("🏆 Longest run: %s\n", days(streak.LongestRun)))
	text.WriteString(fmt.Sprintf("📅 Last read: %s", streak.LastReadDate.Format(models.DateLayout)))
	return text.String()
}

// FormatProgressReport renders the /progress report
func FormatProgressReport(snapshot models.Snapshot) string {
	summary := snapshot.Summary

	var text strings.Builder
	text.WriteString("📖 Bible Reading Progress\n\n")
	text.WriteString(fmt.Sprintf("Overall: %d of %d chapters (%d%%)\n",
		summary.ChaptersRead, summary.TotalChapters, summary.OverallProgress))
	text.WriteString(fmt.Sprintf("Old Testament: %d of %d (%d%%)\n",
		summary.OldTestamentRead, summary.OldTestamentTotal, summary.OldTestamentProgress))
	text.WriteString(fmt.Sprintf("New Testament: %d of %d (%d%%)\n\n",
		summary.NewTestamentRead, summary.NewTestamentTotal, summary.NewTestamentProgress))

	text.WriteString(FormatStreak(snapshot.Streak))

	var inProgress []string
	var completed []string
	for _, book := range snapshot.Books {
		switch {
		case book.ChaptersRead == 0:
		case book.ChaptersRead >= book.Book.Chapters:
			completed = append(completed, book.Book.Name)
		default:
			inProgress = append(inProgress, fmt.Sprintf("• %s %d/%d (%d%%)",
				book.Book.Name, book.ChaptersRead, book.Book.Chapters, book.Progress))
		}
	}

	if len(inProgress) > 0 {
		text.WriteString("\n\n📚 In progress:\n")
		text.WriteString(strings.Join(inProgress, "\n"))
	}
	if len(completed) > 0 {
		text.WriteString("\n\n✅ Completed: ")
		text.WriteString(strings.Join(completed, ", "))
	}
	return text.String()
}

// FormatCalendar renders the reading days of one month
func FormatCalendar(dates []time.Time, year int, month time.Month) string {
	var readDays []string
	for i := len(dates) - 1; i >= 0; i-- {
		d := dates[i]
		if d.Year() == year && d.Month() == month {
			readDays = append(readDays, fmt.Sprintf("%d", d.Day()))
		}
	}

	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	completion := reading.MonthlyCompletion(dates, year, month)

	var text strings.Builder
	text.WriteString(fmt.Sprintf("📅 %s %d\n\n", month, year))
	text.WriteString(fmt.Sprintf("Days read: %d of %d (%d%%)", len(readDays), daysInMonth, completion))
	if len(readDays) > 0 {
		text.WriteString("\nRead on: ")
		text.WriteString(strings.Join(readDays, ", "))
	}
	return text.String()
}

// FormatNotifications renders the notification list
func FormatNotifications(list []notify.Notification) string {
	if len(list) == 0 {
		return "No notifications."
	}

	var text strings.Builder
	text.WriteString("🔔 Notifications\n")
	for _, n := range list {
		marker := "•"
		if !n.Read {
			marker = "🆕"
		}
		text.WriteString(fmt.Sprintf("\n%s %s: %s", marker, n.Title, n.Message))
	}
	return text.String()
}
