package reading

import (
	"math"

	"truthgoals/internal/models"
)

// Percentage returns round(read/total*100) clamped to 0..100. A zero total
// yields 0.
func Percentage(read, total int) int {
	if total <= 0 || read <= 0 {
		return 0
	}
	pct := int(math.Round(float64(read) / float64(total) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// BuildChapterStates maps every book to its chapter states. Events for
// unknown books or chapters outside a book's range are ignored.
func BuildChapterStates(books []models.BookDefinition, events []models.ReadEvent) map[string][]models.ChapterState {
	states := make(map[string][]models.ChapterState, len(books))
	for _, book := range books {
		chapters := make([]models.ChapterState, book.Chapters)
		for i := range chapters {
			chapters[i] = models.ChapterState{
				BookName:      book.Name,
				ChapterNumber: i + 1,
			}
		}
		states[book.Name] = chapters
	}

	for _, event := range events {
		chapters, ok := states[event.BookName]
		if !ok {
			continue
		}
		idx := event.ChapterNumber - 1
		if idx < 0 || idx >= len(chapters) {
			continue
		}
		date := event.DateRead
		chapters[idx].IsRead = true
		chapters[idx].DateRead = &date
	}

	return states
}

func countRead(chapters []models.ChapterState) int {
	read := 0
	for _, chapter := range chapters {
		if chapter.IsRead {
			read++
		}
	}
	return read
}

// Summarize computes overall and per-testament completion
func Summarize(books []models.BookDefinition, states map[string][]models.ChapterState) models.ProgressSummary {
	var summary models.ProgressSummary
	for _, book := range books {
		read := countRead(states[book.Name])
		if read > book.Chapters {
			read = book.Chapters
		}

		summary.TotalChapters += book.Chapters
		summary.ChaptersRead += read

		switch book.Testament {
		case models.OldTestament:
			summary.OldTestamentTotal += book.Chapters
			summary.OldTestamentRead += read
		case models.NewTestament:
			summary.NewTestamentTotal += book.Chapters
			summary.NewTestamentRead += read
		}
	}

	summary.OverallProgress = Percentage(summary.ChaptersRead, summary.TotalChapters)
	summary.OldTestamentProgress = Percentage(summary.OldTestamentRead, summary.OldTestamentTotal)
	summary.NewTestamentProgress = Percentage(summary.NewTestamentRead, summary.NewTestamentTotal)
	return summary
}

// Aggregate builds per-book progress, in book order, and the summary
func Aggregate(books []models.BookDefinition, events []models.ReadEvent) ([]models.BookProgress, models.ProgressSummary) {
	states := BuildChapterStates(books, events)

	progress := make([]models.BookProgress, 0, len(books))
	for _, book := range books {
		chapters := states[book.Name]
		read := countRead(chapters)
		progress = append(progress, models.BookProgress{
			Book:         book,
			Chapters:     chapters,
			ChaptersRead: read,
			Progress:     Percentage(read, book.Chapters),
		})
	}

	return progress, Summarize(books, states)
}
