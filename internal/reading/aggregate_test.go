package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truthgoals/internal/bible"
	"truthgoals/internal/models"
)

func date(value string) time.Time {
	d, err := time.Parse(models.DateLayout, value)
	if err != nil {
		panic(err)
	}
	return d
}

func event(book string, chapter int, dateRead string) models.ReadEvent {
	return models.ReadEvent{
		UserID:        "user-1",
		BookName:      book,
		ChapterNumber: chapter,
		DateRead:      date(dateRead),
	}
}

func TestAggregate_GenesisMatthewScenario(t *testing.T) {
	books := []models.BookDefinition{
		{Name: "Genesis", Chapters: 50, Testament: models.OldTestament},
		{Name: "Matthew", Chapters: 28, Testament: models.NewTestament},
	}
	events := []models.ReadEvent{
		event("Genesis", 1, "2024-01-01"),
		event("Genesis", 2, "2024-01-01"),
	}

	progress, summary := Aggregate(books, events)

	assert.Equal(t, 78, summary.TotalChapters)
	assert.Equal(t, 2, summary.ChaptersRead)
	assert.Equal(t, 4, summary.OldTestamentProgress)
	assert.Equal(t, 0, summary.NewTestamentProgress)
	assert.Equal(t, 3, summary.OverallProgress)
	assert.Equal(t, []string{"2024-01-01"}, FormatDates(ReadingDates(events)))

	require.Len(t, progress, 2)
	assert.Equal(t, "Genesis", progress[0].Book.Name)
	assert.Equal(t, 2, progress[0].ChaptersRead)
	assert.Equal(t, 4, progress[0].Progress)
	require.Len(t, progress[0].Chapters, 50)
	assert.True(t, progress[0].Chapters[0].IsRead)
	require.NotNil(t, progress[0].Chapters[0].DateRead)
	assert.Equal(t, "2024-01-01", progress[0].Chapters[0].DateRead.Format(models.DateLayout))
	assert.False(t, progress[0].Chapters[2].IsRead)
	assert.Nil(t, progress[0].Chapters[2].DateRead)
	assert.Equal(t, 0, progress[1].ChaptersRead)
}

func TestBuildChapterStates_IgnoresInvalidEvents(t *testing.T) {
	books := []models.BookDefinition{
		{Name: "Ruth", Chapters: 4, Testament: models.OldTestament},
	}
	events := []models.ReadEvent{
		event("Ruth", 0, "2024-01-01"),
		event("Ruth", 5, "2024-01-01"),
		event("Hezekiah", 1, "2024-01-01"),
		event("Ruth", 4, "2024-01-02"),
	}

	states := BuildChapterStates(books, events)

	require.Len(t, states, 1)
	require.Len(t, states["Ruth"], 4)
	assert.Equal(t, 1, countRead(states["Ruth"]))
	assert.True(t, states["Ruth"][3].IsRead)
	assert.Equal(t, 4, states["Ruth"][3].ChapterNumber)
	assert.Equal(t, "Ruth", states["Ruth"][3].BookName)
}

func TestSummarize_ReadNeverExceedsTotal(t *testing.T) {
	books := bible.Books()

	// Duplicate events for the same chapter, as a racing double insert would leave
	var events []models.ReadEvent
	for _, book := range books {
		for chapter := 1; chapter <= book.Chapters; chapter++ {
			events = append(events, event(book.Name, chapter, "2024-02-01"))
			events = append(events, event(book.Name, chapter, "2024-02-02"))
		}
	}

	_, summary := Aggregate(books, events)

	assert.Equal(t, 1189, summary.TotalChapters)
	assert.Equal(t, 1189, summary.ChaptersRead)
	assert.LessOrEqual(t, summary.ChaptersRead, summary.TotalChapters)
	assert.Equal(t, 100, summary.OverallProgress)
	assert.Equal(t, 100, summary.OldTestamentProgress)
	assert.Equal(t, 100, summary.NewTestamentProgress)
}

func TestSummarize_EmptyTestamentIsZero(t *testing.T) {
	books := []models.BookDefinition{
		{Name: "Jude", Chapters: 1, Testament: models.NewTestament},
	}

	_, summary := Aggregate(books, []models.ReadEvent{event("Jude", 1, "2024-01-01")})

	assert.Equal(t, 0, summary.OldTestamentTotal)
	assert.Equal(t, 0, summary.OldTestamentProgress)
	assert.Equal(t, 100, summary.NewTestamentProgress)

	_, summary = Aggregate(nil, nil)
	assert.Equal(t, 0, summary.TotalChapters)
	assert.Equal(t, 0, summary.OverallProgress)
	assert.Equal(t, 0, summary.OldTestamentProgress)
	assert.Equal(t, 0, summary.NewTestamentProgress)
}

func TestPercentage(t *testing.T) {
	testCases := []struct {
		name     string
		read     int
		total    int
		expected int
	}{
		{name: "zero total", read: 0, total: 0, expected: 0},
		{name: "zero total with reads", read: 3, total: 0, expected: 0},
		{name: "nothing read", read: 0, total: 50, expected: 0},
		{name: "rounds down", read: 1, total: 50, expected: 2},
		{name: "rounds half up", read: 1, total: 8, expected: 13},
		{name: "rounds up", read: 2, total: 78, expected: 3},
		{name: "complete", read: 1189, total: 1189, expected: 100},
		{name: "clamped", read: 10, total: 4, expected: 100},
		{name: "negative read", read: -1, total: 4, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Percentage(tc.read, tc.total))
		})
	}
}
