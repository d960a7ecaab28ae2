package models

import "time"

// DateLayout is the calendar date format used for reading dates
const DateLayout = "2006-01-02"

// Testament is one of the two fixed partitions of the canon
type Testament string

const (
	OldTestament Testament = "old"
	NewTestament Testament = "new"
)

// BookDefinition describes one canonical book of the Bible
type BookDefinition struct {
	Name      string    `json:"name"`
	Chapters  int       `json:"chapters"`
	Testament Testament `json:"testament"`
}

// ReadEvent records that a user read a chapter on a calendar date
type ReadEvent struct {
	ID            string
	UserID        string
	BookName      string
	ChapterNumber int
	CompletedAt   time.Time
	// DateRead is a calendar date stored as midnight UTC
	DateRead time.Time
}

// ChapterState is the read state of a single chapter
type ChapterState struct {
	BookName      string
	ChapterNumber int
	IsRead        bool
	DateRead      *time.Time
}

// BookProgress represents the reading state of one book
type BookProgress struct {
	Book         BookDefinition
	Chapters     []ChapterState
	ChaptersRead int
	Progress     int
}

// ProgressSummary holds overall and per-testament completion
type ProgressSummary struct {
	TotalChapters   int
	ChaptersRead    int
	OverallProgress int

	OldTestamentTotal    int
	OldTestamentRead     int
	OldTestamentProgress int

	NewTestamentTotal    int
	NewTestamentRead     int
	NewTestamentProgress int
}

// StreakInfo holds consecutive-day reading statistics
type StreakInfo struct {
	CurrentStreak int
	// LongestStreak mirrors CurrentStreak, see LongestRun for the full history scan
	LongestStreak int
	LastReadDate  *time.Time
	// LongestRun is the longest run of consecutive reading days ever recorded
	LongestRun int
}

// Snapshot is everything the progress screens need for one user
type Snapshot struct {
	Books        []BookProgress
	Summary      ProgressSummary
	ReadingDates []time.Time
	Streak       StreakInfo
}
