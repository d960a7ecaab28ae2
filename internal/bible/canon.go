// Package bible holds the static canon of book definitions.
package bible

import (
	"strings"

	"truthgoals/internal/models"
)

// canon lists the 66 books in canonical order
var canon = []models.BookDefinition{
	// Old Testament
	{Name: "Genesis", Chapters: 50, Testament: models.OldTestament},
	{Name: "Exodus", Chapters: 40, Testament: models.OldTestament},
	{Name: "Leviticus", Chapters: 27, Testament: models.OldTestament},
	{Name: "Numbers", Chapters: 36, Testament: models.OldTestament},
	{Name: "Deuteronomy", Chapters: 34, Testament: models.OldTestament},
	{Name: "Joshua", Chapters: 24, Testament: models.OldTestament},
	{Name: "Judges", Chapters: 21, Testament: models.OldTestament},
	{Name: "Ruth", Chapters: 4, Testament: models.OldTestament},
	{Name: "1 Samuel", Chapters: 31, Testament: models.OldTestament},
	{Name: "2 Samuel", Chapters: 24, Testament: models.OldTestament},
	{Name: "1 Kings", Chapters: 22, Testament: models.OldTestament},
	{Name: "2 Kings", Chapters: 25, Testament: models.OldTestament},
	{Name: "1 Chronicles", Chapters: 29, Testament: models.OldTestament},
	{Name: "2 Chronicles", Chapters: 36, Testament: models.OldTestament},
	{Name: "Ezra", Chapters: 10, Testament: models.OldTestament},
	{Name: "Nehemiah", Chapters: 13, Testament: models.OldTestament},
	{Name: "Esther", Chapters: 10, Testament: models.OldTestament},
	{Name: "Job", Chapters: 42, Testament: models.OldTestament},
	{Name: "Psalms", Chapters: 150, Testament: models.OldTestament},
	{Name: "Proverbs", Chapters: 31, Testament: models.OldTestament},
	{Name: "Ecclesiastes", Chapters: 12, Testament: models.OldTestament},
	{Name: "Song of Solomon", Chapters: 8, Testament: models.OldTestament},
	{Name: "Isaiah", Chapters: 66, Testament: models.OldTestament},
	{Name: "Jeremiah", Chapters: 52, Testament: models.OldTestament},
	{Name: "Lamentations", Chapters: 5, Testament: models.OldTestament},
	{Name: "Ezekiel", Chapters: 48, Testament: models.OldTestament},
	{Name: "Daniel", Chapters: 12, Testament: models.OldTestament},
	{Name: "Hosea", Chapters: 14, Testament: models.OldTestament},
	{Name: "Joel", Chapters: 3, Testament: models.OldTestament},
	{Name: "Amos", Chapters: 9, Testament: models.OldTestament},
	{Name: "Obadiah", Chapters: 1, Testament: models.OldTestament},
	{Name: "Jonah", Chapters: 4, Testament: models.OldTestament},
	{Name: "Micah", Chapters: 7, Testament: models.OldTestament},
	{Name: "Nahum", Chapters: 3, Testament: models.OldTestament},
	{Name: "Habakkuk", Chapters: 3, Testament: models.OldTestament},
	{Name: "Zephaniah", Chapters: 3, Testament: models.OldTestament},
	{Name: "Haggai", Chapters: 2, Testament: models.OldTestament},
	{Name: "Zechariah", Chapters: 14, Testament: models.OldTestament},
	{Name: "Malachi", Chapters: 4, Testament: models.OldTestament},
	// New Testament
	{Name: "Matthew", Chapters: 28, Testament: models.NewTestament},
	{Name: "Mark", Chapters: 16, Testament: models.NewTestament},
	{Name: "Luke", Chapters: 24, Testament: models.NewTestament},
	{Name: "John", Chapters: 21, Testament: models.NewTestament},
	{Name: "Acts", Chapters: 28, Testament: models.NewTestament},
	{Name: "Romans", Chapters: 16, Testament: models.NewTestament},
	{Name: "1 Corinthians", Chapters: 16, Testament: models.NewTestament},
	{Name: "2 Corinthians", Chapters: 13, Testament: models.NewTestament},
	{Name: "Galatians", Chapters: 6, Testament: models.NewTestament},
	{Name: "Ephesians", Chapters: 6, Testament: models.NewTestament},
	{Name: "Philippians", Chapters: 4, Testament: models.NewTestament},
	{Name: "Colossians", Chapters: 4, Testament: models.NewTestament},
	{Name: "1 Thessalonians", Chapters: 5, Testament: models.NewTestament},
	{Name: "2 Thessalonians", Chapters: 3, Testament: models.NewTestament},
	{Name: "1 Timothy", Chapters: 6, Testament: models.NewTestament},
	{Name: "2 Timothy", Chapters: 4, Testament: models.NewTestament},
	{Name: "Titus", Chapters: 3, Testament: models.NewTestament},
	{Name: "Philemon", Chapters: 1, Testament: models.NewTestament},
	{Name: "Hebrews", Chapters: 13, Testament: models.NewTestament},
	{Name: "James", Chapters: 5, Testament: models.NewTestament},
	{Name: "1 Peter", Chapters: 5, Testament: models.NewTestament},
	{Name: "2 Peter", Chapters: 3, Testament: models.NewTestament},
	{Name: "1 John", Chapters: 5, Testament: models.NewTestament},
	{Name: "2 John", Chapters: 1, Testament: models.NewTestament},
	{Name: "3 John", Chapters: 1, Testament: models.NewTestament},
	{Name: "Jude", Chapters: 1, Testament: models.NewTestament},
	{Name: "Revelation", Chapters: 22, Testament: models.NewTestament},
}

// Books returns a copy of the canon
func Books() []models.BookDefinition {
	books := make([]models.BookDefinition, len(canon))
	copy(books, canon)
	return books
}

// Find looks up a book by name. An exact match wins, otherwise the lookup
// ignores case and surrounding whitespace.
func Find(name string) (models.BookDefinition, bool) {
	for _, book := range canon {
		if book.Name == name {
			return book, true
		}
	}
	name = strings.TrimSpace(name)
	for _, book := range canon {
		if strings.EqualFold(book.Name, name) {
			return book, true
		}
	}
	return models.BookDefinition{}, false
}

// Filter returns the books matching a testament ("all", "old", "new" or
// empty) and a case-insensitive name search
func Filter(books []models.BookDefinition, testament, search string) []models.BookDefinition {
	search = strings.ToLower(strings.TrimSpace(search))

	var filtered []models.BookDefinition
	for _, book := range books {
		if testament != "" && testament != "all" && string(book.Testament) != testament {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(book.Name), search) {
			continue
		}
		filtered = append(filtered, book)
	}
	return filtered
}

// TotalChapters sums the chapter counts of the given books
func TotalChapters(books []models.BookDefinition) int {
	total := 0
	for _, book := range books {
		total += book.Chapters
	}
	return total
}
