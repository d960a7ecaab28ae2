package reading

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBook is returned for book names outside the canon
	ErrUnknownBook = errors.New("unknown book")

	// ErrChapterCountMismatch is returned when a whole-book operation names
	// a chapter count different from the canon
	ErrChapterCountMismatch = errors.New("chapter count does not match book")
)

// InvalidChapterError reports a chapter number outside a book's range
type InvalidChapterError struct {
	Book    string
	Chapter int
	Max     int
	Err     error
}

func (e *InvalidChapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s has %d chapters, got %d", e.Err, e.Book, e.Max, e.Chapter)
	}
	return fmt.Sprintf("invalid chapter %d for %s (valid range 1-%d)", e.Chapter, e.Book, e.Max)
}

func (e *InvalidChapterError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failure returned by the record store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
