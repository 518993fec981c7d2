package acquire

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// SnippetLength is the number of characters of page content kept in an
// EmptyError.
const SnippetLength = 1200

var (
	// ErrNoData is the root of every acquisition-empty outcome. It usually
	// signals a change in the source layout rather than a transient fault.
	ErrNoData = errors.New("no data acquired")

	// ErrTableNotFound is returned when the page has no table with text.
	ErrTableNotFound = fmt.Errorf("%w: table not found", ErrNoData)

	// ErrNoRows is returned when the source yields zero rows or records.
	ErrNoRows = fmt.Errorf("%w: zero rows", ErrNoData)

	// ErrUnexpectedShape is returned when a JSON response is not the
	// expected object with an array of records.
	ErrUnexpectedShape = errors.New("unexpected response shape")

	// ErrTokenNotFound is returned when a token source yields nothing.
	ErrTokenNotFound = errors.New("token not found")

	// ErrUnknownStrategy is returned by New for an unsupported strategy name.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// EmptyError describes an acquisition that produced nothing. It keeps the
// beginning of the page so the log shows what was served instead.
type EmptyError struct {
	// Err is ErrTableNotFound or ErrNoRows.
	Err error

	// Snippet is the first SnippetLength characters of the page.
	Snippet string

	// Length is the full page length in characters.
	Length int
}

// NewEmptyError returns an EmptyError for err with a snippet of content.
func NewEmptyError(err error, content string) *EmptyError {
	return &EmptyError{
		Err:     err,
		Snippet: truncate(content, SnippetLength),
		Length:  utf8.RuneCountInString(content),
	}
}

func (e *EmptyError) Error() string {
	return fmt.Sprintf("%v (page length %d)", e.Err, e.Length)
}

func (e *EmptyError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is returned for a response outside the 2xx range.
type HTTPStatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
