package table

import (
	"errors"
	"fmt"
)

// ErrEmptyInput indicates the text had no non-blank content.
var ErrEmptyInput = errors.New("csv text is empty")

// ErrEmptyHeader indicates a table without a header row.
var ErrEmptyHeader = errors.New("header row is empty")

// SyntaxError wraps a CSV quoting/structure failure.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("csv syntax error: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ColumnCountError reports a declared column count that disagrees with the header width.
type ColumnCountError struct {
	Headers  int
	Declared int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("column count mismatch: header has %d columns, expected %d", e.Headers, e.Declared)
}

// RowWidthError reports the first row whose width differs from the header.
// Row is 1-based and counts the header as row 1.
type RowWidthError struct {
	Row   int
	Width int
	Want  int
}

func (e *RowWidthError) Error() string {
	return fmt.Sprintf("row %d has %d columns, header has %d", e.Row, e.Width, e.Want)
}
