package errors

import "fmt"

// ParseError wraps a specific error with context about where in a source
// file it occurred.
type ParseError struct {
	File string
	Row  int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s at row %d: %v", e.File, e.Row, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Define specific error types for better error handling
var (
	ErrMissingColumn    = fmt.Errorf("missing required column")
	ErrInvalidTimestamp = fmt.Errorf("invalid timestamp")
	ErrEmptyRecord      = fmt.Errorf("empty record")
	ErrBadAudioName     = fmt.Errorf("audio filename does not match pattern")
	ErrNoSheets         = fmt.Errorf("workbook has no sheets")
)
