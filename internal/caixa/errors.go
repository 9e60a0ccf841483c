package caixa

import "fmt"

// FetchError is returned when no endpoint produced a usable payload.
// It wraps the failure of the last endpoint tried.
type FetchError struct {
	DrawingID int
	Attempts  int
	Err       error
}

func (e *FetchError) Error() string {
	target := "latest drawing"
	if e.DrawingID != Latest {
		target = fmt.Sprintf("drawing %d", e.DrawingID)
	}
	return fmt.Sprintf("fetch %s: %d endpoint(s) failed, last error: %v", target, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a missing or malformed field in a result payload.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return "parse result: " + e.Reason
	}
	return fmt.Sprintf("parse result field %q: %s", e.Field, e.Reason)
}

func parseErrorf(field, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
