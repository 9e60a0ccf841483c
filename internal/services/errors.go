package services

import (
	"fmt"
	"time"

	"lotofacil/internal/models"
)

// RangeError reports a date range whose start comes after its end.
type RangeError struct {
	Start time.Time
	End   time.Time
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid date range: start %s is after end %s",
		e.Start.Format(models.DayLayout), e.End.Format(models.DayLayout))
}

// ValidationError reports an invalid request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
