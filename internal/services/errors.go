package services

import (
	"errors"
	"strings"
)

// ErrMonthNotFound is returned when an operation needs data for a month the
// summary table does not contain. Query-side operations answer with empty
// results instead; only report generation treats the absence as fatal.
var ErrMonthNotFound = errors.New("no data for requested month")

// MissingConfigError enumerates required settings that are absent. It is
// returned before any fetch or write takes place.
type MissingConfigError struct {
	Missing []string
}

func (e *MissingConfigError) Error() string {
	return "missing required settings: " + strings.Join(e.Missing, ", ")
}
