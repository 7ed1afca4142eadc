// Package calendar defines the port for the calendar event source.
package calendar

import (
	"context"
	"errors"
	"time"

	"kintai/internal/core"
)

// ErrCalendarNotFound is returned when the configured calendar id does not
// resolve to an accessible calendar.
var ErrCalendarNotFound = errors.New("calendar not found")

// EventSource yields all events whose start falls in [from, to).
type EventSource interface {
	Events(ctx context.Context, from, to time.Time) ([]core.WorkEvent, error)
}
