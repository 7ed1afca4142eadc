// Package memory provides a fixed in-memory event source for tests and the
// development backend.
package memory

import (
	"context"
	"sync"
	"time"

	"kintai/internal/calendar"
	"kintai/internal/core"
)

type Source struct {
	mu     sync.Mutex
	events []core.WorkEvent
}

var _ calendar.EventSource = (*Source)(nil)

func New(events ...core.WorkEvent) *Source {
	return &Source{events: events}
}

// SetEvents replaces the full event set, simulating the calendar changing
// between reconciliation passes.
func (s *Source) SetEvents(events ...core.WorkEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

func (s *Source) Events(_ context.Context, from, to time.Time) ([]core.WorkEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.WorkEvent
	for _, e := range s.events {
		if e.Start.Before(from) || !e.Start.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
