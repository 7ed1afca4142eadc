// Package google reads work events from the Google Calendar API.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kintai/internal/calendar"
	"kintai/internal/core"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
)

type Source struct {
	svc        *gcal.Service
	calendarID string
}

var _ calendar.EventSource = (*Source)(nil)

func New(ctx context.Context, calendarID string, credentialsJSON []byte) (*Source, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, errors.New("missing calendar id")
	}
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gcal.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gcal.CalendarReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &Source{svc: svc, calendarID: calendarID}, nil
}

// Events lists the calendar's events starting in [from, to). Recurring
// events come back expanded as single instances, so every occurrence gets
// its own external id.
func (s *Source) Events(ctx context.Context, from, to time.Time) ([]core.WorkEvent, error) {
	var out []core.WorkEvent
	pageToken := ""
	for {
		call := s.svc.Events.List(s.calendarID).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(2500).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("calendar %s: %w", s.calendarID, calendar.ErrCalendarNotFound)
			}
			return nil, fmt.Errorf("list events for %s: %w", s.calendarID, err)
		}

		for _, item := range resp.Items {
			ev, ok := toWorkEvent(item)
			if !ok {
				continue
			}
			out = append(out, ev)
		}

		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

// toWorkEvent converts an API event. All-day events carry a bare date and
// start at midnight in the fixed locale; timed events use their real start
// and end.
func toWorkEvent(item *gcal.Event) (core.WorkEvent, bool) {
	if item == nil || item.Status == "cancelled" {
		return core.WorkEvent{}, false
	}

	start, ok := parseEventTime(item.Start)
	if !ok {
		return core.WorkEvent{}, false
	}
	end, ok := parseEventTime(item.End)
	if !ok {
		end = start
	}

	return core.WorkEvent{
		ExternalID:  item.Id,
		Start:       start,
		End:         end,
		Title:       item.Summary,
		Description: item.Description,
	}, true
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 404
}

func parseEventTime(t *gcal.EventDateTime) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	if t.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", t.Date, core.JST)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
