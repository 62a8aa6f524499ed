package reminders

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"autotasker-engine/internal/domain"
)

var ErrEventNotFound = errors.New("calendar event not found")

type GoogleCalendar struct {
	svc        *calendar.Service
	calendarID string
}

func NewGoogleCalendar(ctx context.Context, client *http.Client, calendarID string) (*GoogleCalendar, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleCalendar{svc: svc, calendarID: calendarID}, nil
}

// ToAPIEvent converts an all-day event. The API's end date is exclusive, so it is the day after.
func ToAPIEvent(ev domain.CalendarEvent) (*calendar.Event, error) {
	end, err := time.Parse(DateLayout, ev.End)
	if err != nil {
		return nil, fmt.Errorf("%w: end date %q", domain.ErrInvalidArgument, ev.End)
	}
	overrides := make([]*calendar.EventReminder, 0, len(ev.Reminders))
	for _, r := range ev.Reminders {
		overrides = append(overrides, &calendar.EventReminder{Method: r.Method, Minutes: int64(r.Minutes)})
	}
	return &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{Date: ev.Start},
		End:         &calendar.EventDateTime{Date: end.AddDate(0, 0, 1).Format(DateLayout)},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
	}, nil
}

func FromAPIEvent(e *calendar.Event) domain.CalendarEvent {
	ev := domain.CalendarEvent{
		ID:          e.Id,
		Title:       e.Summary,
		Description: e.Description,
		Link:        e.HtmlLink,
		Start:       eventTime(e.Start),
		End:         eventTime(e.End),
	}
	if e.Reminders != nil {
		for _, r := range e.Reminders.Overrides {
			ev.Reminders = append(ev.Reminders, domain.Reminder{Method: r.Method, Minutes: int(r.Minutes)})
		}
	}
	return ev
}

func eventTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.Date != "" {
		return t.Date
	}
	return t.DateTime
}

func (g *GoogleCalendar) Insert(ctx context.Context, ev domain.CalendarEvent) (domain.CalendarEvent, error) {
	body, err := ToAPIEvent(ev)
	if err != nil {
		return domain.CalendarEvent{}, err
	}
	created, err := g.svc.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return domain.CalendarEvent{}, err
	}
	return FromAPIEvent(created), nil
}

func (g *GoogleCalendar) List(ctx context.Context, from, to time.Time, q string) ([]domain.CalendarEvent, error) {
	call := g.svc.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)
	if q != "" {
		call = call.Q(q)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, err
	}
	out := make([]domain.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, FromAPIEvent(item))
	}
	return out, nil
}

func (g *GoogleCalendar) Delete(ctx context.Context, id string) error {
	err := g.svc.Events.Delete(g.calendarID, id).Context(ctx).Do()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
		return fmt.Errorf("%w: %w", ErrEventNotFound, err)
	}
	return err
}
