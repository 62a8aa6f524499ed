package reminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"autotasker-engine/internal/domain"
)

const (
	DateLayout     = "2006-01-02"
	deadlineLayout = "1/2/2006"

	// SearchText matches every title BuildEvent produces.
	SearchText = "Apply to"
)

// Calendar is an event store addressed by event id.
type Calendar interface {
	Insert(ctx context.Context, ev domain.CalendarEvent) (domain.CalendarEvent, error)
	List(ctx context.Context, from, to time.Time, q string) ([]domain.CalendarEvent, error)
	Delete(ctx context.Context, id string) error
}

type CreatedEvent struct {
	JobID     string `json:"job_id"`
	Company   string `json:"company"`
	EventID   string `json:"event_id"`
	EventLink string `json:"event_link,omitempty"`
}

type Outcome struct {
	Created []CreatedEvent     `json:"events"`
	Errors  []domain.ItemError `json:"errors"`
}

type Scheduler struct {
	cal Calendar
	loc *time.Location
	now func() time.Time
	log *zap.SugaredLogger
}

type Option func(*Scheduler)

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(cal Calendar, log *zap.SugaredLogger, opts ...Option) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Scheduler{cal: cal, loc: time.Local, now: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseDeadline reads an M/D/YYYY date as midnight in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(deadlineLayout, strings.TrimSpace(s), loc)
}

func Description(j domain.JobRecord) string {
	return "Job Application Reminder\n\n" +
		"Company: " + j.Company + "\n" +
		"Position: " + j.Category + "\n" +
		"Location: " + j.Location + "\n" +
		"Salary: " + j.Salary + "\n" +
		"Tech Stack: " + j.TechStack + "\n" +
		"Application Deadline: " + j.Deadline + "\n\n" +
		"Don't forget to submit your application!"
}

// BuildEvent makes the all-day reminder for a job due on deadline.
func BuildEvent(j domain.JobRecord, deadline time.Time) domain.CalendarEvent {
	day := deadline.Format(DateLayout)
	return domain.CalendarEvent{
		Title:       fmt.Sprintf("%s %s - %s", SearchText, j.Company, j.Category),
		Description: Description(j),
		Start:       day,
		End:         day,
		Reminders: []domain.Reminder{
			{Method: "email", Minutes: 24 * 60},
			{Method: "popup", Minutes: 60},
		},
	}
}

// Schedule creates one event per job with a well-formed future deadline.
// Jobs without one are skipped silently; a failed insert is recorded and the loop continues.
func (s *Scheduler) Schedule(ctx context.Context, jobs []domain.JobRecord) Outcome {
	out := Outcome{Created: []CreatedEvent{}, Errors: []domain.ItemError{}}
	now := s.now()

	for _, j := range jobs {
		if !j.HasDeadline() {
			continue
		}
		deadline, err := ParseDeadline(j.Deadline, s.loc)
		if err != nil {
			s.log.Debugw("skipping unparseable deadline", "job", j.ID, "deadline", j.Deadline)
			continue
		}
		if !deadline.After(now) {
			continue
		}

		itemID := j.ID
		if itemID == "" {
			itemID = j.Company
		}
		if err := ctx.Err(); err != nil {
			out.Errors = append(out.Errors, domain.ItemError{ItemID: itemID, Reason: err.Error()})
			continue
		}

		ev, err := s.cal.Insert(ctx, BuildEvent(j, deadline))
		if err != nil {
			s.log.Warnw("create reminder failed", "job", itemID, "company", j.Company, "err", err)
			out.Errors = append(out.Errors, domain.ItemError{ItemID: itemID, Reason: err.Error()})
			continue
		}
		s.log.Infow("created reminder", "job", itemID, "company", j.Company, "event", ev.ID)
		out.Created = append(out.Created, CreatedEvent{
			JobID:     j.ID,
			Company:   j.Company,
			EventID:   ev.ID,
			EventLink: ev.Link,
		})
	}
	return out
}

// Upcoming lists reminder events from now through one month ahead.
func (s *Scheduler) Upcoming(ctx context.Context) ([]domain.CalendarEvent, error) {
	now := s.now()
	evs, err := s.cal.List(ctx, now, now.AddDate(0, 1, 0), SearchText)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return evs, nil
}

func (s *Scheduler) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty event id", domain.ErrInvalidArgument)
	}
	if err := s.cal.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reminder %s: %w", id, err)
	}
	s.log.Infow("deleted reminder", "event", id)
	return nil
}
