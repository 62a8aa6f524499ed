package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/reminders"
)

// FakeCalendar stores events in memory. Insert fails for titles listed in FailTitles.
type FakeCalendar struct {
	mu         sync.Mutex
	events     []domain.CalendarEvent
	nextID     int
	FailTitles map[string]error
	ListErr    error
}

func NewFakeCalendar() *FakeCalendar {
	return &FakeCalendar{FailTitles: map[string]error{}}
}

func (c *FakeCalendar) Insert(_ context.Context, ev domain.CalendarEvent) (domain.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.FailTitles[ev.Title]; err != nil {
		return domain.CalendarEvent{}, err
	}
	c.nextID++
	ev.ID = fmt.Sprintf("evt-%d", c.nextID)
	ev.Link = "https://calendar.test/" + ev.ID
	c.events = append(c.events, ev)
	return ev, nil
}

func (c *FakeCalendar) List(_ context.Context, from, to time.Time, q string) ([]domain.CalendarEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	lo, hi := from.Format("2006-01-02"), to.Format("2006-01-02")
	var out []domain.CalendarEvent
	for _, ev := range c.events {
		if ev.End < lo || ev.Start >= hi {
			continue
		}
		if q != "" && !strings.Contains(ev.Title, q) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *FakeCalendar) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ev := range c.events {
		if ev.ID == id {
			c.events = append(c.events[:i], c.events[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", reminders.ErrEventNotFound, id)
}

func (c *FakeCalendar) Events() []domain.CalendarEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CalendarEvent(nil), c.events...)
}
