package reminders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotasker-engine/internal/domain"
	"autotasker-engine/internal/reminders"
	"autotasker-engine/internal/testutil"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newScheduler(cal reminders.Calendar) *reminders.Scheduler {
	return reminders.NewScheduler(cal, nil,
		reminders.WithLocation(time.UTC),
		reminders.WithClock(func() time.Time { return now }),
	)
}

func job(id, company, deadline string) domain.JobRecord {
	return domain.JobRecord{
		ID: id,
		Classification: domain.Classification{
			Company:   company,
			Location:  "Remote",
			Salary:    "$90k",
			Deadline:  deadline,
			Category:  "Backend Engineer",
			TechStack: "Go, SQL",
		},
	}
}

func TestScheduleCreatesFutureDeadlines(t *testing.T) {
	cal := testutil.NewFakeCalendar()
	out := newScheduler(cal).Schedule(context.Background(), []domain.JobRecord{
		job("1", "Acme", "12/31/2099"),
	})

	require.Len(t, out.Created, 1)
	assert.Empty(t, out.Errors)
	assert.Equal(t, "1", out.Created[0].JobID)
	assert.Equal(t, "Acme", out.Created[0].Company)
	assert.NotEmpty(t, out.Created[0].EventID)
	assert.NotEmpty(t, out.Created[0].EventLink)

	evs := cal.Events()
	require.Len(t, evs, 1)
	ev := evs[0]
	assert.Equal(t, "Apply to Acme - Backend Engineer", ev.Title)
	assert.Equal(t, "2099-12-31", ev.Start)
	assert.Equal(t, ev.Start, ev.End)
	assert.Equal(t, []domain.Reminder{{Method: "email", Minutes: 1440}, {Method: "popup", Minutes: 60}}, ev.Reminders)
	assert.Equal(t, "Job Application Reminder\n\n"+
		"Company: Acme\n"+
		"Position: Backend Engineer\n"+
		"Location: Remote\n"+
		"Salary: $90k\n"+
		"Tech Stack: Go, SQL\n"+
		"Application Deadline: 12/31/2099\n\n"+
		"Don't forget to submit your application!", ev.Description)
}

func TestScheduleSkipsSilently(t *testing.T) {
	cal := testutil.NewFakeCalendar()
	out := newScheduler(cal).Schedule(context.Background(), []domain.JobRecord{
		job("na", "A", "N/A"),
		job("empty", "B", ""),
		job("past", "C", "01/15/2020"),
		job("today", "D", "06/01/2025"),
		job("garbage", "E", "soon"),
	})
	assert.Empty(t, out.Created)
	assert.Empty(t, out.Errors)
	assert.Empty(t, cal.Events())
}

func TestScheduleIsolatesFailures(t *testing.T) {
	cal := testutil.NewFakeCalendar()
	cal.FailTitles["Apply to Beta - Backend Engineer"] = errors.New("calendar quota")

	out := newScheduler(cal).Schedule(context.Background(), []domain.JobRecord{
		job("1", "Acme", "12/31/2099"),
		job("2", "Beta", "12/31/2099"),
		job("3", "Gamma", "1/2/2100"),
	})

	require.Len(t, out.Created, 2)
	assert.Equal(t, "Acme", out.Created[0].Company)
	assert.Equal(t, "Gamma", out.Created[1].Company)
	assert.Equal(t, []domain.ItemError{{ItemID: "2", Reason: "calendar quota"}}, out.Errors)
}

func TestScheduleFallsBackToCompanyForItemID(t *testing.T) {
	cal := testutil.NewFakeCalendar()
	cal.FailTitles["Apply to Acme - Backend Engineer"] = errors.New("nope")
	out := newScheduler(cal).Schedule(context.Background(), []domain.JobRecord{job("", "Acme", "12/31/2099")})
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "Acme", out.Errors[0].ItemID)
}

func TestUpcomingAndRemove(t *testing.T) {
	cal := testutil.NewFakeCalendar()
	s := newScheduler(cal)
	ctx := context.Background()

	s.Schedule(ctx, []domain.JobRecord{
		job("soon", "Acme", "06/20/2025"),
		job("later", "Beta", "12/31/2099"),
	})

	evs, err := s.Upcoming(ctx)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "2025-06-20", evs[0].Start)

	require.NoError(t, s.Remove(ctx, evs[0].ID))
	evs, err = s.Upcoming(ctx)
	require.NoError(t, err)
	assert.Empty(t, evs)

	assert.True(t, errors.Is(s.Remove(ctx, " "), domain.ErrInvalidArgument))
	assert.Error(t, s.Remove(ctx, "missing"))
}

func TestParseDeadline(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	d, err := reminders.ParseDeadline("3/7/2030", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 3, 7, 0, 0, 0, 0, loc), d)

	_, err = reminders.ParseDeadline("2030-03-07", loc)
	assert.Error(t, err)
}
