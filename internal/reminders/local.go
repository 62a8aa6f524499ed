package reminders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"autotasker-engine/internal/domain"
)

// LocalCalendar keeps reminder events in the engine's SQLite database.
type LocalCalendar struct {
	db         *sql.DB
	calendarID string
}

func NewLocalCalendar(db *sql.DB, calendarID string) *LocalCalendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &LocalCalendar{db: db, calendarID: calendarID}
}

func (l *LocalCalendar) Insert(ctx context.Context, ev domain.CalendarEvent) (domain.CalendarEvent, error) {
	if _, err := time.Parse(DateLayout, ev.Start); err != nil {
		return domain.CalendarEvent{}, fmt.Errorf("%w: start date %q", domain.ErrInvalidArgument, ev.Start)
	}
	if _, err := time.Parse(DateLayout, ev.End); err != nil {
		return domain.CalendarEvent{}, fmt.Errorf("%w: end date %q", domain.ErrInvalidArgument, ev.End)
	}
	rem, err := json.Marshal(ev.Reminders)
	if err != nil {
		return domain.CalendarEvent{}, err
	}

	ev.ID = uuid.NewString()
	_, err = l.db.ExecContext(ctx, `
INSERT INTO calendar_events(id, calendar_id, title, description, start_date, end_date, reminders, created_at)
VALUES(?,?,?,?,?,?,?,?);`,
		ev.ID, l.calendarID, ev.Title, ev.Description, ev.Start, ev.End, string(rem),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return domain.CalendarEvent{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

// List returns events whose day overlaps [from, to) and whose title or description contains q.
func (l *LocalCalendar) List(ctx context.Context, from, to time.Time, q string) ([]domain.CalendarEvent, error) {
	query := `
SELECT id, title, description, start_date, end_date, reminders
FROM calendar_events
WHERE calendar_id = ?
  AND end_date >= ?
  AND start_date < ?`
	args := []any{l.calendarID, from.Format(DateLayout), to.Format(DateLayout)}
	if q = strings.TrimSpace(q); q != "" {
		query += ` AND (instr(lower(title), lower(?)) > 0 OR instr(lower(description), lower(?)) > 0)`
		args = append(args, q, q)
	}
	rows, err := l.db.QueryContext(ctx, query+`
ORDER BY start_date ASC, created_at ASC;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.CalendarEvent{}
	for rows.Next() {
		var ev domain.CalendarEvent
		var rem string
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Description, &ev.Start, &ev.End, &rem); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(rem), &ev.Reminders)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (l *LocalCalendar) Delete(ctx context.Context, id string) error {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM calendar_events WHERE calendar_id = ? AND id = ?;`, l.calendarID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return nil
}
