package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"autotasker-engine/internal/domain"
)

// Syncer reads and writes job records in a tracker spreadsheet.
// The spreadsheet id is always passed in; nothing is cached between calls.
type Syncer struct {
	backend Backend
	tab     string
	log     *zap.SugaredLogger
	now     func() time.Time
}

type Option func(*Syncer)

func WithTab(tab string) Option {
	return func(s *Syncer) {
		if strings.TrimSpace(tab) != "" {
			s.tab = tab
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

func New(b Backend, log *zap.SugaredLogger, opts ...Option) *Syncer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Syncer{backend: b, tab: DefaultTab, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureStore finds the spreadsheet by title or creates it with the header row.
// Lookup and create are separate calls; concurrent callers can both create.
func (s *Syncer) EnsureStore(ctx context.Context, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	id, ok, err := s.backend.FindByTitle(ctx, title)
	if err != nil {
		return "", fmt.Errorf("find spreadsheet %q: %w", title, err)
	}
	if ok {
		return id, nil
	}

	id, err = s.backend.Create(ctx, title, s.tab)
	if err != nil {
		return "", fmt.Errorf("create spreadsheet %q: %w", title, err)
	}
	if err := s.backend.Update(ctx, id, HeaderRange, [][]string{Headers}); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	s.log.Infow("created spreadsheet", "id", id, "title", title)
	return id, nil
}

type AppendResult struct {
	Added        int    `json:"added_count"`
	UpdatedRange string `json:"updated_range,omitempty"`
}

// AppendRows writes records in input order in one batch. Existing rows are not checked,
// so appending the same records twice yields duplicate rows.
func (s *Syncer) AppendRows(ctx context.Context, storeID string, recs []domain.JobRecord) (AppendResult, error) {
	if storeID == "" {
		return AppendResult{}, fmt.Errorf("%w: empty spreadsheet id", domain.ErrInvalidArgument)
	}
	if len(recs) == 0 {
		return AppendResult{}, nil
	}

	today := s.now().UTC().Format("2006-01-02")
	values := make([][]string, 0, len(recs))
	for _, r := range recs {
		values = append(values, ToRow(r, today))
	}

	rng, err := s.backend.Append(ctx, storeID, DataRange, values)
	if err != nil {
		return AppendResult{}, fmt.Errorf("append rows: %w", err)
	}
	s.log.Infow("appended rows", "id", storeID, "count", len(values), "range", rng)
	return AppendResult{Added: len(values), UpdatedRange: rng}, nil
}

func (s *Syncer) ReadRows(ctx context.Context, storeID string) ([]domain.TrackedJob, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: empty spreadsheet id", domain.ErrInvalidArgument)
	}
	rows, err := s.backend.Read(ctx, storeID, DataRange)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return []domain.TrackedJob{}, nil
	}
	out := make([]domain.TrackedJob, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		out = append(out, FromRow(i+FirstDataRow, cells))
	}
	return out, nil
}

// UpdateStatus overwrites column J of one row. The row is not checked against any record.
func (s *Syncer) UpdateStatus(ctx context.Context, storeID string, row int, status string) error {
	if storeID == "" {
		return fmt.Errorf("%w: empty spreadsheet id", domain.ErrInvalidArgument)
	}
	if row < FirstDataRow {
		return fmt.Errorf("%w: row %d is not a data row", domain.ErrInvalidArgument, row)
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return err
	}
	if err := s.backend.Update(ctx, storeID, fmt.Sprintf("J%d", row), [][]string{{string(st)}}); err != nil {
		return fmt.Errorf("update status row %d: %w", row, err)
	}
	s.log.Infow("updated status", "id", storeID, "row", row, "status", st)
	return nil
}
