package testutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// MemorySheets is an in-memory tabular backend. It understands the ranges
// the tracker uses: A:J, A1:J1 and J{n}.
type MemorySheets struct {
	mu     sync.Mutex
	titles map[string]string
	rows   map[string][][]string
	nextID int

	AppendErr error
	// AfterFind runs at the end of every title lookup.
	AfterFind func()

	Appends int
	Creates int
}

func NewMemorySheets() *MemorySheets {
	return &MemorySheets{titles: map[string]string{}, rows: map[string][][]string{}}
}

func (m *MemorySheets) FindByTitle(_ context.Context, title string) (string, bool, error) {
	m.mu.Lock()
	id, ok := m.titles[title]
	hook := m.AfterFind
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return id, ok, nil
}

func (m *MemorySheets) Create(_ context.Context, title, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("sheet-%d", m.nextID)
	if _, exists := m.titles[title]; !exists {
		m.titles[title] = id
	}
	m.rows[id] = nil
	m.Creates++
	return id, nil
}

func (m *MemorySheets) Update(_ context.Context, id, rng string, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("no sheet %s", id)
	}
	col, row, err := cellRef(rng)
	if err != nil {
		return err
	}
	for i, vals := range values {
		r := row - 1 + i
		for len(rows) <= r {
			rows = append(rows, nil)
		}
		for j, v := range vals {
			c := col + j
			for len(rows[r]) <= c {
				rows[r] = append(rows[r], "")
			}
			rows[r][c] = v
		}
	}
	m.rows[id] = rows
	return nil
}

func (m *MemorySheets) Append(_ context.Context, id, _ string, values [][]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return "", m.AppendErr
	}
	if _, ok := m.rows[id]; !ok {
		return "", fmt.Errorf("no sheet %s", id)
	}
	first := len(m.rows[id]) + 1
	for _, v := range values {
		m.rows[id] = append(m.rows[id], append([]string(nil), v...))
	}
	m.Appends++
	return fmt.Sprintf("A%d:J%d", first, first+len(values)-1), nil
}

func (m *MemorySheets) Read(_ context.Context, id, _ string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("no sheet %s", id)
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, append([]string(nil), r...))
	}
	return out, nil
}

// Rows returns a copy of every stored row, header included.
func (m *MemorySheets) Rows(id string) [][]string {
	out, _ := m.Read(context.Background(), id, "A:J")
	return out
}

// cellRef returns the 0-based column and 1-based row of a range's top-left cell.
func cellRef(rng string) (int, int, error) {
	start := strings.SplitN(rng, ":", 2)[0]
	i := strings.IndexFunc(start, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return 0, 0, fmt.Errorf("unsupported range %q", rng)
	}
	row, err := strconv.Atoi(start[i:])
	if err != nil {
		return 0, 0, err
	}
	col := 0
	for _, c := range start[:i] {
		col = col*26 + int(c-'A'+1)
	}
	return col - 1, row, nil
}
