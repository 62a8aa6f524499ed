package sheets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"autotasker-engine/internal/domain"
)

// LocalBackend keeps spreadsheets in the engine's SQLite database.
// Each row is one JSON array of cells keyed by its 1-based row number.
type LocalBackend struct {
	db *sql.DB
}

func NewLocalBackend(db *sql.DB) *LocalBackend {
	return &LocalBackend{db: db}
}

func (l *LocalBackend) FindByTitle(ctx context.Context, title string) (string, bool, error) {
	var id string
	err := l.db.QueryRowContext(ctx, `
SELECT id FROM sheets
WHERE title = ?
ORDER BY created_at ASC
LIMIT 1;`, title).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (l *LocalBackend) Create(ctx context.Context, title, tab string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx, `
INSERT INTO sheets(id, title, tab, created_at)
VALUES(?,?,?,?);`, id, title, tab, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert sheet: %w", err)
	}
	return id, nil
}

func (l *LocalBackend) tab(ctx context.Context, tx *sql.Tx, id string) (string, error) {
	var tab string
	err := tx.QueryRowContext(ctx, `SELECT tab FROM sheets WHERE id = ?;`, id).Scan(&tab)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", domain.ErrStoreNotFound, id)
	}
	return tab, err
}

func (l *LocalBackend) Update(ctx context.Context, id, rng string, values [][]string) error {
	r, err := parseA1(rng)
	if err != nil {
		return err
	}
	start := r.startRow
	if start == 0 {
		start = 1
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := l.tab(ctx, tx, id); err != nil {
		return err
	}

	for i, vals := range values {
		rowNum := start + i
		cells, err := loadRow(ctx, tx, id, rowNum)
		if err != nil {
			return err
		}
		for j, v := range vals {
			col := r.startCol + j
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = v
		}
		if err := saveRow(ctx, tx, id, rowNum, cells); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (l *LocalBackend) Append(ctx context.Context, id, rng string, values [][]string) (string, error) {
	r, err := parseA1(rng)
	if err != nil {
		return "", err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	tab, err := l.tab(ctx, tx, id)
	if err != nil {
		return "", err
	}

	var last int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_num), 0) FROM sheet_rows WHERE sheet_id = ?;`, id,
	).Scan(&last); err != nil {
		return "", err
	}

	first := last + 1
	width := 0
	for i, vals := range values {
		cells := make([]string, r.startCol, r.startCol+len(vals))
		cells = append(cells, vals...)
		if err := saveRow(ctx, tx, id, first+i, cells); err != nil {
			return "", err
		}
		width = max(width, len(vals))
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", nil
	}
	lastCol := r.startCol + max(width, 1) - 1
	return fmt.Sprintf("'%s'!%s%d:%s%d", tab, colName(r.startCol), first, colName(lastCol), first+len(values)-1), nil
}

// Read returns rows from the range's first row through the last non-empty row.
// Trailing empty cells are dropped, as the Sheets API does.
func (l *LocalBackend) Read(ctx context.Context, id, rng string) ([][]string, error) {
	r, err := parseA1(rng)
	if err != nil {
		return nil, err
	}
	start := max(r.startRow, 1)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := l.tab(ctx, tx, id); err != nil {
		return nil, err
	}

	q := `SELECT row_num, cells FROM sheet_rows WHERE sheet_id = ? AND row_num >= ?`
	args := []any{id, start}
	if r.endRow > 0 {
		q += ` AND row_num <= ?`
		args = append(args, r.endRow)
	}
	rows, err := tx.QueryContext(ctx, q+` ORDER BY row_num ASC;`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var n int
		var raw string
		if err := rows.Scan(&n, &raw); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		for len(out) < n-start {
			out = append(out, []string{})
		}
		out = append(out, sliceCols(cells, r.startCol, r.endCol))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func sliceCols(cells []string, from, to int) []string {
	if from >= len(cells) {
		return []string{}
	}
	end := min(to+1, len(cells))
	out := append([]string(nil), cells[from:end]...)
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func loadRow(ctx context.Context, tx *sql.Tx, id string, rowNum int) ([]string, error) {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet_id = ? AND row_num = ?;`, id, rowNum,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("row %d: %w", rowNum, err)
	}
	return cells, nil
}

func saveRow(ctx context.Context, tx *sql.Tx, id string, rowNum int, cells []string) error {
	b, err := json.Marshal(cells)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO sheet_rows(sheet_id, row_num, cells)
VALUES(?,?,?)
ON CONFLICT(sheet_id, row_num) DO UPDATE SET cells = excluded.cells;`,
		id, rowNum, string(b))
	return err
}
