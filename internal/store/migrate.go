package store

import (
	"database/sql"
)

const schemaVersion = 1

// Migrate brings the schema up to schemaVersion, tracked in PRAGMA user_version.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1: local tabular store ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS sheets (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  tab TEXT NOT NULL,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS sheet_rows (
  sheet_id TEXT NOT NULL REFERENCES sheets(id) ON DELETE CASCADE,
  row_num INTEGER NOT NULL,
  cells TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (sheet_id, row_num)
);
`); err != nil {
		return err
	}

	// ---- Schema v1: local calendar ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS calendar_events (
  id TEXT PRIMARY KEY,
  calendar_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  reminders TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_sheets_title
ON sheets(title);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_calendar_events_start
ON calendar_events(calendar_id, start_date);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
