package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS page_scan_report (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid            TEXT NOT NULL,
    url             TEXT NOT NULL,
    run_start_time  TIMESTAMP NOT NULL,
    run_end_time    TIMESTAMP,
    state           TEXT NOT NULL,
    state_internal  TEXT,
    debugging_info  TEXT
);
CREATE INDEX IF NOT EXISTS page_scan_report_uuid_idx ON page_scan_report(uuid);

CREATE TABLE IF NOT EXISTS page_scan_report_corrections (
    id                          INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid                        TEXT NOT NULL,
    page_scan_report_id         INTEGER NOT NULL
        REFERENCES page_scan_report(id) ON DELETE CASCADE,
    issue_type                  TEXT NOT NULL,
    original_text               TEXT NOT NULL,
    corrected_text              TEXT NOT NULL,
    surrounding_text            TEXT NOT NULL,
    explanation_for_correction  TEXT NOT NULL,
    probability_of_correctness  REAL NOT NULL,
    severity                    TEXT NOT NULL,
    created_at                  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS page_scan_report_corrections_uuid_idx
    ON page_scan_report_corrections(uuid);
CREATE INDEX IF NOT EXISTS page_scan_report_corrections_report_idx
    ON page_scan_report_corrections(page_scan_report_id);
`

// Connect opens the sqlite database at path, enables foreign keys (needed
// for cascade deletes) and applies the schema.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
