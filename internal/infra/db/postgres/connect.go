package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS page_scan_report (
    id              BIGSERIAL PRIMARY KEY,
    uuid            TEXT NOT NULL,
    url             TEXT NOT NULL,
    run_start_time  TIMESTAMPTZ NOT NULL,
    run_end_time    TIMESTAMPTZ,
    state           TEXT NOT NULL,
    state_internal  TEXT,
    debugging_info  TEXT
);
CREATE INDEX IF NOT EXISTS page_scan_report_uuid_idx ON page_scan_report(uuid);

CREATE TABLE IF NOT EXISTS page_scan_report_corrections (
    id                          BIGSERIAL PRIMARY KEY,
    uuid                        TEXT NOT NULL,
    page_scan_report_id         BIGINT NOT NULL
        REFERENCES page_scan_report(id) ON DELETE CASCADE,
    issue_type                  TEXT NOT NULL,
    original_text               TEXT NOT NULL,
    corrected_text              TEXT NOT NULL,
    surrounding_text            TEXT NOT NULL,
    explanation_for_correction  TEXT NOT NULL,
    probability_of_correctness  DOUBLE PRECISION NOT NULL,
    severity                    TEXT NOT NULL,
    created_at                  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS page_scan_report_corrections_uuid_idx
    ON page_scan_report_corrections(uuid);
CREATE INDEX IF NOT EXISTS page_scan_report_corrections_report_idx
    ON page_scan_report_corrections(page_scan_report_id);
`

// Connect opens the postgres database and applies the schema.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
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
