package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/pagelint/pagelint/internal/domain/corrections"
	domain "github.com/pagelint/pagelint/internal/domain/reports"
)

// ReportRepository implements reports.Repository on postgres. It mirrors
// the sqlite repository with $n placeholders and RETURNING for ids.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *domain.Report) error {
	info, err := json.Marshal(rep.DebuggingInfo)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO page_scan_report
(uuid, url, run_start_time, run_end_time, state, state_internal, debugging_info)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id;`
	return r.db.QueryRowContext(ctx, q,
		rep.UUID, rep.URL, rep.RunStartTime, rep.RunEndTime,
		rep.State, rep.StateInternal, string(info),
	).Scan(&rep.ID)
}

func (r *ReportRepository) SetStage(ctx context.Context, id int64, stage string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE page_scan_report SET state_internal=$1 WHERE id=$2;`, stage, id)
	return err
}

func (r *ReportRepository) MarkCompleted(ctx context.Context, id int64, end time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE page_scan_report SET state=$1, state_internal=$2, run_end_time=$3 WHERE id=$4;`,
		domain.StateCompleted, domain.StageCompleted, end, id)
	return err
}

func (r *ReportRepository) MarkFailed(ctx context.Context, id int64, stateInternal string, end time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE page_scan_report SET state=$1, state_internal=$2, run_end_time=$3 WHERE id=$4;`,
		domain.StateFailed, stateInternal, end, id)
	return err
}

func (r *ReportRepository) InsertCorrections(ctx context.Context, cs []corrections.Correction) error {
	if len(cs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
INSERT INTO page_scan_report_corrections
(uuid, page_scan_report_id, issue_type, original_text, corrected_text,
 surrounding_text, explanation_for_correction, probability_of_correctness,
 severity, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id;`
	for i := range cs {
		c := &cs[i]
		if err := tx.QueryRowContext(ctx, q,
			c.UUID, c.ReportID, c.IssueType, c.OriginalText, c.CorrectedText,
			c.SurroundingText, c.Explanation, c.Confidence, c.Severity, c.CreatedAt,
		).Scan(&c.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ReportRepository) GetByUUID(ctx context.Context, uuid string) (*domain.Report, error) {
	const q = `
SELECT id, uuid, url, run_start_time, run_end_time, state, state_internal, debugging_info
FROM page_scan_report WHERE uuid=$1 LIMIT 1;`
	return scanReport(r.db.QueryRowContext(ctx, q, uuid))
}

func (r *ReportRepository) GetFull(ctx context.Context, uuid string) (*domain.ReportWithCorrections, error) {
	rep, err := r.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}

	const q = `
SELECT id, uuid, page_scan_report_id, issue_type, original_text, corrected_text,
       surrounding_text, explanation_for_correction, probability_of_correctness,
       severity, created_at
FROM page_scan_report_corrections WHERE page_scan_report_id=$1 ORDER BY id;`
	rows, err := r.db.QueryContext(ctx, q, rep.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	full := &domain.ReportWithCorrections{Report: *rep, Corrections: []corrections.Correction{}}
	for rows.Next() {
		var c corrections.Correction
		if err := rows.Scan(
			&c.ID, &c.UUID, &c.ReportID, &c.IssueType, &c.OriginalText, &c.CorrectedText,
			&c.SurroundingText, &c.Explanation, &c.Confidence, &c.Severity, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		full.Corrections = append(full.Corrections, c)
	}
	return full, rows.Err()
}

func (r *ReportRepository) ListWithCounts(ctx context.Context) ([]domain.Summary, error) {
	const q = `
SELECT r.id, r.uuid, r.url, r.state, r.state_internal, r.run_start_time, r.run_end_time,
       COALESCE(SUM(CASE WHEN c.severity = 'critical' THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN c.severity = 'important' THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN c.severity = 'minor' THEN 1 ELSE 0 END), 0)
FROM page_scan_report r
LEFT JOIN page_scan_report_corrections c ON c.page_scan_report_id = r.id
GROUP BY r.id, r.uuid, r.url, r.state, r.state_internal, r.run_start_time, r.run_end_time
ORDER BY r.run_start_time DESC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Summary{}
	for rows.Next() {
		var s domain.Summary
		var internal sql.NullString
		var end sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.UUID, &s.URL, &s.State, &internal, &s.RunStartTime, &end,
			&s.SeverityCounts.Critical, &s.SeverityCounts.Important, &s.SeverityCounts.Minor,
		); err != nil {
			return nil, err
		}
		s.StateInternal = internal.String
		if end.Valid {
			t := end.Time
			s.RunEndTime = &t
		}
		s.SeverityCounts.Total = s.SeverityCounts.Critical + s.SeverityCounts.Important + s.SeverityCounts.Minor
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ReportRepository) Delete(ctx context.Context, uuid string) ([]string, error) {
	rep, err := r.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT uuid FROM page_scan_report_corrections WHERE page_scan_report_id=$1;`, rep.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var uuids []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		uuids = append(uuids, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM page_scan_report WHERE id=$1;`, rep.ID); err != nil {
		return nil, err
	}
	return uuids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var rep domain.Report
	var internal sql.NullString
	var end sql.NullTime
	var info sql.NullString
	err := row.Scan(&rep.ID, &rep.UUID, &rep.URL, &rep.RunStartTime, &end,
		&rep.State, &internal, &info)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rep.StateInternal = internal.String
	if end.Valid {
		t := end.Time
		rep.RunEndTime = &t
	}
	if info.Valid && info.String != "" {
		_ = json.Unmarshal([]byte(info.String), &rep.DebuggingInfo)
	}
	return &rep, nil
}
