package repository

import (
	"context"
	"database/sql"

	"github.com/pekoMaster/ticketticket/internal/model"
)

// ReportRepo manages abuse reports and bug reports.  Both are plain
// ticketing records; the status enumeration is their whole lifecycle
// and the admin back-office is the only writer after creation.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo constructs a ReportRepo with the given DB handle.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// CreateReport files an abuse report against a user.
func (r *ReportRepo) CreateReport(ctx context.Context, rep *model.Report) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reports (reporter_id, reported_user_id, report_type, detail) VALUES (?, ?, ?, ?)",
		rep.ReporterID, rep.ReportedUserID, rep.ReportType, rep.Detail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = uint64(id)
	rep.Status = "open"
	return nil
}

// CreateBugReport files a defect ticket.
func (r *ReportRepo) CreateBugReport(ctx context.Context, br *model.BugReport) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO bug_reports (reporter_id, title, detail) VALUES (?, ?, ?)",
		br.ReporterID, br.Title, br.Detail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	br.ID = uint64(id)
	br.Status = "open"
	return nil
}

// ListReports returns abuse reports newest first, optionally filtered
// by status.
func (r *ReportRepo) ListReports(ctx context.Context, status string, limit, offset int) ([]model.Report, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := "SELECT id, reporter_id, reported_user_id, report_type, detail, status, admin_note, created_at, updated_at FROM reports"
	args := []any{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Report
	for rows.Next() {
		var rep model.Report
		if err := rows.Scan(&rep.ID, &rep.ReporterID, &rep.ReportedUserID, &rep.ReportType,
			&rep.Detail, &rep.Status, &rep.AdminNote, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// ListBugReports returns bug reports newest first, optionally filtered
// by status.
func (r *ReportRepo) ListBugReports(ctx context.Context, status string, limit, offset int) ([]model.BugReport, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := "SELECT id, reporter_id, title, detail, status, admin_note, created_at, updated_at FROM bug_reports"
	args := []any{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BugReport
	for rows.Next() {
		var br model.BugReport
		if err := rows.Scan(&br.ID, &br.ReporterID, &br.Title, &br.Detail, &br.Status,
			&br.AdminNote, &br.CreatedAt, &br.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

// UpdateReportStatus lets an admin move an abuse report through its
// status enumeration and attach a note.
func (r *ReportRepo) UpdateReportStatus(ctx context.Context, id uint64, status, adminNote string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reports SET status=?, admin_note=? WHERE id=?", status, adminNote, id)
	if err != nil {
		return err
	}
	return existsOrNotFound(ctx, r.db, res, "SELECT EXISTS(SELECT 1 FROM reports WHERE id=?)", id)
}

// UpdateBugReportStatus lets an admin move a bug report through its
// status enumeration and attach a note.
func (r *ReportRepo) UpdateBugReportStatus(ctx context.Context, id uint64, status, adminNote string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE bug_reports SET status=?, admin_note=? WHERE id=?", status, adminNote, id)
	if err != nil {
		return err
	}
	return existsOrNotFound(ctx, r.db, res, "SELECT EXISTS(SELECT 1 FROM bug_reports WHERE id=?)", id)
}

// existsOrNotFound maps zero rows affected onto ErrNotFound when the
// target row is missing; a no-change update on an existing row passes.
func existsOrNotFound(ctx context.Context, db *sql.DB, res sql.Result, existsQuery string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := db.QueryRowContext(ctx, existsQuery, args...).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}
