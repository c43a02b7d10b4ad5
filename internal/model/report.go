package model

import "time"

// Report is an abuse report filed by one user against another.
// Reports are plain ticketing records worked through the admin
// back-office; the status enumeration is their whole lifecycle.
type Report struct {
    ID             uint64    // reports.id
    ReporterID     uint64    // reports.reporter_id
    ReportedUserID uint64    // reports.reported_user_id
    ReportType     string    // reports.report_type
    Detail         string    // reports.detail
    Status         string    // reports.status
    AdminNote      string    // reports.admin_note
    CreatedAt      time.Time // reports.created_at
    UpdatedAt      time.Time // reports.updated_at
}

// BugReport is a user-filed defect ticket handled by the admin
// back-office.
type BugReport struct {
    ID         uint64    // bug_reports.id
    ReporterID uint64    // bug_reports.reporter_id
    Title      string    // bug_reports.title
    Detail     string    // bug_reports.detail
    Status     string    // bug_reports.status
    AdminNote  string    // bug_reports.admin_note
    CreatedAt  time.Time // bug_reports.created_at
    UpdatedAt  time.Time // bug_reports.updated_at
}
