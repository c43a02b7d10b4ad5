package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pekoMaster/ticketticket/internal/repository"
)

// AdminHandler is the back-office: user moderation, forced listing
// closure and report triage.  Routes using it sit behind
// RequireRole("ADMIN").
type AdminHandler struct {
	Users    *repository.UserRepo
	Listings *repository.ListingRepo
	Reports  *repository.ReportRepo
}

func NewAdminHandler(users *repository.UserRepo, listings *repository.ListingRepo, reports *repository.ReportRepo) *AdminHandler {
	if users == nil || listings == nil || reports == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Users: users, Listings: listings, Reports: reports}
}

func pageParams(c echo.Context) (limit, offset int) {
	limit = 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, offset := pageParams(c)
	users, err := h.Users.List(c.Request().Context(), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type userRow struct {
		ID                uint64 `json:"id"`
		Email             string `json:"email"`
		Role              string `json:"role"`
		VerificationLevel string `json:"verification_level"`
		CancellationCount uint32 `json:"cancellation_count"`
		IsActive          bool   `json:"is_active"`
		CreatedAt         string `json:"created_at"`
	}
	out := make([]userRow, 0, len(users))
	for _, u := range users {
		out = append(out, userRow{
			ID:                u.ID,
			Email:             u.Email,
			Role:              u.Role,
			VerificationLevel: u.VerificationLevel,
			CancellationCount: u.CancellationCount,
			IsActive:          u.IsActive,
			CreatedAt:         u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

type setActiveReq struct {
	Active bool `json:"active"`
}

// SetUserActive handles PATCH /v1/admin/users/:id/active.  A
// deactivated user keeps their rows but can no longer log in.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req setActiveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Users.SetActive(c.Request().Context(), id, req.Active); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ForceCloseListing handles DELETE /v1/admin/listings/:id.  Unlike
// the host route this closes matched listings too; the admin is
// expected to resolve the fallout through the report workflow.
func (h *AdminHandler) ForceCloseListing(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	if err := h.Listings.ForceClose(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "listing already closed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

type reportView struct {
	ID             uint64 `json:"id"`
	ReporterID     uint64 `json:"reporter_id"`
	ReportedUserID uint64 `json:"reported_user_id,omitempty"`
	ReportType     string `json:"report_type,omitempty"`
	Title          string `json:"title,omitempty"`
	Detail         string `json:"detail"`
	Status         string `json:"status"`
	AdminNote      string `json:"admin_note"`
	CreatedAt      string `json:"created_at"`
}

// ListReports handles GET /v1/admin/reports with optional ?status=.
func (h *AdminHandler) ListReports(c echo.Context) error {
	limit, offset := pageParams(c)
	reports, err := h.Reports.ListReports(c.Request().Context(), c.QueryParam("status"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]reportView, 0, len(reports))
	for _, r := range reports {
		out = append(out, reportView{
			ID:             r.ID,
			ReporterID:     r.ReporterID,
			ReportedUserID: r.ReportedUserID,
			ReportType:     r.ReportType,
			Detail:         r.Detail,
			Status:         r.Status,
			AdminNote:      r.AdminNote,
			CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reports": out})
}

// ListBugReports handles GET /v1/admin/bug-reports with optional
// ?status=.
func (h *AdminHandler) ListBugReports(c echo.Context) error {
	limit, offset := pageParams(c)
	reports, err := h.Reports.ListBugReports(c.Request().Context(), c.QueryParam("status"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]reportView, 0, len(reports))
	for _, r := range reports {
		out = append(out, reportView{
			ID:         r.ID,
			ReporterID: r.ReporterID,
			Title:      r.Title,
			Detail:     r.Detail,
			Status:     r.Status,
			AdminNote:  r.AdminNote,
			CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"bug_reports": out})
}

type reportStatusReq struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}

// The two ticket kinds carry different status enums: an abuse report
// moves through review, a bug report through a fix attempt.
func validReportStatus(s string) bool {
	switch s {
	case "open", "reviewing", "resolved", "dismissed":
		return true
	}
	return false
}

func validBugReportStatus(s string) bool {
	switch s {
	case "open", "in_progress", "resolved", "wont_fix":
		return true
	}
	return false
}

// UpdateReport handles PATCH /v1/admin/reports/:id.
func (h *AdminHandler) UpdateReport(c echo.Context) error {
	return h.updateTicket(c, h.Reports.UpdateReportStatus, validReportStatus, "report")
}

// UpdateBugReport handles PATCH /v1/admin/bug-reports/:id.
func (h *AdminHandler) UpdateBugReport(c echo.Context) error {
	return h.updateTicket(c, h.Reports.UpdateBugReportStatus, validBugReportStatus, "bug report")
}

func (h *AdminHandler) updateTicket(c echo.Context, update func(ctx context.Context, id uint64, status, note string) error, valid func(string) bool, kind string) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req reportStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !valid(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}
	if err := update(c.Request().Context(), id, req.Status, req.AdminNote); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": kind + " not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
