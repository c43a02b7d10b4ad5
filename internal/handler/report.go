package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pekoMaster/ticketticket/internal/model"
	"github.com/pekoMaster/ticketticket/internal/repository"
)

// ReportHandler files abuse reports and bug reports.  Reading and
// resolving them is admin territory, see AdminHandler.
type ReportHandler struct {
	Reports *repository.ReportRepo
	Users   *repository.UserRepo
}

func NewReportHandler(reports *repository.ReportRepo, users *repository.UserRepo) *ReportHandler {
	if reports == nil || users == nil {
		panic("nil repository passed to NewReportHandler")
	}
	return &ReportHandler{Reports: reports, Users: users}
}

type reportReq struct {
	ReportedUserID uint64 `json:"reported_user_id"`
	ReportType     string `json:"report_type"`
	Detail         string `json:"detail"`
}

func validReportType(s string) bool {
	switch s {
	case "no_show", "scam", "harassment", "other":
		return true
	}
	return false
}

// CreateReport handles POST /v1/reports.
func (h *ReportHandler) CreateReport(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ReportedUserID == 0 || req.ReportedUserID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reported_user_id"})
	}
	if !validReportType(req.ReportType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid report_type"})
	}
	if strings.TrimSpace(req.Detail) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "detail required"})
	}
	ctx := c.Request().Context()

	if _, err := h.Users.GetByID(ctx, req.ReportedUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reported user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	rep := &model.Report{
		ReporterID:     uid,
		ReportedUserID: req.ReportedUserID,
		ReportType:     req.ReportType,
		Detail:         strings.TrimSpace(req.Detail),
	}
	if err := h.Reports.CreateReport(ctx, rep); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": rep.ID, "status": rep.Status})
}

type bugReportReq struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// CreateBugReport handles POST /v1/bug-reports.
func (h *ReportHandler) CreateBugReport(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bugReportReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	br := &model.BugReport{
		ReporterID: uid,
		Title:      title,
		Detail:     strings.TrimSpace(req.Detail),
	}
	if err := h.Reports.CreateBugReport(c.Request().Context(), br); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": br.ID, "status": br.Status})
}
