package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidReportStatuses(t *testing.T) {
	for _, s := range []string{"open", "reviewing", "resolved", "dismissed"} {
		assert.True(t, validReportStatus(s), "report status %q", s)
	}
	assert.False(t, validReportStatus("in_progress"))
	assert.False(t, validReportStatus("wont_fix"))
	assert.False(t, validReportStatus(""))

	for _, s := range []string{"open", "in_progress", "resolved", "wont_fix"} {
		assert.True(t, validBugReportStatus(s), "bug report status %q", s)
	}
	assert.False(t, validBugReportStatus("reviewing"))
	assert.False(t, validBugReportStatus("dismissed"))
}

func TestUpdateBugReportRejectsReportOnlyStatus(t *testing.T) {
	h := &AdminHandler{}
	e := echo.New()

	req := httptest.NewRequest(http.MethodPatch, "/v1/admin/bug-reports/5",
		strings.NewReader(`{"status":"dismissed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.UpdateBugReport(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid status")
}
