package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekoMaster/ticketticket/internal/lifecycle"
)

func testContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetUserIDAcceptsClaimNumberTypes(t *testing.T) {
	// JWT claims decode numbers as float64; repositories hand out
	// uint64.  Both must resolve to the same ID.
	for _, v := range []any{uint64(42), int64(42), 42, float64(42), "42"} {
		c := testContext()
		c.Set("user_id", v)
		id, err := getUserID(c)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, uint64(42), id)
	}

	c := testContext()
	_, err := getUserID(c)
	assert.Error(t, err)

	c.Set("user_id", "not-a-number")
	_, err = getUserID(c)
	assert.Error(t, err)
}

func TestCurrentActor(t *testing.T) {
	c := testContext()
	c.Set("user_id", float64(7))
	c.Set("role", "USER")
	c.Set("vlevel", "applicant")

	actor, err := currentActor(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), actor.ID)
	assert.Equal(t, "USER", actor.Role)
	assert.Equal(t, lifecycle.LevelApplicant, actor.Level)
	assert.False(t, actor.Admin())

	// an unknown level claim degrades to unverified instead of failing
	c.Set("vlevel", "superhost")
	actor, err = currentActor(c)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.LevelUnverified, actor.Level)
}

func TestParseID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("15")

	id, ok := parseID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint64(15), id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		c.SetParamValues(bad)
		_, ok := parseID(c, "id")
		assert.False(t, ok, "value %q", bad)
	}
}

func TestGuardErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{lifecycle.ErrVerificationRequired, http.StatusForbidden},
		{lifecycle.ErrApplicationResolved, http.StatusBadRequest},
		{lifecycle.ErrListingNotOpen, http.StatusBadRequest},
		{lifecycle.ErrNoSlots, http.StatusBadRequest},
		{lifecycle.ErrCancellationPending, http.StatusBadRequest},
		{lifecycle.ErrWrongConversationType, http.StatusBadRequest},
		{lifecycle.ErrNoCancellationPending, http.StatusBadRequest},
		{lifecycle.ErrOwnRequest, http.StatusBadRequest},
		{lifecycle.ErrReasonRequired, http.StatusBadRequest},
	}
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		require.NoError(t, guardError(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestValidTicketFields(t *testing.T) {
	assert.True(t, validTicketType("find_companion"))
	assert.True(t, validTicketType("sub_ticket_transfer"))
	assert.True(t, validTicketType("ticket_exchange"))
	assert.False(t, validTicketType("resale"))
	assert.False(t, validTicketType(""))

	assert.True(t, validCountType("solo"))
	assert.True(t, validCountType("duo"))
	assert.False(t, validCountType("trio"))
}
