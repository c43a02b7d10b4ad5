package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pekoMaster/ticketticket/internal/config"
	"github.com/pekoMaster/ticketticket/internal/lifecycle"
	"github.com/pekoMaster/ticketticket/internal/model"
	"github.com/pekoMaster/ticketticket/internal/monitoring"
	"github.com/pekoMaster/ticketticket/internal/queue"
	"github.com/pekoMaster/ticketticket/internal/repository"
)

// HostHandler groups the repositories hosts need to manage their
// listings.  JWT authentication has already run; the verification
// gate for creation is checked against the users table, not just the
// token claim, because the claim can lag a recent promotion or
// demotion.
type HostHandler struct {
	Cfg           config.Config
	ListingRepo   *repository.ListingRepo
	UserRepo      *repository.UserRepo
	Notifications *repository.NotificationRepo
}

// NewHostHandler constructs a HostHandler with the provided dependencies.
func NewHostHandler(cfg config.Config, listingRepo *repository.ListingRepo, userRepo *repository.UserRepo, notifications *repository.NotificationRepo) *HostHandler {
	if listingRepo == nil || userRepo == nil {
		panic("nil repository passed to NewHostHandler")
	}
	return &HostHandler{Cfg: cfg, ListingRepo: listingRepo, UserRepo: userRepo, Notifications: notifications}
}

type listingReq struct {
	EventName           string  `json:"event_name"`
	EventDate           string  `json:"event_date"` // RFC3339
	Venue               string  `json:"venue"`
	MeetingTime         *string `json:"meeting_time"`
	MeetingLocation     *string `json:"meeting_location"`
	TicketType          string  `json:"ticket_type"`
	TicketSource        string  `json:"ticket_source"`
	SeatGrade           string  `json:"seat_grade"`
	TicketCountType     string  `json:"ticket_count_type"`
	TotalSlots          uint32  `json:"total_slots"`
	ExchangeTargetEvent *string `json:"exchange_target_event"`
	ExchangeTargetGrade *string `json:"exchange_target_grade"`
	Description         string  `json:"description"`
}

func validTicketType(s string) bool {
	switch s {
	case "find_companion", "sub_ticket_transfer", "ticket_exchange":
		return true
	}
	return false
}

func validCountType(s string) bool { return s == "solo" || s == "duo" }

// CreateListing handles POST /v1/listings.  Requires verification
// level host and enforces the per-event cap on concurrent non-closed
// listings.  The created event is fanned out best effort; a webhook
// failure never fails the listing creation.
func (h *HostHandler) CreateListing(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()

	u, err := h.UserRepo.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	level, lvErr := lifecycle.ParseVerificationLevel(u.VerificationLevel)
	if lvErr != nil {
		level = lifecycle.LevelUnverified
	}
	if err := lifecycle.CanCreateListing(level); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":         "VERIFICATION_REQUIRED",
			"current_level": string(level),
			"required":      string(lifecycle.LevelHost),
		})
	}

	var req listingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.EventName = strings.TrimSpace(req.EventName)
	if req.EventName == "" || strings.TrimSpace(req.Venue) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_name and venue required"})
	}
	if !validTicketType(req.TicketType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket_type"})
	}
	if !validCountType(req.TicketCountType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket_count_type"})
	}
	if req.TotalSlots == 0 || req.TotalSlots > 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_slots must be between 1 and 10"})
	}
	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date must be RFC3339"})
	}

	count, err := h.ListingRepo.CountActiveForEvent(ctx, uid, req.EventName)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if count >= h.Cfg.MaxListingsPerEvent {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "MAX_LISTINGS_REACHED",
			"max":   h.Cfg.MaxListingsPerEvent,
		})
	}

	l := &model.Listing{
		HostID:              uid,
		EventName:           req.EventName,
		EventDate:           eventDate.UTC(),
		Venue:               strings.TrimSpace(req.Venue),
		MeetingTime:         req.MeetingTime,
		MeetingLocation:     req.MeetingLocation,
		TicketType:          req.TicketType,
		TicketSource:        req.TicketSource,
		SeatGrade:           req.SeatGrade,
		TicketCountType:     req.TicketCountType,
		TotalSlots:          req.TotalSlots,
		Description:         req.Description,
		ExchangeTargetEvent: req.ExchangeTargetEvent,
		ExchangeTargetGrade: req.ExchangeTargetGrade,
	}
	if err := h.ListingRepo.Create(ctx, l); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create listing failed"})
	}
	monitoring.ListingCreated()

	fanOut(ctx, h.Notifications, queue.NotificationEvent{
		Kind:      queue.KindListingCreated,
		ListingID: l.ID,
		ActorID:   uid,
		EventName: l.EventName,
		Detail:    l.TicketType,
	})

	return c.JSON(http.StatusCreated, toListingView(l, time.Now().UTC()))
}

// UpdateListing handles PATCH /v1/listings/:id.  Only open listings
// may be edited, and only by their host.
func (h *HostHandler) UpdateListing(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	ctx := c.Request().Context()

	l, err := h.ListingRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	actor, _ := currentActor(c)
	if !lifecycle.AllowListing(actor, l, lifecycle.ActionEdit) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req listingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if s := strings.TrimSpace(req.EventName); s != "" {
		l.EventName = s
	}
	if s := strings.TrimSpace(req.Venue); s != "" {
		l.Venue = s
	}
	if req.EventDate != "" {
		d, err := time.Parse(time.RFC3339, req.EventDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_date must be RFC3339"})
		}
		l.EventDate = d.UTC()
	}
	if req.MeetingTime != nil {
		l.MeetingTime = req.MeetingTime
	}
	if req.MeetingLocation != nil {
		l.MeetingLocation = req.MeetingLocation
	}
	if req.TicketSource != "" {
		l.TicketSource = req.TicketSource
	}
	if req.SeatGrade != "" {
		l.SeatGrade = req.SeatGrade
	}
	if req.ExchangeTargetEvent != nil {
		l.ExchangeTargetEvent = req.ExchangeTargetEvent
	}
	if req.ExchangeTargetGrade != nil {
		l.ExchangeTargetGrade = req.ExchangeTargetGrade
	}
	if req.Description != "" {
		l.Description = req.Description
	}
	if err := h.ListingRepo.UpdateOpenFields(ctx, l); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "listing is not open"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.ListingRepo.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toListingView(updated, time.Now().UTC()))
}

// CloseListing handles DELETE /v1/listings/:id.  Hosts can close open
// listings; a matched listing must go through cancellation first and
// responds 409.
func (h *HostHandler) CloseListing(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	ctx := c.Request().Context()
	if err := h.ListingRepo.CloseIfOpen(ctx, id, uid); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "listing is matched; resolve the match first"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "close failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// MyListings handles GET /v1/listings/mine: the host's listings with
// pending application counts for the dashboard.
func (h *HostHandler) MyListings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listings, counts, err := h.ListingRepo.ListByHost(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	type mineView struct {
		listingView
		PendingApplications int `json:"pending_applications"`
	}
	out := make([]mineView, 0, len(listings))
	for i := range listings {
		out = append(out, mineView{
			listingView:         toListingView(&listings[i], now),
			PendingApplications: counts[listings[i].ID],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": out})
}
