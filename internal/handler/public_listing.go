package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pekoMaster/ticketticket/internal/model"
	"github.com/pekoMaster/ticketticket/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints.  Responses
// are sanitized: host contact details never leave the server here and
// slot counters are summarized for guests deciding whether to inquire.
type PublicHandler struct {
	ListingRepo *repository.ListingRepo
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(listingRepo *repository.ListingRepo) *PublicHandler {
	if listingRepo == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{ListingRepo: listingRepo}
}

// listingView is the public JSON shape of a listing.  Expired is
// computed per request from the event date; it is never stored.
type listingView struct {
	ID                  uint64  `json:"id"`
	HostID              uint64  `json:"host_id"`
	EventName           string  `json:"event_name"`
	EventDate           string  `json:"event_date"`
	Venue               string  `json:"venue"`
	MeetingTime         *string `json:"meeting_time,omitempty"`
	MeetingLocation     *string `json:"meeting_location,omitempty"`
	TicketType          string  `json:"ticket_type"`
	TicketSource        string  `json:"ticket_source"`
	SeatGrade           string  `json:"seat_grade"`
	TicketCountType     string  `json:"ticket_count_type"`
	TotalSlots          uint32  `json:"total_slots"`
	AvailableSlots      uint32  `json:"available_slots"`
	Status              string  `json:"status"`
	ExchangeTargetEvent *string `json:"exchange_target_event,omitempty"`
	ExchangeTargetGrade *string `json:"exchange_target_grade,omitempty"`
	Description         string  `json:"description"`
	Expired             bool    `json:"expired"`
	CreatedAt           string  `json:"created_at"`
}

func toListingView(l *model.Listing, now time.Time) listingView {
	return listingView{
		ID:                  l.ID,
		HostID:              l.HostID,
		EventName:           l.EventName,
		EventDate:           l.EventDate.Format(time.RFC3339),
		Venue:               l.Venue,
		MeetingTime:         l.MeetingTime,
		MeetingLocation:     l.MeetingLocation,
		TicketType:          l.TicketType,
		TicketSource:        l.TicketSource,
		SeatGrade:           l.SeatGrade,
		TicketCountType:     l.TicketCountType,
		TotalSlots:          l.TotalSlots,
		AvailableSlots:      l.AvailableSlots,
		Status:              l.Status,
		ExchangeTargetEvent: l.ExchangeTargetEvent,
		ExchangeTargetGrade: l.ExchangeTargetGrade,
		Description:         l.Description,
		Expired:             l.Expired(now),
		CreatedAt:           l.CreatedAt.Format(time.RFC3339),
	}
}

// ListListings handles GET /v1/listings.  It returns open listings
// newest first, optionally filtered by ?event= (substring match) and
// ?ticket_type=.  Pagination uses ?limit= and ?offset=.
func (h *PublicHandler) ListListings(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	listings, err := h.ListingRepo.ListOpen(c.Request().Context(),
		c.QueryParam("event"), c.QueryParam("ticket_type"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	out := make([]listingView, 0, len(listings))
	for i := range listings {
		out = append(out, toListingView(&listings[i], now))
	}
	return c.JSON(http.StatusOK, echo.Map{"listings": out})
}

// GetListing handles GET /v1/listings/:id.
func (h *PublicHandler) GetListing(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	l, err := h.ListingRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toListingView(l, time.Now().UTC()))
}
