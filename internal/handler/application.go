package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pekoMaster/ticketticket/internal/lifecycle"
	"github.com/pekoMaster/ticketticket/internal/model"
	"github.com/pekoMaster/ticketticket/internal/monitoring"
	"github.com/pekoMaster/ticketticket/internal/queue"
	"github.com/pekoMaster/ticketticket/internal/repository"
)

// ApplicationHandler resolves applications: the host accepts or
// rejects, the guest withdraws.  Accept is the critical section of
// the whole system; it runs as a single transaction with FOR UPDATE
// locks on the conversation and the listing so two hosts (or one
// host double-clicking) can never over-commit a slot.
type ApplicationHandler struct {
	Listings      *repository.ListingRepo
	Applications  *repository.ApplicationRepo
	Conversations *repository.ConversationRepo
	Messages      *repository.MessageRepo
	Notifications *repository.NotificationRepo
}

func NewApplicationHandler(listings *repository.ListingRepo, apps *repository.ApplicationRepo, convs *repository.ConversationRepo, msgs *repository.MessageRepo, notifs *repository.NotificationRepo) *ApplicationHandler {
	if listings == nil || apps == nil || convs == nil || msgs == nil {
		panic("nil repository passed to NewApplicationHandler")
	}
	return &ApplicationHandler{Listings: listings, Applications: apps, Conversations: convs, Messages: msgs, Notifications: notifs}
}

type applicationView struct {
	ID             uint64  `json:"id"`
	ListingID      uint64  `json:"listing_id"`
	GuestID        uint64  `json:"guest_id"`
	ConversationID uint64  `json:"conversation_id"`
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	ResolvedAt     *string `json:"resolved_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toApplicationView(a *model.Application) applicationView {
	v := applicationView{
		ID:             a.ID,
		ListingID:      a.ListingID,
		GuestID:        a.GuestID,
		ConversationID: a.ConversationID,
		Status:         a.Status,
		Message:        a.Message,
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.ResolvedAt != nil {
		s := a.ResolvedAt.UTC().Format(time.RFC3339)
		v.ResolvedAt = &s
	}
	return v
}

// ListForListing handles GET /v1/listings/:id/applications.  Host or
// admin only.
func (h *ApplicationHandler) ListForListing(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	ctx := c.Request().Context()

	l, err := h.Listings.GetByID(ctx, listingID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if l.HostID != actor.ID && !actor.Admin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	apps, err := h.Applications.ListByListing(ctx, listingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]applicationView, 0, len(apps))
	for i := range apps {
		out = append(out, toApplicationView(&apps[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"applications": out})
}

// Accept handles POST /v1/applications/:id/accept.
//
// Everything the acceptance implies happens inside one transaction:
// decrement the listing slot, promote the conversation to matched,
// resolve this application to accepted, void every other pending
// application for the listing and post the match system message.
// If any guard fails the whole thing rolls back and nothing moved.
func (h *ApplicationHandler) Accept(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	appID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	ctx := c.Request().Context()

	app, err := h.Applications.GetByID(ctx, appID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Applications.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Conversation first, listing second. Every writer that touches
	// both takes the locks in this order.
	cv, err := h.Conversations.GetByIDTx(ctx, tx, app.ConversationID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	l, err := h.Listings.GetByIDTx(ctx, tx, app.ListingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if l.HostID != actor.ID && !actor.Admin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := lifecycle.CanAcceptApplication(
		lifecycle.ApplicationStatus(app.Status),
		lifecycle.ConversationType(cv.ConversationType),
		lifecycle.ListingStatus(l.Status),
		l.AvailableSlots,
	); err != nil {
		return guardError(c, err)
	}

	if err := h.Listings.MatchTx(ctx, tx, l.ID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "listing is no longer open"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Conversations.MatchTx(ctx, tx, cv.ID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conversation is not pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Applications.ResolveTx(ctx, tx, app.ID, string(lifecycle.ApplicationAccepted)); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "application already resolved"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	voided, err := h.Applications.VoidOtherPendingTx(ctx, tx, l.ID, app.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	// Each loser's conversation falls back to inquiry, exactly as if
	// the host had rejected them one by one, so they can keep talking
	// or apply again once the listing reopens.
	for _, v := range voided {
		if err := h.Conversations.SetTypeTx(ctx, tx, v.ConversationID,
			string(lifecycle.ConversationPending), string(lifecycle.ConversationInquiry)); err != nil && err != repository.ErrConflict {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	if err := h.Messages.CreateSystemTx(ctx, tx, cv.ID, model.SystemMatchConfirmed, "The host accepted the application. You are matched."); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true
	monitoring.ApplicationTransition(string(lifecycle.ApplicationAccepted))

	fanOut(ctx, h.Notifications, queue.NotificationEvent{
		Kind:           queue.KindApplicationAccepted,
		ListingID:      l.ID,
		ConversationID: cv.ID,
		ApplicationID:  app.ID,
		ActorID:        actor.ID,
		RecipientID:    app.GuestID,
		EventName:      l.EventName,
	})
	for _, v := range voided {
		fanOut(ctx, h.Notifications, queue.NotificationEvent{
			Kind:           queue.KindApplicationVoided,
			ListingID:      l.ID,
			ConversationID: v.ConversationID,
			ApplicationID:  v.ApplicationID,
			ActorID:        actor.ID,
			RecipientID:    v.GuestID,
			EventName:      l.EventName,
		})
	}

	updated, err := h.Applications.GetByID(ctx, app.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toApplicationView(updated))
}

// Reject handles POST /v1/applications/:id/reject.  The conversation
// drops back to inquiry so the guest can keep talking or re-apply.
func (h *ApplicationHandler) Reject(c echo.Context) error {
	return h.resolve(c, string(lifecycle.ApplicationRejected))
}

// Withdraw handles POST /v1/applications/:id/withdraw.  Guest side of
// Reject; only pending applications can be withdrawn.
func (h *ApplicationHandler) Withdraw(c echo.Context) error {
	return h.resolve(c, string(lifecycle.ApplicationCancelled))
}

// resolve is the shared reject/withdraw path.  Both drop the
// application out of pending and return the conversation to inquiry.
func (h *ApplicationHandler) resolve(c echo.Context, to string) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	appID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}
	ctx := c.Request().Context()

	app, err := h.Applications.GetByID(ctx, appID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	l, err := h.Listings.GetByID(ctx, app.ListingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var action lifecycle.Action
	switch to {
	case string(lifecycle.ApplicationRejected):
		action = lifecycle.ActionReject
	default:
		action = lifecycle.ActionWithdraw
	}
	if !lifecycle.AllowApplication(actor, app, l, action) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := lifecycle.CanResolveApplication(lifecycle.ApplicationStatus(app.Status), lifecycle.ApplicationStatus(to)); err != nil {
		return guardError(c, err)
	}

	tx, err := h.Applications.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Applications.ResolveTx(ctx, tx, app.ID, to); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "application already resolved"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	// Best effort: the conversation may already have regressed if the
	// guard raced; that is not a reason to fail the resolution.
	if err := h.Conversations.SetTypeTx(ctx, tx, app.ConversationID,
		string(lifecycle.ConversationPending), string(lifecycle.ConversationInquiry)); err != nil && err != repository.ErrConflict {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true
	monitoring.ApplicationTransition(to)

	ev := queue.NotificationEvent{
		ListingID:      l.ID,
		ConversationID: app.ConversationID,
		ApplicationID:  app.ID,
		ActorID:        actor.ID,
		EventName:      l.EventName,
	}
	if to == string(lifecycle.ApplicationRejected) {
		ev.Kind = queue.KindApplicationRejected
		ev.RecipientID = app.GuestID
	} else {
		ev.Kind = queue.KindApplicationVoided
		ev.RecipientID = l.HostID
		ev.Detail = "withdrawn by guest"
	}
	fanOut(ctx, h.Notifications, ev)

	updated, err := h.Applications.GetByID(ctx, app.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toApplicationView(updated))
}

// guardError maps lifecycle guard errors onto the HTTP taxonomy.
// Guard failures are state preconditions read before any write, so
// they answer 400; 409 is reserved for repository.ErrConflict, the
// in-transaction SQL guard losing a race to a concurrent writer.
func guardError(c echo.Context, err error) error {
	switch err {
	case lifecycle.ErrVerificationRequired:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "VERIFICATION_REQUIRED"})
	case lifecycle.ErrApplicationResolved, lifecycle.ErrListingNotOpen,
		lifecycle.ErrNoSlots, lifecycle.ErrCancellationPending,
		lifecycle.ErrWrongConversationType, lifecycle.ErrNoCancellationPending,
		lifecycle.ErrOwnRequest, lifecycle.ErrReasonRequired:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}
