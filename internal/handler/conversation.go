package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pekoMaster/ticketticket/internal/lifecycle"
	"github.com/pekoMaster/ticketticket/internal/model"
	"github.com/pekoMaster/ticketticket/internal/monitoring"
	"github.com/pekoMaster/ticketticket/internal/queue"
	"github.com/pekoMaster/ticketticket/internal/repository"
)

// ConversationHandler covers everything that happens between a host
// and a guest: inquiries, the chat, the application hand-in, the
// cancellation negotiation and the final ticket handoff
// confirmations.
type ConversationHandler struct {
	Listings      *repository.ListingRepo
	Applications  *repository.ApplicationRepo
	Conversations *repository.ConversationRepo
	Messages      *repository.MessageRepo
	Users         *repository.UserRepo
	Notifications *repository.NotificationRepo
}

func NewConversationHandler(listings *repository.ListingRepo, apps *repository.ApplicationRepo, convs *repository.ConversationRepo, msgs *repository.MessageRepo, users *repository.UserRepo, notifs *repository.NotificationRepo) *ConversationHandler {
	if listings == nil || apps == nil || convs == nil || msgs == nil || users == nil {
		panic("nil repository passed to NewConversationHandler")
	}
	return &ConversationHandler{
		Listings: listings, Applications: apps, Conversations: convs,
		Messages: msgs, Users: users, Notifications: notifs,
	}
}

type conversationView struct {
	ID                 uint64  `json:"id"`
	ListingID          uint64  `json:"listing_id"`
	HostID             uint64  `json:"host_id"`
	GuestID            uint64  `json:"guest_id"`
	ConversationType   string  `json:"conversation_type"`
	CancellationStatus string  `json:"cancellation_status"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	CancellationBy     *uint64 `json:"cancellation_requested_by,omitempty"`
	CancellationExpiry *string `json:"cancellation_expires_at,omitempty"`
	HostConfirmed      bool    `json:"host_confirmed"`
	GuestConfirmed     bool    `json:"guest_confirmed"`
	BothConfirmed      bool    `json:"both_confirmed"`
	MatchedAt          *string `json:"matched_at,omitempty"`
	CompleteDeadline   *string `json:"complete_deadline,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

func rfc3339Ptr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func toConversationView(cv *model.Conversation) conversationView {
	return conversationView{
		ID:                 cv.ID,
		ListingID:          cv.ListingID,
		HostID:             cv.HostID,
		GuestID:            cv.GuestID,
		ConversationType:   cv.ConversationType,
		CancellationStatus: cv.CancellationStatus,
		CancellationReason: cv.CancellationReason,
		CancellationBy:     cv.CancellationRequestedBy,
		CancellationExpiry: rfc3339Ptr(cv.CancellationExpiresAt),
		HostConfirmed:      cv.HostConfirmedAt != nil,
		GuestConfirmed:     cv.GuestConfirmedAt != nil,
		BothConfirmed:      cv.BothConfirmed(),
		MatchedAt:          rfc3339Ptr(cv.MatchedAt),
		CompleteDeadline:   rfc3339Ptr(cv.CompleteDeadline),
		CreatedAt:          cv.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type messageView struct {
	ID          uint64 `json:"id"`
	SenderID    uint64 `json:"sender_id"`
	MessageType string `json:"message_type"`
	SystemKind  string `json:"system_kind,omitempty"`
	Body        string `json:"body"`
	CreatedAt   string `json:"created_at"`
}

// CreateInquiry handles POST /v1/listings/:id/inquiries.  Idempotent:
// re-inquiring on the same listing returns the existing conversation.
func (h *ConversationHandler) CreateInquiry(c echo.Context) error {
	uid, err := getUserID(c)
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
	if l.HostID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot inquire on your own listing"})
	}
	if l.Status != string(lifecycle.ListingOpen) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listing is not open"})
	}

	cv, created, err := h.Conversations.GetOrCreate(ctx, l.ID, l.HostID, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toConversationView(cv))
}

type applyReq struct {
	Message string `json:"message"`
}

// Apply handles POST /v1/conversations/:id/apply.  The guest turns an
// inquiry into a formal application; the conversation moves to
// pending and an application row is created in the same transaction.
func (h *ConversationHandler) Apply(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cvID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}
	var req applyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()

	cv, err := h.Conversations.GetByID(ctx, cvID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if cv.GuestID != actor.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	// Verification is re-read from the users table so a level revoked
	// after token issue still blocks the application.
	u, err := h.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	level, lvErr := lifecycle.ParseVerificationLevel(u.VerificationLevel)
	if lvErr != nil {
		level = lifecycle.LevelUnverified
	}
	if err := lifecycle.CanApply(level, lifecycle.ConversationType(cv.ConversationType)); err != nil {
		if err == lifecycle.ErrVerificationRequired {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":         "VERIFICATION_REQUIRED",
				"current_level": string(level),
				"required":      string(lifecycle.LevelApplicant),
			})
		}
		return guardError(c, err)
	}

	active, err := h.Applications.HasActive(ctx, cv.ListingID, actor.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if active {
		return c.JSON(http.StatusConflict, echo.Map{"error": "an active application already exists for this listing"})
	}

	l, err := h.Listings.GetByID(ctx, cv.ListingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if l.Status != string(lifecycle.ListingOpen) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listing is not open"})
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

	if err := h.Conversations.SetTypeTx(ctx, tx, cv.ID,
		string(lifecycle.ConversationInquiry), string(lifecycle.ConversationPending)); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conversation is not an inquiry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	app := &model.Application{
		ListingID:      cv.ListingID,
		GuestID:        actor.ID,
		ConversationID: cv.ID,
		Message:        strings.TrimSpace(req.Message),
	}
	if err := h.Applications.CreateTx(ctx, tx, app); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Messages.CreateSystemTx(ctx, tx, cv.ID, model.SystemApplicationSubmitted, "The guest submitted an application."); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	fanOut(ctx, h.Notifications, queue.NotificationEvent{
		Kind:           queue.KindApplicationSubmitted,
		ListingID:      l.ID,
		ConversationID: cv.ID,
		ApplicationID:  app.ID,
		ActorID:        actor.ID,
		RecipientID:    l.HostID,
		EventName:      l.EventName,
	})
	return c.JSON(http.StatusCreated, toApplicationView(app))
}

// List handles GET /v1/conversations: every conversation the caller
// participates in, newest activity first.
func (h *ConversationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cvs, err := h.Conversations.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]conversationView, 0, len(cvs))
	for i := range cvs {
		out = append(out, toConversationView(&cvs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"conversations": out})
}

// Get handles GET /v1/conversations/:id.
func (h *ConversationHandler) Get(c echo.Context) error {
	cv, _, errResp := h.load(c, lifecycle.ActionView)
	if errResp != nil {
		return errResp
	}
	return c.JSON(http.StatusOK, toConversationView(cv))
}

// ListMessages handles GET /v1/conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c echo.Context) error {
	cv, _, errResp := h.load(c, lifecycle.ActionView)
	if errResp != nil {
		return errResp
	}
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	msgs, err := h.Messages.ListByConversation(c.Request().Context(), cv.ID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView{
			ID:          m.ID,
			SenderID:    m.SenderID,
			MessageType: m.MessageType,
			SystemKind:  m.SystemKind,
			Body:        m.Body,
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}

type postMessageReq struct {
	Body string `json:"body"`
}

// PostMessage handles POST /v1/conversations/:id/messages.
func (h *ConversationHandler) PostMessage(c echo.Context) error {
	cv, actor, errResp := h.load(c, lifecycle.ActionMessage)
	if errResp != nil {
		return errResp
	}
	var req postMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body required"})
	}
	if len(body) > 4000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "body too long"})
	}
	m := &model.Message{
		ConversationID: cv.ID,
		SenderID:       actor.ID,
		MessageType:    model.MessageTypeUser,
		Body:           body,
	}
	if err := h.Messages.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, messageView{
		ID:          m.ID,
		SenderID:    m.SenderID,
		MessageType: m.MessageType,
		Body:        m.Body,
		CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
	})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// RequestCancellation handles POST /v1/conversations/:id/cancel.
// Either matched party can open a request; the counterpart has to
// accept or reject it before anything else about the match changes.
func (h *ConversationHandler) RequestCancellation(c echo.Context) error {
	cv, actor, errResp := h.load(c, lifecycle.ActionCancelRequest)
	if errResp != nil {
		return errResp
	}
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	reason := strings.TrimSpace(req.Reason)
	if err := lifecycle.CanRequestCancellation(
		lifecycle.ConversationType(cv.ConversationType),
		lifecycle.CancellationStatus(cv.CancellationStatus),
		reason,
	); err != nil {
		return guardError(c, err)
	}
	ctx := c.Request().Context()

	tx, err := h.Conversations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Conversations.RequestCancellationTx(ctx, tx, cv.ID, actor.ID, reason); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a cancellation request is already pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Messages.CreateSystemTx(ctx, tx, cv.ID, model.SystemCancelRequested, reason); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	fanOut(ctx, h.Notifications, queue.NotificationEvent{
		Kind:           queue.KindCancelRequested,
		ConversationID: cv.ID,
		ListingID:      cv.ListingID,
		ActorID:        actor.ID,
		RecipientID:    cv.Counterpart(actor.ID),
		Detail:         reason,
	})

	updated, err := h.Conversations.GetByID(ctx, cv.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, toConversationView(updated))
}

type cancelResponseReq struct {
	Accept bool `json:"accept"`
}

// RespondCancellation handles PUT /v1/conversations/:id/cancel.  On
// accept the whole match unwinds: the conversation regresses to
// inquiry, the listing slot is returned, the accepted application is
// voided and both parties' cancellation counters go up.
func (h *ConversationHandler) RespondCancellation(c echo.Context) error {
	cv, actor, errResp := h.load(c, lifecycle.ActionCancelRespond)
	if errResp != nil {
		return errResp
	}
	var req cancelResponseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var requestedBy uint64
	if cv.CancellationRequestedBy != nil {
		requestedBy = *cv.CancellationRequestedBy
	}
	if err := lifecycle.CanRespondCancellation(
		lifecycle.CancellationStatus(cv.CancellationStatus), requestedBy, actor.ID,
	); err != nil {
		return guardError(c, err)
	}
	ctx := c.Request().Context()

	tx, err := h.Conversations.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if req.Accept {
		if err := h.Conversations.AcceptCancellationTx(ctx, tx, cv.ID); err != nil {
			if err == repository.ErrConflict {
				return c.JSON(http.StatusConflict, echo.Map{"error": "no pending cancellation request"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := h.Listings.ReopenTx(ctx, tx, cv.ListingID); err != nil && err != repository.ErrConflict {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := h.Applications.VoidAcceptedTx(ctx, tx, cv.ListingID, cv.GuestID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := h.Users.IncrementCancellationCountTx(ctx, tx, cv.HostID, cv.GuestID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := h.Messages.CreateSystemTx(ctx, tx, cv.ID, model.SystemCancelAccepted, "The cancellation request was accepted. The match is dissolved."); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	} else {
		if err := h.Conversations.RejectCancellationTx(ctx, tx, cv.ID); err != nil {
			if err == repository.ErrConflict {
				return c.JSON(http.StatusConflict, echo.Map{"error": "no pending cancellation request"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := h.Messages.CreateSystemTx(ctx, tx, cv.ID, model.SystemCancelRejected, "The cancellation request was rejected. The match stands."); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	outcome := "rejected"
	if req.Accept {
		outcome = "accepted"
	}
	monitoring.CancellationOutcome(outcome)

	fanOut(ctx, h.Notifications, queue.NotificationEvent{
		Kind:           queue.KindCancelResolved,
		ConversationID: cv.ID,
		ListingID:      cv.ListingID,
		ActorID:        actor.ID,
		RecipientID:    cv.Counterpart(actor.ID),
		Detail:         outcome,
	})

	updated, err := h.Conversations.GetByID(ctx, cv.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toConversationView(updated))
}

// Confirm handles POST /v1/conversations/:id/confirm: the caller
// marks their side of the ticket handoff done.  When the second
// confirmation lands the match is complete and both parties are
// notified.
func (h *ConversationHandler) Confirm(c echo.Context) error {
	return h.setConfirmation(c, true)
}

// Unconfirm handles DELETE /v1/conversations/:id/confirm: retract the
// caller's confirmation.  Completion is derived, so pulling a
// confirmation back simply turns both_confirmed false again.
func (h *ConversationHandler) Unconfirm(c echo.Context) error {
	return h.setConfirmation(c, false)
}

func (h *ConversationHandler) setConfirmation(c echo.Context, confirmed bool) error {
	cv, actor, errResp := h.load(c, lifecycle.ActionConfirm)
	if errResp != nil {
		return errResp
	}
	if err := lifecycle.CanConfirmHandoff(lifecycle.ConversationType(cv.ConversationType)); err != nil {
		return guardError(c, err)
	}
	ctx := c.Request().Context()

	wasComplete := cv.BothConfirmed()
	updated, err := h.Conversations.SetConfirmation(ctx, cv.ID, actor.ID == cv.HostID, confirmed)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conversation is not matched"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if !wasComplete && updated.BothConfirmed() {
		monitoring.MatchCompleted()
		for _, uid := range []uint64{updated.HostID, updated.GuestID} {
			fanOut(ctx, h.Notifications, queue.NotificationEvent{
				Kind:           queue.KindMatchCompleted,
				ConversationID: updated.ID,
				ListingID:      updated.ListingID,
				ActorID:        actor.ID,
				RecipientID:    uid,
			})
		}
	}
	return c.JSON(http.StatusOK, toConversationView(updated))
}

// load fetches the conversation and runs the capability check shared
// by every conversation route.  A non-nil error return is a response
// already written.
func (h *ConversationHandler) load(c echo.Context, action lifecycle.Action) (*model.Conversation, lifecycle.Actor, error) {
	actor, err := currentActor(c)
	if err != nil {
		return nil, actor, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil, actor, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}
	cv, err := h.Conversations.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, actor, c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
		}
		return nil, actor, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !lifecycle.AllowConversation(actor, cv, action) {
		return nil, actor, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return cv, actor, nil
}
