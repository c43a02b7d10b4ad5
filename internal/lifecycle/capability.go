package lifecycle

import "github.com/pekoMaster/ticketticket/internal/model"

// Action names the operations subject to capability checks.  Handlers
// ask Allow* before touching a resource instead of repeating ad-hoc
// ownership comparisons inline.
type Action string

const (
	ActionView          Action = "view"
	ActionEdit          Action = "edit"
	ActionClose         Action = "close"
	ActionMessage       Action = "message"
	ActionAccept        Action = "accept"
	ActionReject        Action = "reject"
	ActionWithdraw      Action = "withdraw"
	ActionCancelRequest Action = "cancel_request"
	ActionCancelRespond Action = "cancel_respond"
	ActionConfirm       Action = "confirm"
)

// Actor is the authenticated principal a capability check runs for.
type Actor struct {
	ID    uint64
	Role  string // USER or ADMIN
	Level VerificationLevel
}

// Admin reports whether the actor carries the ADMIN role.
func (a Actor) Admin() bool { return a.Role == "ADMIN" }

// AllowListing decides whether the actor may perform the action on the
// listing.  Viewing open listings is public and not checked here.
func AllowListing(a Actor, l *model.Listing, action Action) bool {
	if a.Admin() {
		return true
	}
	switch action {
	case ActionEdit, ActionClose:
		return a.ID == l.HostID
	}
	return false
}

// AllowConversation decides whether the actor may perform the action
// on the conversation.  Everything inside a conversation is limited to
// its two participants; the confirm action is further restricted per
// side by the handler (each party can only set its own timestamp).
func AllowConversation(a Actor, cv *model.Conversation, action Action) bool {
	if a.Admin() && action == ActionView {
		return true
	}
	if !cv.Participant(a.ID) {
		return false
	}
	switch action {
	case ActionView, ActionMessage, ActionCancelRequest, ActionCancelRespond, ActionConfirm:
		return true
	}
	return false
}

// AllowApplication decides whether the actor may perform the action on
// the application.  Accept and reject belong to the listing host,
// withdraw to the applying guest.
func AllowApplication(a Actor, app *model.Application, l *model.Listing, action Action) bool {
	if a.Admin() {
		return true
	}
	switch action {
	case ActionAccept, ActionReject:
		return a.ID == l.HostID
	case ActionWithdraw:
		return a.ID == app.GuestID
	case ActionView:
		return a.ID == l.HostID || a.ID == app.GuestID
	}
	return false
}
