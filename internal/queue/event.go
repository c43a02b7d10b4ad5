// Package queue defines message payloads exchanged over the message broker
// and the background consumer that fans them out.
package queue

// Event kinds published to the notification.dispatch queue.  The same
// kinds are used for in-app notification rows so clients render both
// from one table.
const (
    KindListingCreated       = "listing.created"
    KindApplicationSubmitted = "application.submitted"
    KindApplicationAccepted  = "application.accepted"
    KindApplicationRejected  = "application.rejected"
    KindApplicationVoided    = "application.not_selected"
    KindCancelRequested      = "cancel.requested"
    KindCancelResolved       = "cancel.resolved"
    KindMatchCompleted       = "match.completed"
)

// NotificationEvent is published after a state transition commits.  It
// contains enough information for downstream consumers to format a
// webhook message or write an audit line without querying the primary
// database.
type NotificationEvent struct {
    Kind           string `json:"kind"`
    ListingID      uint64 `json:"listing_id,omitempty"`
    ConversationID uint64 `json:"conversation_id,omitempty"`
    ApplicationID  uint64 `json:"application_id,omitempty"`
    ActorID        uint64 `json:"actor_id,omitempty"`
    RecipientID    uint64 `json:"recipient_id,omitempty"`
    EventName      string `json:"event_name,omitempty"`
    Detail         string `json:"detail,omitempty"`
    OccurredAt     string `json:"occurred_at"`
}
