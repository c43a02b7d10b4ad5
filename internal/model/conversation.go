package model

import "time"

// Conversation is the communication channel between a listing's host
// and exactly one guest.  Besides the chat itself it carries the
// higher-level conversation_type (inquiry → pending → matched), the
// cancellation negotiation sub-state and both parties' ticket
// handoff confirmations.
//
// Fields:
//  ID                      – primary key identifier.
//  ListingID               – listing the conversation is about.
//  HostID                  – listing host.
//  GuestID                 – inquiring guest.
//  ConversationType        – inquiry, pending or matched.
//  CancellationStatus      – none, pending, cancelled, rejected or escalated.
//  CancellationRequestedBy – user who opened the pending request (nullable).
//  CancellationReason      – mandatory reason given by the requester (nullable).
//  CancellationRequestedAt – when the request was opened (nullable).
//  CancellationExpiresAt   – request deadline, requested_at + 48h (nullable).
//  CancellationRespondedAt – when the counterpart responded (nullable).
//  HostConfirmedAt         – host's ticket handoff confirmation (nullable).
//  GuestConfirmedAt        – guest's ticket handoff confirmation (nullable).
//  MatchedAt               – when the host accepted the application (nullable).
//  CompleteDeadline        – matched_at + 7 days, informational (nullable).
//  CreatedAt               – creation timestamp.
//  UpdatedAt               – last update timestamp.
type Conversation struct {
    ID                      uint64     // conversations.id
    ListingID               uint64     // conversations.listing_id
    HostID                  uint64     // conversations.host_id
    GuestID                 uint64     // conversations.guest_id
    ConversationType        string     // conversations.conversation_type
    CancellationStatus      string     // conversations.cancellation_status
    CancellationRequestedBy *uint64    // conversations.cancellation_requested_by (nullable)
    CancellationReason      *string    // conversations.cancellation_reason (nullable)
    CancellationRequestedAt *time.Time // conversations.cancellation_requested_at (nullable)
    CancellationExpiresAt   *time.Time // conversations.cancellation_expires_at (nullable)
    CancellationRespondedAt *time.Time // conversations.cancellation_responded_at (nullable)
    HostConfirmedAt         *time.Time // conversations.host_confirmed_at (nullable)
    GuestConfirmedAt        *time.Time // conversations.guest_confirmed_at (nullable)
    MatchedAt               *time.Time // conversations.matched_at (nullable)
    CompleteDeadline        *time.Time // conversations.complete_deadline (nullable)
    CreatedAt               time.Time  // conversations.created_at
    UpdatedAt               time.Time  // conversations.updated_at
}

// BothConfirmed reports whether both parties have confirmed the
// ticket handoff.  Completion is a derived value, not a stored state.
func (cv *Conversation) BothConfirmed() bool {
    return cv.HostConfirmedAt != nil && cv.GuestConfirmedAt != nil
}

// Participant reports whether the given user is one of the two
// conversation parties.
func (cv *Conversation) Participant(userID uint64) bool {
    return userID == cv.HostID || userID == cv.GuestID
}

// Counterpart returns the other participant's ID.  The caller must
// already have checked Participant.
func (cv *Conversation) Counterpart(userID uint64) uint64 {
    if userID == cv.HostID {
        return cv.GuestID
    }
    return cv.HostID
}
