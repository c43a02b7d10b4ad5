package lifecycle

import (
	"errors"
	"strings"
)

// Precondition errors returned by the guard functions.  Handlers map
// these onto HTTP status codes: authorization failures to 403,
// own-request and state-precondition failures to 400, conflicts
// detected inside the SQL guard to 409.
var (
	ErrVerificationRequired  = errors.New("verification level too low")
	ErrWrongConversationType = errors.New("conversation is not in the required state")
	ErrApplicationResolved   = errors.New("application already resolved")
	ErrListingNotOpen        = errors.New("listing is not open")
	ErrNoSlots               = errors.New("listing has no available slots")
	ErrCancellationPending   = errors.New("a cancellation request is already pending")
	ErrNoCancellationPending = errors.New("no pending cancellation request")
	ErrOwnRequest            = errors.New("cannot respond to your own request")
	ErrReasonRequired        = errors.New("cancellation reason is required")
)

// VerificationLevel values mirror the users.verification_level enum.
// The ladder is strictly ordered: email verification promotes
// unverified → applicant, phone verification promotes applicant → host.
type VerificationLevel string

const (
	LevelUnverified VerificationLevel = "unverified"
	LevelApplicant  VerificationLevel = "applicant"
	LevelHost       VerificationLevel = "host"
)

var levelRank = map[VerificationLevel]int{
	LevelUnverified: 0,
	LevelApplicant:  1,
	LevelHost:       2,
}

// ParseVerificationLevel converts a raw string to a VerificationLevel.
func ParseVerificationLevel(s string) (VerificationLevel, error) {
	lv := VerificationLevel(s)
	if _, ok := levelRank[lv]; !ok {
		return "", errors.New("unknown verification level " + s)
	}
	return lv, nil
}

// AtLeast reports whether lv sits at or above the required level.
// Unknown levels rank below unverified.
func (lv VerificationLevel) AtLeast(required VerificationLevel) bool {
	return levelRank[lv] >= levelRank[required]
}

// CanCreateListing checks the verification gate for listing creation.
// Only phone-verified users (level host) may create listings.
func CanCreateListing(level VerificationLevel) error {
	if !level.AtLeast(LevelHost) {
		return ErrVerificationRequired
	}
	return nil
}

// CanApply checks whether a guest may turn an inquiry conversation
// into a formal application.  The guest needs a verified email
// (level applicant) and the conversation must still be an inquiry.
func CanApply(level VerificationLevel, cv ConversationType) error {
	if !level.AtLeast(LevelApplicant) {
		return ErrVerificationRequired
	}
	if !ConversationTransitionAllowed(cv, ConversationPending) {
		return ErrWrongConversationType
	}
	return nil
}

// CanAcceptApplication checks every precondition of the accept event:
// the application must still be pending, its conversation must be in
// the pending type, and the listing must be open with a free slot.
// The listing half of this guard is repeated inside the conditional
// UPDATE so a concurrent accept cannot double-match.
func CanAcceptApplication(app ApplicationStatus, cv ConversationType, listing ListingStatus, availableSlots uint32) error {
	if !ApplicationTransitionAllowed(app, ApplicationAccepted) {
		return ErrApplicationResolved
	}
	if !ConversationTransitionAllowed(cv, ConversationMatched) {
		return ErrWrongConversationType
	}
	if !ListingTransitionAllowed(listing, ListingMatched) {
		return ErrListingNotOpen
	}
	if availableSlots == 0 {
		return ErrNoSlots
	}
	return nil
}

// CanResolveApplication checks host reject and guest withdraw against
// the application table: both only move a pending application, into
// rejected respectively cancelled.
func CanResolveApplication(app, to ApplicationStatus) error {
	if !ApplicationTransitionAllowed(app, to) {
		return ErrApplicationResolved
	}
	return nil
}

// CanRequestCancellation checks the open-request event: only matched
// conversations qualify, only one request may be outstanding, and the
// reason is mandatory.
func CanRequestCancellation(cv ConversationType, cancel CancellationStatus, reason string) error {
	if cv != ConversationMatched {
		return ErrWrongConversationType
	}
	if !CancellationTransitionAllowed(cancel, CancellationPending) {
		return ErrCancellationPending
	}
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// CanRespondCancellation checks the respond event: a request must be
// outstanding and the responder must be the non-requesting party.
func CanRespondCancellation(cancel CancellationStatus, requestedBy, responder uint64) error {
	if cancel != CancellationPending {
		return ErrNoCancellationPending
	}
	if requestedBy == responder {
		return ErrOwnRequest
	}
	return nil
}

// CanConfirmHandoff checks the confirm/unconfirm events, which are
// only meaningful while the conversation is matched.
func CanConfirmHandoff(cv ConversationType) error {
	if cv != ConversationMatched {
		return ErrWrongConversationType
	}
	return nil
}
