// Package lifecycle defines the state machines that tie listings,
// applications and conversations together.
//
// Valid status graphs:
//
//	Listing:      open ──► matched ──► closed
//	                │  ◄──────┘ (cancellation accepted)
//	                └──► closed
//
//	Application:  pending ──► accepted | rejected | cancelled (terminal)
//
//	Conversation: inquiry ──► pending ──► matched
//	                 ▲            │           │
//	                 └────────────┘ (reject/withdraw)
//	                 ▲                        │
//	                 └────────────────────────┘ (cancellation accepted)
//
//	Cancellation: none ──► pending ──► cancelled | rejected
//	                          ▲            │
//	                          └── none ◄───┘ (new request after reject)
//
// The package is pure logic: no I/O, no clocks beyond what callers
// pass in.  Handlers consult these tables before writing and repeat
// the decisive guard inside the SQL UPDATE itself so concurrent
// writers lose the race cleanly.
package lifecycle

import "fmt"

// ListingStatus values mirror the listings.status enum.
type ListingStatus string

const (
	ListingOpen    ListingStatus = "open"
	ListingMatched ListingStatus = "matched"
	ListingClosed  ListingStatus = "closed"
)

// ApplicationStatus values mirror the applications.status enum.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCancelled ApplicationStatus = "cancelled"
)

// ConversationType values mirror the conversations.conversation_type enum.
type ConversationType string

const (
	ConversationInquiry ConversationType = "inquiry"
	ConversationPending ConversationType = "pending"
	ConversationMatched ConversationType = "matched"
)

// CancellationStatus values mirror the conversations.cancellation_status
// enum.  CancellationEscalated is declared for the planned admin
// escalation path; no transition currently produces it.
type CancellationStatus string

const (
	CancellationNone      CancellationStatus = "none"
	CancellationPending   CancellationStatus = "pending"
	CancellationCancelled CancellationStatus = "cancelled"
	CancellationRejected  CancellationStatus = "rejected"
	CancellationEscalated CancellationStatus = "escalated"
)

// listingTransitions lists every allowed (from → to) pair for listings.
// matched → open happens only when a cancellation request is accepted.
var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingOpen:    {ListingMatched, ListingClosed},
	ListingMatched: {ListingOpen, ListingClosed},
	// closed is terminal
}

// applicationTransitions lists every allowed (from → to) pair for
// applications.  All non-pending states are terminal.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending: {ApplicationAccepted, ApplicationRejected, ApplicationCancelled},
}

// conversationTransitions lists every allowed (from → to) pair for the
// conversation type.  The only regression from matched is back to
// inquiry, via an accepted cancellation; pending falls back to inquiry
// when the application is rejected or withdrawn.
var conversationTransitions = map[ConversationType][]ConversationType{
	ConversationInquiry: {ConversationPending},
	ConversationPending: {ConversationMatched, ConversationInquiry},
	ConversationMatched: {ConversationInquiry},
}

// cancellationTransitions lists every allowed (from → to) pair for the
// cancellation sub-state.  A resolved request (cancelled/rejected)
// resets to none before a new one may be opened.
var cancellationTransitions = map[CancellationStatus][]CancellationStatus{
	CancellationNone:      {CancellationPending},
	CancellationPending:   {CancellationCancelled, CancellationRejected},
	CancellationCancelled: {CancellationNone},
	CancellationRejected:  {CancellationNone, CancellationPending},
}

// ParseListingStatus converts a raw string to a ListingStatus,
// returning an error for unknown values.
func ParseListingStatus(s string) (ListingStatus, error) {
	st := ListingStatus(s)
	switch st {
	case ListingOpen, ListingMatched, ListingClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown listing status %q", s)
}

// ParseApplicationStatus converts a raw string to an ApplicationStatus.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected, ApplicationCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// ParseConversationType converts a raw string to a ConversationType.
func ParseConversationType(s string) (ConversationType, error) {
	st := ConversationType(s)
	switch st {
	case ConversationInquiry, ConversationPending, ConversationMatched:
		return st, nil
	}
	return "", fmt.Errorf("unknown conversation type %q", s)
}

// ParseCancellationStatus converts a raw string to a CancellationStatus.
// "escalated" parses successfully even though nothing produces it.
func ParseCancellationStatus(s string) (CancellationStatus, error) {
	st := CancellationStatus(s)
	switch st {
	case CancellationNone, CancellationPending, CancellationCancelled, CancellationRejected, CancellationEscalated:
		return st, nil
	}
	return "", fmt.Errorf("unknown cancellation status %q", s)
}

// ListingTransitionAllowed reports whether a listing may move from → to.
func ListingTransitionAllowed(from, to ListingStatus) bool {
	return contains(listingTransitions[from], to)
}

// ApplicationTransitionAllowed reports whether an application may move
// from → to.
func ApplicationTransitionAllowed(from, to ApplicationStatus) bool {
	return contains(applicationTransitions[from], to)
}

// ConversationTransitionAllowed reports whether a conversation type may
// move from → to.
func ConversationTransitionAllowed(from, to ConversationType) bool {
	return contains(conversationTransitions[from], to)
}

// CancellationTransitionAllowed reports whether the cancellation
// sub-state may move from → to.
func CancellationTransitionAllowed(from, to CancellationStatus) bool {
	return contains(cancellationTransitions[from], to)
}

func contains[T comparable](xs []T, want T) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
