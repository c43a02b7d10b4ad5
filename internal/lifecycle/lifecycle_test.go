package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingTransitions(t *testing.T) {
	cases := []struct {
		from, to ListingStatus
		want     bool
	}{
		{ListingOpen, ListingMatched, true},
		{ListingOpen, ListingClosed, true},
		{ListingMatched, ListingOpen, true},
		{ListingMatched, ListingClosed, true},
		{ListingClosed, ListingOpen, false},
		{ListingClosed, ListingMatched, false},
		{ListingOpen, ListingOpen, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ListingTransitionAllowed(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestApplicationTransitionsTerminal(t *testing.T) {
	for _, from := range []ApplicationStatus{ApplicationAccepted, ApplicationRejected, ApplicationCancelled} {
		for _, to := range []ApplicationStatus{ApplicationPending, ApplicationAccepted, ApplicationRejected, ApplicationCancelled} {
			assert.False(t, ApplicationTransitionAllowed(from, to),
				"terminal state %s must not transition to %s", from, to)
		}
	}
	assert.True(t, ApplicationTransitionAllowed(ApplicationPending, ApplicationAccepted))
	assert.True(t, ApplicationTransitionAllowed(ApplicationPending, ApplicationRejected))
	assert.True(t, ApplicationTransitionAllowed(ApplicationPending, ApplicationCancelled))
}

func TestConversationTransitions(t *testing.T) {
	assert.True(t, ConversationTransitionAllowed(ConversationInquiry, ConversationPending))
	assert.True(t, ConversationTransitionAllowed(ConversationPending, ConversationMatched))
	assert.True(t, ConversationTransitionAllowed(ConversationPending, ConversationInquiry))
	// matched only unwinds through an accepted cancellation
	assert.True(t, ConversationTransitionAllowed(ConversationMatched, ConversationInquiry))
	assert.False(t, ConversationTransitionAllowed(ConversationMatched, ConversationPending))
	assert.False(t, ConversationTransitionAllowed(ConversationInquiry, ConversationMatched))
}

func TestCancellationTransitions(t *testing.T) {
	assert.True(t, CancellationTransitionAllowed(CancellationNone, CancellationPending))
	assert.True(t, CancellationTransitionAllowed(CancellationPending, CancellationCancelled))
	assert.True(t, CancellationTransitionAllowed(CancellationPending, CancellationRejected))
	// a rejected request can be re-opened later
	assert.True(t, CancellationTransitionAllowed(CancellationRejected, CancellationPending))
	assert.False(t, CancellationTransitionAllowed(CancellationCancelled, CancellationPending))
	assert.False(t, CancellationTransitionAllowed(CancellationNone, CancellationCancelled))
}

func TestParseRejectsUnknownValues(t *testing.T) {
	_, err := ParseListingStatus("archived")
	assert.Error(t, err)
	_, err = ParseApplicationStatus("")
	assert.Error(t, err)
	_, err = ParseConversationType("chat")
	assert.Error(t, err)
	_, err = ParseCancellationStatus("maybe")
	assert.Error(t, err)

	st, err := ParseListingStatus("open")
	assert.NoError(t, err)
	assert.Equal(t, ListingOpen, st)
}
