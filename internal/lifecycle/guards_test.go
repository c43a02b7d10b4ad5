package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationLevelAtLeast(t *testing.T) {
	assert.True(t, LevelHost.AtLeast(LevelApplicant))
	assert.True(t, LevelHost.AtLeast(LevelHost))
	assert.True(t, LevelApplicant.AtLeast(LevelUnverified))
	assert.False(t, LevelUnverified.AtLeast(LevelApplicant))
	assert.False(t, LevelApplicant.AtLeast(LevelHost))
}

func TestCanCreateListing(t *testing.T) {
	assert.NoError(t, CanCreateListing(LevelHost))
	assert.ErrorIs(t, CanCreateListing(LevelApplicant), ErrVerificationRequired)
	assert.ErrorIs(t, CanCreateListing(LevelUnverified), ErrVerificationRequired)
}

func TestCanApply(t *testing.T) {
	assert.NoError(t, CanApply(LevelApplicant, ConversationInquiry))
	assert.NoError(t, CanApply(LevelHost, ConversationInquiry))
	assert.ErrorIs(t, CanApply(LevelUnverified, ConversationInquiry), ErrVerificationRequired)
	assert.ErrorIs(t, CanApply(LevelApplicant, ConversationPending), ErrWrongConversationType)
	assert.ErrorIs(t, CanApply(LevelApplicant, ConversationMatched), ErrWrongConversationType)
}

func TestCanAcceptApplication(t *testing.T) {
	require.NoError(t, CanAcceptApplication(ApplicationPending, ConversationPending, ListingOpen, 1))

	assert.ErrorIs(t,
		CanAcceptApplication(ApplicationRejected, ConversationPending, ListingOpen, 1),
		ErrApplicationResolved)
	assert.ErrorIs(t,
		CanAcceptApplication(ApplicationPending, ConversationInquiry, ListingOpen, 1),
		ErrWrongConversationType)
	assert.ErrorIs(t,
		CanAcceptApplication(ApplicationPending, ConversationPending, ListingMatched, 1),
		ErrListingNotOpen)
	assert.ErrorIs(t,
		CanAcceptApplication(ApplicationPending, ConversationPending, ListingOpen, 0),
		ErrNoSlots)
}

func TestCanResolveApplication(t *testing.T) {
	assert.NoError(t, CanResolveApplication(ApplicationPending, ApplicationRejected))
	assert.NoError(t, CanResolveApplication(ApplicationPending, ApplicationCancelled))

	for _, terminal := range []ApplicationStatus{ApplicationAccepted, ApplicationRejected, ApplicationCancelled} {
		assert.ErrorIs(t, CanResolveApplication(terminal, ApplicationRejected), ErrApplicationResolved,
			"from %s", terminal)
	}
}

func TestCanRequestCancellation(t *testing.T) {
	assert.NoError(t, CanRequestCancellation(ConversationMatched, CancellationNone, "changed plans"))
	assert.NoError(t, CanRequestCancellation(ConversationMatched, CancellationRejected, "second try"))

	assert.ErrorIs(t, CanRequestCancellation(ConversationInquiry, CancellationNone, "x"), ErrWrongConversationType)
	assert.ErrorIs(t, CanRequestCancellation(ConversationPending, CancellationNone, "x"), ErrWrongConversationType)
	assert.ErrorIs(t, CanRequestCancellation(ConversationMatched, CancellationPending, "x"), ErrCancellationPending)
	assert.ErrorIs(t, CanRequestCancellation(ConversationMatched, CancellationCancelled, "x"), ErrCancellationPending)
	assert.ErrorIs(t, CanRequestCancellation(ConversationMatched, CancellationNone, ""), ErrReasonRequired)
	assert.ErrorIs(t, CanRequestCancellation(ConversationMatched, CancellationNone, "   "), ErrReasonRequired)
}

func TestCanRespondCancellation(t *testing.T) {
	const requester, counterpart = uint64(7), uint64(8)

	assert.NoError(t, CanRespondCancellation(CancellationPending, requester, counterpart))
	assert.ErrorIs(t, CanRespondCancellation(CancellationPending, requester, requester), ErrOwnRequest)
	assert.ErrorIs(t, CanRespondCancellation(CancellationNone, requester, counterpart), ErrNoCancellationPending)
	assert.ErrorIs(t, CanRespondCancellation(CancellationRejected, requester, counterpart), ErrNoCancellationPending)
}

func TestCanConfirmHandoff(t *testing.T) {
	assert.NoError(t, CanConfirmHandoff(ConversationMatched))
	assert.ErrorIs(t, CanConfirmHandoff(ConversationInquiry), ErrWrongConversationType)
	assert.ErrorIs(t, CanConfirmHandoff(ConversationPending), ErrWrongConversationType)
}
