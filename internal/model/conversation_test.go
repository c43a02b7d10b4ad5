package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversationParticipants(t *testing.T) {
	cv := &Conversation{HostID: 1, GuestID: 2}

	assert.True(t, cv.Participant(1))
	assert.True(t, cv.Participant(2))
	assert.False(t, cv.Participant(3))

	assert.Equal(t, uint64(2), cv.Counterpart(1))
	assert.Equal(t, uint64(1), cv.Counterpart(2))
}

func TestConversationBothConfirmed(t *testing.T) {
	now := time.Now()
	cv := &Conversation{}
	assert.False(t, cv.BothConfirmed())

	cv.HostConfirmedAt = &now
	assert.False(t, cv.BothConfirmed())

	cv.GuestConfirmedAt = &now
	assert.True(t, cv.BothConfirmed())
}

func TestListingExpired(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Listing{Status: "open", EventDate: past}).Expired(now))
	assert.False(t, (&Listing{Status: "open", EventDate: future}).Expired(now))
	// only open listings are reported as expired
	assert.False(t, (&Listing{Status: "matched", EventDate: past}).Expired(now))
	assert.False(t, (&Listing{Status: "closed", EventDate: past}).Expired(now))
}
