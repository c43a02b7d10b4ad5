package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEvent(t *testing.T) {
	ev := NotificationEvent{
		Kind:           KindApplicationAccepted,
		ListingID:      10,
		ConversationID: 20,
		ApplicationID:  30,
		ActorID:        1,
		RecipientID:    2,
		EventName:      "Winter Tour Final",
		Detail:         "seat A-12",
		OccurredAt:     "2026-08-31T12:00:00Z",
	}
	line := FormatEvent(ev)

	assert.Contains(t, line, "application.accepted")
	assert.Contains(t, line, "listing=10")
	assert.Contains(t, line, "recipient=2")
	assert.Contains(t, line, `"Winter Tour Final"`)
	assert.Contains(t, line, "2026-08-31T12:00:00Z")
}

func TestNotificationEventJSONOmitsEmpty(t *testing.T) {
	ev := NotificationEvent{Kind: KindListingCreated, ListingID: 5, OccurredAt: "2026-08-31T12:00:00Z"}
	bs, err := json.Marshal(ev)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(bs, &m))
	assert.Equal(t, "listing.created", m["kind"])
	assert.Equal(t, float64(5), m["listing_id"])
	_, hasRecipient := m["recipient_id"]
	assert.False(t, hasRecipient)
	_, hasConv := m["conversation_id"]
	assert.False(t, hasConv)
}
