package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pekoMaster/ticketticket/internal/model"
)

var (
	host  = Actor{ID: 1, Role: "USER", Level: LevelHost}
	guest = Actor{ID: 2, Role: "USER", Level: LevelApplicant}
	other = Actor{ID: 3, Role: "USER", Level: LevelHost}
	admin = Actor{ID: 99, Role: "ADMIN", Level: LevelUnverified}
)

func TestAllowListing(t *testing.T) {
	l := &model.Listing{ID: 10, HostID: host.ID}

	assert.True(t, AllowListing(host, l, ActionEdit))
	assert.True(t, AllowListing(host, l, ActionClose))
	assert.False(t, AllowListing(guest, l, ActionEdit))
	assert.False(t, AllowListing(other, l, ActionClose))
	assert.True(t, AllowListing(admin, l, ActionEdit))
	assert.True(t, AllowListing(admin, l, ActionClose))
}

func TestAllowConversationParticipantsOnly(t *testing.T) {
	cv := &model.Conversation{ID: 20, HostID: host.ID, GuestID: guest.ID}

	for _, a := range []Actor{host, guest} {
		assert.True(t, AllowConversation(a, cv, ActionView))
		assert.True(t, AllowConversation(a, cv, ActionMessage))
		assert.True(t, AllowConversation(a, cv, ActionCancelRequest))
		assert.True(t, AllowConversation(a, cv, ActionConfirm))
	}
	for _, action := range []Action{ActionView, ActionMessage, ActionCancelRequest, ActionConfirm} {
		assert.False(t, AllowConversation(other, cv, action), "outsider allowed %s", action)
	}
	// admins can inspect a conversation but never act inside it
	assert.True(t, AllowConversation(admin, cv, ActionView))
	assert.False(t, AllowConversation(admin, cv, ActionMessage))
	assert.False(t, AllowConversation(admin, cv, ActionCancelRequest))
}

func TestAllowApplicationSides(t *testing.T) {
	l := &model.Listing{ID: 10, HostID: host.ID}
	app := &model.Application{ID: 30, ListingID: l.ID, GuestID: guest.ID}

	assert.True(t, AllowApplication(host, app, l, ActionAccept))
	assert.True(t, AllowApplication(host, app, l, ActionReject))
	assert.False(t, AllowApplication(host, app, l, ActionWithdraw))

	assert.True(t, AllowApplication(guest, app, l, ActionWithdraw))
	assert.False(t, AllowApplication(guest, app, l, ActionAccept))
	assert.False(t, AllowApplication(guest, app, l, ActionReject))

	assert.True(t, AllowApplication(host, app, l, ActionView))
	assert.True(t, AllowApplication(guest, app, l, ActionView))
	assert.False(t, AllowApplication(other, app, l, ActionView))

	assert.True(t, AllowApplication(admin, app, l, ActionAccept))
}
