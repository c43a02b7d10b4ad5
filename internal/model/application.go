package model

import "time"

// Application records a guest's formal request to join a listing.
// Applications are always created out of an inquiry conversation and
// follow the pending → accepted | rejected | cancelled lifecycle.
// Terminal states are immutable except for admin override.
//
// Fields:
//  ID             – primary key identifier.
//  ListingID      – listing being applied to.
//  GuestID        – applying user.
//  ConversationID – conversation the application was made from.
//  Status         – pending, accepted, rejected or cancelled.
//  Message        – optional note from the guest to the host.
//  ResolvedAt     – when the application left pending (nullable).
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Application struct {
    ID             uint64     // applications.id
    ListingID      uint64     // applications.listing_id
    GuestID        uint64     // applications.guest_id
    ConversationID uint64     // applications.conversation_id
    Status         string     // applications.status
    Message        string     // applications.message
    ResolvedAt     *time.Time // applications.resolved_at (nullable)
    CreatedAt      time.Time  // applications.created_at
    UpdatedAt      time.Time  // applications.updated_at
}
