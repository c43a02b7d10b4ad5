package model

import "time"

// Message is a single chat entry inside a conversation.  System
// events emitted by state transitions are stored as regular rows with
// message_type "system" and a machine-readable system_kind, so
// consumers never have to pattern-match on body text.
//
// Fields:
//  ID             – primary key identifier.
//  ConversationID – conversation the message belongs to.
//  SenderID       – author; zero for system messages.
//  MessageType    – user or system.
//  SystemKind     – event kind for system messages, empty otherwise.
//  Body           – message text.
//  CreatedAt      – creation timestamp.
// System message kinds.  Each kind corresponds to a state transition
// that posts a row into the conversation.
const (
    SystemUser                 = "" // regular user message
    SystemApplicationSubmitted = "application_submitted"
    SystemMatchConfirmed       = "match_confirmed"
    SystemCancelRequested      = "cancel_requested"
    SystemCancelAccepted       = "cancel_accepted"
    SystemCancelRejected       = "cancel_rejected"
)

// Message type discriminator values.
const (
    MessageTypeUser   = "user"
    MessageTypeSystem = "system"
)

type Message struct {
    ID             uint64    // messages.id
    ConversationID uint64    // messages.conversation_id
    SenderID       uint64    // messages.sender_id (0 = system)
    MessageType    string    // messages.message_type
    SystemKind     string    // messages.system_kind
    Body           string    // messages.body
    CreatedAt      time.Time // messages.created_at
}

// Notification is an in-app notification row.  Inserts are best
// effort; a failed insert is logged and never fails the request that
// produced it.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – recipient.
//  Kind      – event kind, mirrors queue event kinds.
//  Payload   – JSON payload with event details.
//  ReadAt    – when the user read it (nullable).
//  CreatedAt – creation timestamp.
type Notification struct {
    ID        uint64     // notifications.id
    UserID    uint64     // notifications.user_id
    Kind      string     // notifications.kind
    Payload   string     // notifications.payload (JSON)
    ReadAt    *time.Time // notifications.read_at (nullable)
    CreatedAt time.Time  // notifications.created_at
}
