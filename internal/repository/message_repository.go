package repository

import (
	"context"
	"database/sql"

	"github.com/pekoMaster/ticketticket/internal/model"
)

// MessageRepo manages persistence for chat messages.  System events
// are ordinary rows with message_type 'system' and a machine-readable
// system_kind; nothing downstream parses body text.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo constructs a MessageRepo with the given DB handle.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Create inserts a user message and populates its ID and timestamp.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, message_type, system_kind, body) VALUES (?, ?, 'user', '', ?)",
		m.ConversationID, m.SenderID, m.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.MessageType = model.MessageTypeUser
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM messages WHERE id = ?", m.ID).Scan(&m.CreatedAt)
}

// CreateSystemTx inserts a system message inside a state-transition
// transaction so the chat record commits atomically with the
// transition it describes.
func (r *MessageRepo) CreateSystemTx(ctx context.Context, tx *sql.Tx, conversationID uint64, kind, body string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, message_type, system_kind, body) VALUES (?, 0, 'system', ?, ?)",
		conversationID, kind, body)
	return err
}

// ListByConversation returns a conversation's messages oldest first.
// Limit is capped at 200; offset pages through history.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uint64, limit, offset int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, message_type, system_kind, body, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY id ASC LIMIT ? OFFSET ?`,
		conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.MessageType,
			&m.SystemKind, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
