// This file contains data access logic for conversations.  The
// conversation row carries three intertwined machines: the
// conversation type, the cancellation negotiation sub-state and the
// two handoff confirmations.  Every transition method repeats its
// state guard inside the UPDATE so concurrent writers serialize on the
// row instead of clobbering each other.
package repository

import (
	"context"
	"database/sql"

	"github.com/pekoMaster/ticketticket/internal/model"
)

// ConversationRepo manages persistence for conversations.
type ConversationRepo struct {
	db *sql.DB
}

// NewConversationRepo constructs a ConversationRepo with the given DB handle.
func NewConversationRepo(db *sql.DB) *ConversationRepo { return &ConversationRepo{db: db} }

// DB exposes the underlying sql.DB for transaction control.
func (r *ConversationRepo) DB() *sql.DB { return r.db }

const conversationCols = `id, listing_id, host_id, guest_id, conversation_type,
	cancellation_status, cancellation_requested_by, cancellation_reason,
	cancellation_requested_at, cancellation_expires_at, cancellation_responded_at,
	host_confirmed_at, guest_confirmed_at, matched_at, complete_deadline,
	created_at, updated_at`

func scanConversation(row rowScanner, cv *model.Conversation) error {
	return row.Scan(&cv.ID, &cv.ListingID, &cv.HostID, &cv.GuestID, &cv.ConversationType,
		&cv.CancellationStatus, &cv.CancellationRequestedBy, &cv.CancellationReason,
		&cv.CancellationRequestedAt, &cv.CancellationExpiresAt, &cv.CancellationRespondedAt,
		&cv.HostConfirmedAt, &cv.GuestConfirmedAt, &cv.MatchedAt, &cv.CompleteDeadline,
		&cv.CreatedAt, &cv.UpdatedAt)
}

// GetOrCreate returns the conversation for (listing, host, guest),
// creating it as an inquiry on first contact.  The (listing_id,
// guest_id) unique key makes the create idempotent: a concurrent
// insert loses on the key and the loser re-reads the winner's row.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, listingID, hostID, guestID uint64) (*model.Conversation, bool, error) {
	var cv model.Conversation
	err := scanConversation(r.db.QueryRowContext(ctx,
		"SELECT "+conversationCols+" FROM conversations WHERE listing_id=? AND guest_id=?",
		listingID, guestID), &cv)
	if err == nil {
		return &cv, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO conversations (listing_id, host_id, guest_id) VALUES (?, ?, ?)",
		listingID, hostID, guestID)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	err = scanConversation(r.db.QueryRowContext(ctx,
		"SELECT "+conversationCols+" FROM conversations WHERE listing_id=? AND guest_id=?",
		listingID, guestID), &cv)
	if err != nil {
		return nil, false, err
	}
	return &cv, n > 0, nil
}

// GetByID retrieves a conversation, ErrNotFound when missing.
func (r *ConversationRepo) GetByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	var cv model.Conversation
	err := scanConversation(r.db.QueryRowContext(ctx,
		"SELECT "+conversationCols+" FROM conversations WHERE id = ?", id), &cv)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// GetByIDTx is GetByID inside a transaction with a FOR UPDATE lock,
// serializing the business events that race on the same conversation
// (accept vs cancel-request, double responds).
func (r *ConversationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Conversation, error) {
	var cv model.Conversation
	err := scanConversation(tx.QueryRowContext(ctx,
		"SELECT "+conversationCols+" FROM conversations WHERE id = ? FOR UPDATE", id), &cv)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// ListForUser returns every conversation the user participates in,
// most recently updated first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Conversation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+conversationCols+" FROM conversations WHERE host_id=? OR guest_id=? ORDER BY updated_at DESC",
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Conversation
	for rows.Next() {
		var cv model.Conversation
		if err := scanConversation(rows, &cv); err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

// SetTypeTx advances the conversation type from → to, guarded on the
// expected prior type.  Zero rows affected means a concurrent event
// already moved the conversation and the caller must roll back.
func (r *ConversationRepo) SetTypeTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE conversations SET conversation_type=? WHERE id=? AND conversation_type=?",
		to, id, from)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// MatchTx moves a pending conversation to matched, stamping matched_at
// and the informational 7-day auto-complete deadline.
func (r *ConversationRepo) MatchTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET conversation_type='matched', matched_at=NOW(),
		 complete_deadline=DATE_ADD(NOW(), INTERVAL 7 DAY)
		 WHERE id=? AND conversation_type='pending'`, id)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// RequestCancellationTx opens a cancellation request on a matched
// conversation.  The guard rejects a second request while one is
// outstanding; requested_at/expires_at are stamped in the same write.
func (r *ConversationRepo) RequestCancellationTx(ctx context.Context, tx *sql.Tx, id, requesterID uint64, reason string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET cancellation_status='pending', cancellation_requested_by=?,
		 cancellation_reason=?, cancellation_requested_at=NOW(),
		 cancellation_expires_at=DATE_ADD(NOW(), INTERVAL 48 HOUR), cancellation_responded_at=NULL
		 WHERE id=? AND conversation_type='matched' AND cancellation_status <> 'pending'`,
		requesterID, reason, id)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// AcceptCancellationTx dissolves the match: the conversation regresses
// to inquiry, both confirmations are cleared and the request is marked
// cancelled.  The requested_by/reason columns are kept as audit trail.
func (r *ConversationRepo) AcceptCancellationTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET conversation_type='inquiry', cancellation_status='cancelled',
		 cancellation_responded_at=NOW(), host_confirmed_at=NULL, guest_confirmed_at=NULL,
		 matched_at=NULL, complete_deadline=NULL
		 WHERE id=? AND conversation_type='matched' AND cancellation_status='pending'`, id)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// RejectCancellationTx declines the request; the conversation stays
// matched and the parties continue negotiating in chat.
func (r *ConversationRepo) RejectCancellationTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET cancellation_status='rejected', cancellation_responded_at=NOW()
		 WHERE id=? AND cancellation_status='pending'`, id)
	if err != nil {
		return err
	}
	return oneRowOrConflict(res)
}

// SetConfirmation sets or clears one party's handoff confirmation
// while the conversation is matched.  updated_at is assigned
// explicitly so a repeated confirm/unconfirm still counts as an
// affected row instead of looking like a lost guard.
func (r *ConversationRepo) SetConfirmation(ctx context.Context, id uint64, host, confirmed bool) (*model.Conversation, error) {
	col := "guest_confirmed_at"
	if host {
		col = "host_confirmed_at"
	}
	val := "NULL"
	if confirmed {
		val = "NOW()"
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE conversations SET "+col+"="+val+", updated_at=NOW() WHERE id=? AND conversation_type='matched'", id)
	if err != nil {
		return nil, err
	}
	if err := oneRowOrConflict(res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func oneRowOrConflict(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
