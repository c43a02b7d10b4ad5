package repository

import (
	"context"
	"database/sql"

	"github.com/pekoMaster/ticketticket/internal/model"
)

// NotificationRepo manages in-app notification rows.  All inserts are
// best effort: callers log failures and never let them fail the
// request that produced the notification.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo constructs a NotificationRepo with the given DB handle.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a notification row.
func (r *NotificationRepo) Create(ctx context.Context, userID uint64, kind, payload string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO notifications (user_id, kind, payload) VALUES (?, ?, ?)",
		userID, kind, payload)
	return err
}

// ListForUser returns a user's notifications newest first.  When
// unreadOnly is set, already-read rows are skipped.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := "SELECT id, user_id, kind, payload, read_at, created_at FROM notifications WHERE user_id = ?"
	if unreadOnly {
		q += " AND read_at IS NULL"
	}
	q += " ORDER BY id DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Payload, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead stamps read_at on a user's notification.  Marking an
// already-read notification is a no-op.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET read_at=NOW() WHERE id=? AND user_id=? AND read_at IS NULL",
		id, userID)
	return err
}
