// This file contains data access logic for applications.  All writes
// that participate in the accept/reject/withdraw business events carry
// a Tx variant; the status guard lives inside each UPDATE so resolved
// applications stay immutable even under concurrent requests.
package repository

import (
	"context"
	"database/sql"

	"github.com/pekoMaster/ticketticket/internal/model"
)

// ApplicationRepo manages persistence for applications.
type ApplicationRepo struct {
	db *sql.DB
}

// NewApplicationRepo constructs an ApplicationRepo with the given DB handle.
func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// DB exposes the underlying sql.DB for transaction control.
func (r *ApplicationRepo) DB() *sql.DB { return r.db }

const applicationCols = "id, listing_id, guest_id, conversation_id, status, message, resolved_at, created_at, updated_at"

func scanApplication(row rowScanner, a *model.Application) error {
	return row.Scan(&a.ID, &a.ListingID, &a.GuestID, &a.ConversationID, &a.Status,
		&a.Message, &a.ResolvedAt, &a.CreatedAt, &a.UpdatedAt)
}

// HasActive reports whether the guest already has a pending or
// accepted application for the listing.  Applying again while one is
// active is rejected.
func (r *ApplicationRepo) HasActive(ctx context.Context, listingID, guestID uint64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications
		 WHERE listing_id=? AND guest_id=? AND status IN ('pending','accepted'))`,
		listingID, guestID).Scan(&exists)
	return exists, err
}

// CreateTx inserts a pending application inside the apply transaction
// and reads the row back to populate defaults.
func (r *ApplicationRepo) CreateTx(ctx context.Context, tx *sql.Tx, a *model.Application) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO applications (listing_id, guest_id, conversation_id, message) VALUES (?, ?, ?, ?)",
		a.ListingID, a.GuestID, a.ConversationID, a.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return scanApplication(tx.QueryRowContext(ctx,
		"SELECT "+applicationCols+" FROM applications WHERE id = ?", a.ID), a)
}

// GetByID retrieves an application, ErrNotFound when missing.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (*model.Application, error) {
	var a model.Application
	err := scanApplication(r.db.QueryRowContext(ctx,
		"SELECT "+applicationCols+" FROM applications WHERE id = ?", id), &a)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByListing returns a listing's applications newest first.
func (r *ApplicationRepo) ListByListing(ctx context.Context, listingID uint64) ([]model.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+applicationCols+" FROM applications WHERE listing_id = ? ORDER BY id DESC", listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Application
	for rows.Next() {
		var a model.Application
		if err := scanApplication(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveTx moves a pending application into a terminal state.  The
// status='pending' guard makes terminal states immutable; losing the
// guard is reported as ErrConflict.
func (r *ApplicationRepo) ResolveTx(ctx context.Context, tx *sql.Tx, id uint64, to string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE applications SET status=?, resolved_at=NOW() WHERE id=? AND status='pending'",
		to, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// Voided identifies an application rejected as a side effect of the
// host accepting a competitor: the losing guest to notify and the
// conversation that has to fall back to inquiry.
type Voided struct {
	ApplicationID  uint64
	GuestID        uint64
	ConversationID uint64
}

// VoidOtherPendingTx rejects every other pending application on the
// listing when one is accepted.  The voided rows are returned so the
// caller can regress their conversations and notify the applicants
// who were not selected.
func (r *ApplicationRepo) VoidOtherPendingTx(ctx context.Context, tx *sql.Tx, listingID, acceptedID uint64) ([]Voided, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, guest_id, conversation_id FROM applications WHERE listing_id=? AND id<>? AND status='pending' FOR UPDATE",
		listingID, acceptedID)
	if err != nil {
		return nil, err
	}
	var voided []Voided
	for rows.Next() {
		var v Voided
		if err := rows.Scan(&v.ApplicationID, &v.GuestID, &v.ConversationID); err != nil {
			rows.Close()
			return nil, err
		}
		voided = append(voided, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, v := range voided {
		if _, err := tx.ExecContext(ctx,
			"UPDATE applications SET status='rejected', resolved_at=NOW() WHERE id=? AND status='pending'", v.ApplicationID); err != nil {
			return nil, err
		}
	}
	return voided, nil
}

// VoidAcceptedTx cancels the accepted application of a listing when a
// cancellation request is accepted and the match dissolves.
func (r *ApplicationRepo) VoidAcceptedTx(ctx context.Context, tx *sql.Tx, listingID, guestID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE applications SET status='cancelled', resolved_at=NOW() WHERE listing_id=? AND guest_id=? AND status='accepted'",
		listingID, guestID)
	return err
}
