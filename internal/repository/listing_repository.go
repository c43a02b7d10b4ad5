// This file contains data access logic for listings.  A listing is the
// host-side offer guests apply to; its status column and slot counters
// are the anchor of the matching state machine, so every status flip
// here is a conditional UPDATE that re-checks the expected prior state.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pekoMaster/ticketticket/internal/model"
)

// ListingRepo manages persistence for listings.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo constructs a ListingRepo with the given DB handle.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.  Use this method to
// obtain a *sql.DB when you need fine-grained transaction control.
func (r *ListingRepo) DB() *sql.DB { return r.db }

const listingCols = `id, host_id, event_name, event_date, venue, meeting_time, meeting_location,
	ticket_type, ticket_source, seat_grade, ticket_count_type, total_slots, available_slots,
	status, exchange_target_event, exchange_target_grade, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner, l *model.Listing) error {
	return row.Scan(&l.ID, &l.HostID, &l.EventName, &l.EventDate, &l.Venue,
		&l.MeetingTime, &l.MeetingLocation, &l.TicketType, &l.TicketSource,
		&l.SeatGrade, &l.TicketCountType, &l.TotalSlots, &l.AvailableSlots,
		&l.Status, &l.ExchangeTargetEvent, &l.ExchangeTargetGrade, &l.Description,
		&l.CreatedAt, &l.UpdatedAt)
}

// Create inserts a new listing and reads the row back to populate the
// generated ID and DB-default fields (status, timestamps).  New
// listings always start open with all slots available.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	const q = `INSERT INTO listings (host_id, event_name, event_date, venue, meeting_time,
		meeting_location, ticket_type, ticket_source, seat_grade, ticket_count_type,
		total_slots, available_slots, exchange_target_event, exchange_target_grade, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, l.HostID, l.EventName, l.EventDate, l.Venue,
		l.MeetingTime, l.MeetingLocation, l.TicketType, l.TicketSource, l.SeatGrade,
		l.TicketCountType, l.TotalSlots, l.TotalSlots, l.ExchangeTargetEvent,
		l.ExchangeTargetGrade, l.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return scanListing(r.db.QueryRowContext(ctx,
		"SELECT "+listingCols+" FROM listings WHERE id = ?", l.ID), l)
}

// GetByID retrieves a listing by its ID.  It returns ErrNotFound when
// there is no matching row.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (*model.Listing, error) {
	var l model.Listing
	err := scanListing(r.db.QueryRowContext(ctx,
		"SELECT "+listingCols+" FROM listings WHERE id = ?", id), &l)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByIDTx is GetByID inside an existing transaction, locking the row
// FOR UPDATE so the business event that follows is serialized per
// listing.
func (r *ListingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Listing, error) {
	var l model.Listing
	err := scanListing(tx.QueryRowContext(ctx,
		"SELECT "+listingCols+" FROM listings WHERE id = ? FOR UPDATE", id), &l)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListOpen returns open listings newest first, optionally filtered by
// event name (substring) and ticket type.  Limit is capped at 100.
func (r *ListingRepo) ListOpen(ctx context.Context, event, ticketType string, limit, offset int) ([]model.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := "SELECT " + listingCols + " FROM listings WHERE status = 'open'"
	args := []any{}
	if s := strings.TrimSpace(event); s != "" {
		q += " AND event_name LIKE ?"
		args = append(args, "%"+s+"%")
	}
	if s := strings.TrimSpace(ticketType); s != "" {
		q += " AND ticket_type = ?"
		args = append(args, s)
	}
	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListByHost returns all of a host's listings newest first together
// with the count of pending applications per listing.
func (r *ListingRepo) ListByHost(ctx context.Context, hostID uint64) ([]model.Listing, map[uint64]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingCols+" FROM listings WHERE host_id = ? ORDER BY id DESC", hostID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var out []model.Listing
	for rows.Next() {
		var l model.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	counts := make(map[uint64]int, len(out))
	cRows, err := r.db.QueryContext(ctx,
		`SELECT listing_id, COUNT(*) FROM applications a
		 JOIN listings l ON l.id = a.listing_id
		 WHERE l.host_id = ? AND a.status = 'pending' GROUP BY listing_id`, hostID)
	if err != nil {
		return nil, nil, err
	}
	defer cRows.Close()
	for cRows.Next() {
		var id uint64
		var n int
		if err := cRows.Scan(&id, &n); err != nil {
			return nil, nil, err
		}
		counts[id] = n
	}
	return out, counts, cRows.Err()
}

// CountActiveForEvent counts a host's non-closed listings for the same
// event name.  Used to enforce the per-event listing cap.
func (r *ListingRepo) CountActiveForEvent(ctx context.Context, hostID uint64, eventName string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM listings WHERE host_id = ? AND event_name = ? AND status <> 'closed'",
		hostID, eventName).Scan(&n)
	return n, err
}

// UpdateOpenFields edits the mutable fields of a listing while it is
// still open.  Zero rows affected with an existing row means the
// listing left the open state; that is reported as ErrConflict.
func (r *ListingRepo) UpdateOpenFields(ctx context.Context, l *model.Listing) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET event_name=?, event_date=?, venue=?, meeting_time=?,
		 meeting_location=?, ticket_source=?, seat_grade=?, exchange_target_event=?,
		 exchange_target_grade=?, description=?
		 WHERE id=? AND host_id=? AND status='open'`,
		l.EventName, l.EventDate, l.Venue, l.MeetingTime, l.MeetingLocation,
		l.TicketSource, l.SeatGrade, l.ExchangeTargetEvent, l.ExchangeTargetGrade,
		l.Description, l.ID, l.HostID)
	if err != nil {
		return err
	}
	return requireRow(ctx, r.db, res, "SELECT EXISTS(SELECT 1 FROM listings WHERE id=?)", l.ID)
}

// CloseIfOpen closes an open listing.  A matched listing cannot be
// closed by its host; the match has to be dissolved first.
func (r *ListingRepo) CloseIfOpen(ctx context.Context, id, hostID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE listings SET status='closed' WHERE id=? AND host_id=? AND status='open'",
		id, hostID)
	if err != nil {
		return err
	}
	return requireRow(ctx, r.db, res, "SELECT EXISTS(SELECT 1 FROM listings WHERE id=? AND host_id=?)", id, hostID)
}

// ForceClose closes a listing regardless of state.  Admin only.
func (r *ListingRepo) ForceClose(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE listings SET status='closed' WHERE id=? AND status <> 'closed'", id)
	if err != nil {
		return err
	}
	return requireRow(ctx, r.db, res, "SELECT EXISTS(SELECT 1 FROM listings WHERE id=?)", id)
}

// MatchTx flips an open listing to matched and consumes one slot.
// The WHERE clause is the accept-if-still-open guard: when a
// concurrent accept already matched the listing, zero rows are
// affected and ErrConflict tells the caller to roll back.
func (r *ListingRepo) MatchTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE listings SET status='matched', available_slots=available_slots-1
		 WHERE id=? AND status='open' AND available_slots > 0`, id)
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

// ReopenTx reverts a matched listing to open and restores the consumed
// slot, guarded on the matched status so only the current match can
// release it.
func (r *ListingRepo) ReopenTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE listings SET status='open', available_slots=LEAST(available_slots+1, total_slots)
		 WHERE id=? AND status='matched'`, id)
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

// requireRow maps a zero-rows-affected update onto ErrConflict or
// ErrNotFound by probing whether the target row exists at all.
func requireRow(ctx context.Context, db *sql.DB, res sql.Result, existsQuery string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := db.QueryRowContext(ctx, existsQuery, args...).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}
