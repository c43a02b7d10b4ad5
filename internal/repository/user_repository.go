package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/pekoMaster/ticketticket/internal/model"
	"github.com/pekoMaster/ticketticket/internal/utils"
)

// UserRepo manages persistence for users.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *UserRepo) DB() *sql.DB { return r.db }

var ErrEmailExists = errors.New("email already exists")

const userCols = "id,email,password_hash,role,verification_level,email_verified_at,phone_verified_at,cancellation_count,is_active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.VerificationLevel,
		&u.EmailVerifiedAt, &u.PhoneVerifiedAt, &u.CancellationCount, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID.  New accounts always start
// as role USER at verification level unverified.
func (r *UserRepo) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, verification_level) VALUES (?,?,?,?)",
		email, hash, "USER", "unverified")
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// MarkEmailVerified sets the email verification timestamp and promotes
// an unverified user to applicant.  The level change is monotonic: a
// host re-verifying an email address keeps the host level.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified_at=COALESCE(email_verified_at, NOW()),
		 verification_level=IF(verification_level='unverified','applicant',verification_level)
		 WHERE id=?`, id)
	return err
}

// MarkPhoneVerified sets the phone verification timestamp and promotes
// the user to host.  Phone verification implies a verified email, so
// the promotion applies from any lower level.
func (r *UserRepo) MarkPhoneVerified(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET phone_verified_at=COALESCE(phone_verified_at, NOW()),
		 email_verified_at=COALESCE(email_verified_at, NOW()),
		 verification_level='host'
		 WHERE id=?`, id)
	return err
}

// IncrementCancellationCountTx bumps the cancellation counter on both
// participants of a dissolved match.  It runs inside the cancellation
// accept transaction so the counters move together with the state.
func (r *UserRepo) IncrementCancellationCountTx(ctx context.Context, tx *sql.Tx, userIDs ...uint64) error {
	for _, id := range userIDs {
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET cancellation_count=cancellation_count+1 WHERE id=?", id); err != nil {
			return err
		}
	}
	return nil
}

// List returns users ordered by creation, newest first, for the admin
// back-office.  Limit is capped at 200.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.VerificationLevel,
			&u.EmailVerifiedAt, &u.PhoneVerifiedAt, &u.CancellationCount, &u.IsActive,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetActive toggles the is_active flag; used by admins to deactivate
// abusive accounts.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// Row may exist with the flag already set; verify existence.
		var exists bool
		if qErr := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE id=?)", id).Scan(&exists); qErr == nil && !exists {
			return ErrNotFound
		}
	}
	return err
}
