package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoidOtherPendingTxReportsConversations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, guest_id, conversation_id FROM applications WHERE listing_id=? AND id<>? AND status='pending' FOR UPDATE")).
		WithArgs(uint64(10), uint64(30)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "guest_id", "conversation_id"}).
			AddRow(31, 3, 101).
			AddRow(32, 4, 102))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE applications SET status='rejected', resolved_at=NOW() WHERE id=? AND status='pending'")).
		WithArgs(uint64(31)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE applications SET status='rejected', resolved_at=NOW() WHERE id=? AND status='pending'")).
		WithArgs(uint64(32)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	voided, err := NewApplicationRepo(db).VoidOtherPendingTx(context.Background(), tx, 10, 30)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// The caller needs the conversation ids to drop each loser back to
	// inquiry and the guest ids to notify them.
	require.Len(t, voided, 2)
	assert.Equal(t, Voided{ApplicationID: 31, GuestID: 3, ConversationID: 101}, voided[0])
	assert.Equal(t, Voided{ApplicationID: 32, GuestID: 4, ConversationID: 102}, voided[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveTxConflictWhenAlreadyResolved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE applications SET status=?, resolved_at=NOW() WHERE id=? AND status='pending'")).
		WithArgs("rejected", uint64(30)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = NewApplicationRepo(db).ResolveTx(context.Background(), tx, 30, "rejected")
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
