package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationRepo(t *testing.T) (*NotificationRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewNotificationRepo(db), mock, db
}

func TestNotificationCreateTxSkipsZeroRecipient(t *testing.T) {
	repo, mock, db := newNotificationRepo(t)

	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)

	// No queries may run for recipient 0.
	require.NoError(t, repo.CreateTx(context.Background(), tx, 0, "orphan", ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReadWrongRecipient(t *testing.T) {
	repo, mock, _ := newNotificationRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE notifications SET is_read=1 WHERE id=? AND recipient_id=?`)).
		WithArgs(uint64(7), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT is_read FROM notifications WHERE id=? AND recipient_id=? LIMIT 1`)).
		WithArgs(uint64(7), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"is_read"}))

	err := repo.MarkRead(context.Background(), 7, 2)
	assert.ErrorIs(t, err, sql.ErrNoRows, "another user's notification reads as nonexistent")
}

func TestMarkReadAlreadyRead(t *testing.T) {
	repo, mock, _ := newNotificationRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE notifications SET is_read=1 WHERE id=? AND recipient_id=?`)).
		WithArgs(uint64(7), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT is_read FROM notifications WHERE id=? AND recipient_id=? LIMIT 1`)).
		WithArgs(uint64(7), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"is_read"}).AddRow(true))

	assert.NoError(t, repo.MarkRead(context.Background(), 7, 2))
}

func TestListByUser(t *testing.T) {
	repo, mock, _ := newNotificationRepo(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, recipient_id, message`).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "recipient_id", "message", "related_url", "is_read", "created_at"}).
			AddRow(9, 2, "@alice assigned you the task \"Ship it\"", "/v1/projects/3#task-7", false, now).
			AddRow(8, 2, "older", "", true, now))

	out, err := repo.ListByUser(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "/v1/projects/3#task-7", out[0].RelatedURL)
	assert.False(t, out[0].IsRead)
	assert.True(t, out[1].IsRead)
}
