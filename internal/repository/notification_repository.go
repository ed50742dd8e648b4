package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/taskhive/taskhive/internal/model"
)

// NotificationRepo persists in-app notifications.  Rows are created only
// by the notification engine and mutated only to flip is_read.
type NotificationRepo struct{ db *sql.DB }

// NewNotificationRepo constructs a NotificationRepo with the provided DB
// handle.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// CreateTx inserts a notification within an existing transaction.  A
// zero or unknown recipient id is logged and skipped without error: the
// triggering mutation must never roll back merely because a notification
// could not be attributed.
func (r *NotificationRepo) CreateTx(ctx context.Context, tx *sql.Tx, recipientID uint64, message, relatedURL string) error {
	if recipientID == 0 {
		log.Printf("notify: dropped notification without recipient: %q", message)
		return nil
	}
	var one int
	if err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE id=? LIMIT 1", recipientID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("notify: recipient %d not found, dropping: %q", recipientID, message)
			return nil
		}
		return err
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO notifications (recipient_id, message, related_url) VALUES (?,?,?)",
		recipientID, message, relatedURL)
	return err
}

// ListByUser returns a user's notifications newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Notification, error) {
	const q = `SELECT id, recipient_id, message, COALESCE(related_url,''), is_read, created_at
	           FROM notifications WHERE recipient_id=? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.RelatedURL, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id=? AND is_read=0",
		userID).Scan(&n)
	return n, err
}

// MarkRead flips one notification to read, but only if it belongs to the
// given user.  sql.ErrNoRows is returned when the row does not exist or
// belongs to someone else; the handler maps both to 404 to avoid leaking
// other users' notification ids.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read=1 WHERE id=? AND recipient_id=?",
		id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var isRead bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT is_read FROM notifications WHERE id=? AND recipient_id=? LIMIT 1",
			id, userID).Scan(&isRead); err != nil {
			return sql.ErrNoRows
		}
		// Already read; treat as success.
	}
	return nil
}

// MarkAllRead flips every unread notification of a user to read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read=1 WHERE recipient_id=? AND is_read=0", userID)
	return err
}
