package repository

import (
	"context"
	"database/sql"

	"github.com/taskhive/taskhive/internal/model"
)

// CommentRepo encapsulates database queries for task comments.
type CommentRepo struct{ db *sql.DB }

// NewCommentRepo constructs a CommentRepo with the provided DB handle.
func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

// CreateTx inserts a comment within an existing transaction, so the
// comment and the notifications it triggers commit or roll back together.
// The generated ID and CreatedAt are populated on the record.
func (r *CommentRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Comment) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO comments (task_id, author_id, body) VALUES (?,?,?)",
		c.TaskID, c.AuthorID, c.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at FROM comments WHERE id=?", c.ID).Scan(&c.CreatedAt)
}

// ListByTask returns a task's comments oldest first, with the author's
// username joined in for display.
func (r *CommentRepo) ListByTask(ctx context.Context, taskID uint64) ([]model.Comment, error) {
	const q = `SELECT c.id, c.task_id, c.author_id, u.username, c.body, c.created_at
	           FROM comments c
	           JOIN users u ON u.id = c.author_id
	           WHERE c.task_id = ?
	           ORDER BY c.created_at, c.id`
	rows, err := r.db.QueryContext(ctx, q, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.AuthorUsername, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
