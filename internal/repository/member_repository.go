package repository

import (
	"context"
	"database/sql"

	"github.com/taskhive/taskhive/internal/model"
)

// MemberRepo manages the project_members join table.  A membership row
// grants a non-owner user access to a project; the owner never gets a
// row here.
type MemberRepo struct{ db *sql.DB }

// NewMemberRepo constructs a MemberRepo with the provided DB handle.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// IsMember reports whether a membership row exists for (project, user).
func (r *MemberRepo) IsMember(ctx context.Context, projectID, userID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM project_members WHERE project_id=? AND user_id=? LIMIT 1",
		projectID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AddTx inserts a membership row within an existing transaction, so the
// row and its member-added notification commit or roll back together.
// Inserting an existing pair is a no-op.
func (r *MemberRepo) AddTx(ctx context.Context, tx *sql.Tx, projectID, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO project_members (project_id, user_id) VALUES (?,?)",
		projectID, userID)
	return err
}

// Remove deletes a membership row.  Removing a pair that does not exist
// returns sql.ErrNoRows so the handler can tell the caller nothing
// happened.
func (r *MemberRepo) Remove(ctx context.Context, projectID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM project_members WHERE project_id=? AND user_id=?",
		projectID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns all members of a project ordered by username.
func (r *MemberRepo) List(ctx context.Context, projectID uint64) ([]model.Member, error) {
	const q = `SELECT m.project_id, m.user_id, u.username, u.email
	           FROM project_members m
	           JOIN users u ON u.id = m.user_id
	           WHERE m.project_id = ?
	           ORDER BY u.username`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Username, &m.Email); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
