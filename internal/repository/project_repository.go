package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskhive/taskhive/internal/model"
)

// ProjectRepo encapsulates all database queries related to projects,
// including the transactional cascade that removes a project's subtree.
type ProjectRepo struct{ db *sql.DB }

// NewProjectRepo constructs a ProjectRepo with the provided DB handle.
func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

// Create inserts a new project.  On success the ID and CreatedAt fields
// are populated.  The owner is fixed at creation and never updated.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (owner_id, name, description) VALUES (?,?,?)",
		p.OwnerID, p.Name, p.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM projects WHERE id=?", p.ID).Scan(&p.CreatedAt)
}

// GetByID fetches a project by id.  Returns ErrProjectNotFound when no
// row exists.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	var p model.Project
	err := r.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, description, created_at FROM projects WHERE id=?",
		id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProjectNotFound
	}
	return p, err
}

// ListAccessible returns every project the user owns or is a member of,
// newest first.  The owner check and the membership join are ORed because
// owners do not get a membership row; DISTINCT collapses projects where a
// user somehow matches both.
func (r *ProjectRepo) ListAccessible(ctx context.Context, userID uint64) ([]model.Project, error) {
	const q = `SELECT DISTINCT p.id, p.owner_id, p.name, p.description, p.created_at
	           FROM projects p
	           LEFT JOIN project_members m ON m.project_id = p.id
	           WHERE p.owner_id = ? OR m.user_id = ?
	           ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update changes a project's name and description.  The owner column is
// deliberately not touched.  sql.ErrNoRows is returned when nothing
// matched.
func (r *ProjectRepo) Update(ctx context.Context, id uint64, name, description string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE projects SET name=?, description=? WHERE id=?",
		name, description, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM projects WHERE id=? LIMIT 1", id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProjectNotFound
			}
			return err
		}
	}
	return nil
}

// DeleteCascade removes a project and its whole subtree (task comments,
// task files, tasks, project files, membership rows) inside one
// transaction, so either the entire subtree disappears or none of it
// does.  It returns the storage names of every file row it deleted so the
// caller can remove the bytes from disk after the commit; disk cleanup is
// intentionally outside the transaction.
func (r *ProjectRepo) DeleteCascade(ctx context.Context, id uint64) (storageNames []string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	// Verify the project exists before deleting anything.
	var one int
	if err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM projects WHERE id=? LIMIT 1", id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrProjectNotFound
		}
		return nil, err
	}

	// Collect file storage names for both task-attached and
	// project-attached files while the rows still exist.
	rows, err := tx.QueryContext(ctx,
		`SELECT f.storage_name FROM files f
		 LEFT JOIN tasks t ON t.id = f.task_id
		 WHERE f.project_id = ? OR t.project_id = ?`, id, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		storageNames = append(storageNames, name)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Children first: comments and files hanging off the project's tasks.
	if _, err = tx.ExecContext(ctx,
		`DELETE c FROM comments c JOIN tasks t ON t.id = c.task_id WHERE t.project_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE f FROM files f JOIN tasks t ON t.id = f.task_id WHERE t.project_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM files WHERE project_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return storageNames, nil
}
