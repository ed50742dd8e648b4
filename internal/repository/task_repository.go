package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskhive/taskhive/internal/model"
)

// TaskRepo encapsulates all database queries related to tasks, including
// the transactional cascade that removes a task's comments and files.
type TaskRepo struct{ db *sql.DB }

// NewTaskRepo constructs a TaskRepo with the provided DB handle.
func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

const taskColumns = `id, project_id, creator_id, assignee_id, title, description, status, priority, due_date, created_at`

func scanTask(row interface{ Scan(...interface{}) error }) (model.Task, error) {
	var (
		t        model.Task
		assignee sql.NullInt64
		due      sql.NullTime
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.CreatorID, &assignee,
		&t.Title, &t.Description, &t.Status, &t.Priority, &due, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	if assignee.Valid {
		id := uint64(assignee.Int64)
		t.AssigneeID = &id
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

// CreateTx inserts a new task within the scope of an existing
// transaction, so the row and its assignment notification commit or roll
// back together.  The generated ID and CreatedAt are populated on the
// provided record.  Status and priority are assumed validated by the
// caller against the enum domains.
func (r *TaskRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Task) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (project_id, creator_id, assignee_id, title, description, status, priority, due_date)
		 VALUES (?,?,?,?,?,?,?,?)`,
		t.ProjectID, t.CreatorID, nullableID(t.AssigneeID), t.Title, t.Description,
		t.Status, t.Priority, t.DueDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at FROM tasks WHERE id=?", t.ID).Scan(&t.CreatedAt)
}

// GetByID fetches a task by id.  Returns ErrTaskNotFound when no row
// exists.
func (r *TaskRepo) GetByID(ctx context.Context, id uint64) (model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id=?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrTaskNotFound
	}
	return t, err
}

// ListByProject returns a project's tasks ordered the way the board
// renders them: open statuses first, higher priority first, newest first.
func (r *TaskRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE project_id=?
	           ORDER BY FIELD(status,'TODO','IN_PROGRESS','DONE','ARCHIVED'),
	                    FIELD(priority,'HIGH','MEDIUM','LOW'),
	                    created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTx rewrites a task's mutable fields within an existing
// transaction.  The project, creator and created_at columns are fixed for
// the life of the row.
func (r *TaskRepo) UpdateTx(ctx context.Context, tx *sql.Tx, t *model.Task) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET title=?, description=?, status=?, priority=?, due_date=?, assignee_id=?
		 WHERE id=?`,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, nullableID(t.AssigneeID), t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM tasks WHERE id=? LIMIT 1", t.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTaskNotFound
			}
			return err
		}
	}
	return nil
}

// UpdateStatus changes only the status column.  The caller must have
// validated the value against the enum domain already; this is the
// storage half of the quick status update.
func (r *TaskRepo) UpdateStatus(ctx context.Context, id uint64, status model.TaskStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM tasks WHERE id=? LIMIT 1", id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTaskNotFound
			}
			return err
		}
	}
	return nil
}

// DeleteCascade removes a task together with its comments and files in
// one transaction and returns the storage names of the deleted files so
// the caller can remove the bytes from disk after the commit.
func (r *TaskRepo) DeleteCascade(ctx context.Context, id uint64) (storageNames []string, err error) {
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

	var one int
	if err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM tasks WHERE id=? LIMIT 1", id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrTaskNotFound
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT storage_name FROM files WHERE task_id=?", id)
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

	if _, err = tx.ExecContext(ctx, "DELETE FROM comments WHERE task_id=?", id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM files WHERE task_id=?", id); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM tasks WHERE id=?", id); err != nil {
		return nil, err
	}
	return storageNames, nil
}

// CountByStatus returns the number of tasks per status for one project.
// Statuses with no tasks are present with a zero count so report tables
// always show the full enum.
func (r *TaskRepo) CountByStatus(ctx context.Context, projectID uint64) (map[model.TaskStatus]int, error) {
	out := map[model.TaskStatus]int{}
	for _, s := range model.TaskStatuses() {
		out[s] = 0
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM tasks WHERE project_id=? GROUP BY status", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			s model.TaskStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

// CountByPriority returns the number of tasks per priority for one
// project, zero-filled like CountByStatus.
func (r *TaskRepo) CountByPriority(ctx context.Context, projectID uint64) (map[model.TaskPriority]int, error) {
	out := map[model.TaskPriority]int{}
	for _, p := range model.TaskPriorities() {
		out[p] = 0
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT priority, COUNT(*) FROM tasks WHERE project_id=? GROUP BY priority", projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p model.TaskPriority
			n int
		)
		if err := rows.Scan(&p, &n); err != nil {
			return nil, err
		}
		out[p] = n
	}
	return out, rows.Err()
}

// nullableID maps a *uint64 to the driver-level value for a nullable
// foreign key column.
func nullableID(id *uint64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
