package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskhive/taskhive/internal/model"
)

// FileRepo encapsulates database queries for uploaded file records.  The
// physical bytes are owned by the storage package; this repo only tracks
// the rows.
type FileRepo struct{ db *sql.DB }

// NewFileRepo constructs a FileRepo with the provided DB handle.
func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{db: db} }

// Create inserts a file record.  Exactly one of TaskID/ProjectID must be
// set; upload handlers always bind a parent before calling this.
func (r *FileRepo) Create(ctx context.Context, f *model.File) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO files (uploader_id, task_id, project_id, storage_name, original_name)
		 VALUES (?,?,?,?,?)`,
		f.UploaderID, nullableID(f.TaskID), nullableID(f.ProjectID), f.StorageName, f.OriginalName)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT uploaded_at FROM files WHERE id=?", f.ID).Scan(&f.UploadedAt)
}

// GetByID fetches a file record by id.  Returns ErrFileNotFound when no
// row exists.
func (r *FileRepo) GetByID(ctx context.Context, id uint64) (model.File, error) {
	var (
		f       model.File
		task    sql.NullInt64
		project sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, uploader_id, task_id, project_id, storage_name, original_name, uploaded_at
		 FROM files WHERE id=?`, id).
		Scan(&f.ID, &f.UploaderID, &task, &project, &f.StorageName, &f.OriginalName, &f.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return f, ErrFileNotFound
	}
	if err != nil {
		return f, err
	}
	if task.Valid {
		v := uint64(task.Int64)
		f.TaskID = &v
	}
	if project.Valid {
		v := uint64(project.Int64)
		f.ProjectID = &v
	}
	return f, nil
}

// Delete removes a single file record.  The caller removes the bytes
// from disk after this succeeds.
func (r *FileRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileNotFound
	}
	return nil
}

// ListByTask returns a task's files, newest first.
func (r *FileRepo) ListByTask(ctx context.Context, taskID uint64) ([]model.File, error) {
	return r.list(ctx, "task_id=?", taskID)
}

// ListByProject returns files attached directly to a project (not via a
// task), newest first.
func (r *FileRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.File, error) {
	return r.list(ctx, "project_id=?", projectID)
}

func (r *FileRepo) list(ctx context.Context, where string, arg interface{}) ([]model.File, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uploader_id, task_id, project_id, storage_name, original_name, uploaded_at
		 FROM files WHERE `+where+` ORDER BY uploaded_at DESC, id DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.File
	for rows.Next() {
		var (
			f       model.File
			task    sql.NullInt64
			project sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.UploaderID, &task, &project, &f.StorageName, &f.OriginalName, &f.UploadedAt); err != nil {
			return nil, err
		}
		if task.Valid {
			v := uint64(task.Int64)
			f.TaskID = &v
		}
		if project.Valid {
			v := uint64(project.Int64)
			f.ProjectID = &v
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
