package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/model"
)

func newTaskRepo(t *testing.T) (*TaskRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTaskRepo(db), mock
}

func TestTaskDeleteCascade(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM tasks WHERE id=? LIMIT 1`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT storage_name FROM files WHERE task_id=?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"storage_name"}).
			AddRow("brief_ab12.pdf").
			AddRow("notes_cd34.txt"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM comments WHERE task_id=?`)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM files WHERE task_id=?`)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id=?`)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	names, err := repo.DeleteCascade(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"brief_ab12.pdf", "notes_cd34.txt"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskDeleteCascadeMissingTaskRollsBack(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM tasks WHERE id=? LIMIT 1`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	_, err := repo.DeleteCascade(context.Background(), 7)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingTask(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET status=? WHERE id=?`)).
		WithArgs(string(model.StatusDone), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM tasks WHERE id=? LIMIT 1`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := repo.UpdateStatus(context.Background(), 9, model.StatusDone)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestUpdateStatusUnchangedValueIsNotAnError(t *testing.T) {
	repo, mock := newTaskRepo(t)

	// MySQL reports zero affected rows for a no-op update, so the repo
	// confirms existence before deciding.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET status=? WHERE id=?`)).
		WithArgs(string(model.StatusDone), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM tasks WHERE id=? LIMIT 1`)).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	assert.NoError(t, repo.UpdateStatus(context.Background(), 9, model.StatusDone))
}

func TestCountByStatusZeroFills(t *testing.T) {
	repo, mock := newTaskRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, COUNT(*) FROM tasks WHERE project_id=? GROUP BY status`)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("TODO", 4).
			AddRow("DONE", 2))

	counts, err := repo.CountByStatus(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, map[model.TaskStatus]int{
		model.StatusTodo:       4,
		model.StatusInProgress: 0,
		model.StatusDone:       2,
		model.StatusArchived:   0,
	}, counts)
}
