package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProjectRepo(t *testing.T) (*ProjectRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProjectRepo(db), mock
}

func TestListAccessibleQueriesBothRoles(t *testing.T) {
	repo, mock := newProjectRepo(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT DISTINCT p\.id`).
		WithArgs(uint64(5), uint64(5)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "owner_id", "name", "description", "created_at"}).
			AddRow(2, 5, "Owned", "", now).
			AddRow(1, 9, "Joined", "", now))

	out, err := repo.ListAccessible(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Owned", out[0].Name)
	assert.Equal(t, uint64(9), out[1].OwnerID)
}

func TestProjectDeleteCascade(t *testing.T) {
	repo, mock := newProjectRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM projects WHERE id=? LIMIT 1`)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT f\.storage_name FROM files f`).
		WithArgs(uint64(3), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"storage_name"}).
			AddRow("brief_11aa.pdf").
			AddRow("logo_22bb.png"))
	mock.ExpectExec(`DELETE c FROM comments c`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE f FROM files f`).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE project_id = ?`)).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM files WHERE project_id = ?`)).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM project_members WHERE project_id = ?`)).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM projects WHERE id = ?`)).
		WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	names, err := repo.DeleteCascade(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"brief_11aa.pdf", "logo_22bb.png"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectDeleteCascadeMissingProjectRollsBack(t *testing.T) {
	repo, mock := newProjectRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM projects WHERE id=? LIMIT 1`)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	_, err := repo.DeleteCascade(context.Background(), 3)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectDeleteCascadeRollsBackMidway(t *testing.T) {
	repo, mock := newProjectRepo(t)

	boom := errors.New("Error 1213: Deadlock found")
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM projects WHERE id=? LIMIT 1`)).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT f\.storage_name FROM files f`).
		WithArgs(uint64(3), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"storage_name"}))
	mock.ExpectExec(`DELETE c FROM comments c`).
		WithArgs(uint64(3)).WillReturnError(boom)
	mock.ExpectRollback()

	_, err := repo.DeleteCascade(context.Background(), 3)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
