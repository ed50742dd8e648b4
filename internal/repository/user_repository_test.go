package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	roleLookupSQL = `SELECT id FROM roles WHERE name=? LIMIT 1`
	userInsertSQL = `INSERT INTO users (username, email, password_hash, role_id) VALUES (?,?,?,?)`
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func expectRoleLookup(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(roleLookupSQL)).
		WithArgs("User").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
}

func TestCreateNormalizesEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	expectRoleLookup(mock)
	mock.ExpectExec(regexp.QuoteMeta(userInsertSQL)).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Create(context.Background(), " alice ", " Alice@Example.COM ", "s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBeforeRolesSeeded(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(roleLookupSQL)).
		WithArgs("User").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Create(context.Background(), "alice", "alice@example.com", "s3cret", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrRoleNotSeeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateMapping(t *testing.T) {
	cases := []struct {
		name    string
		driverE error
		want    error
	}{
		{
			"duplicate username",
			errors.New("Error 1062 (23000): Duplicate entry 'alice' for key 'users.username'"),
			ErrUsernameExists,
		},
		{
			"duplicate email",
			errors.New("Error 1062 (23000): Duplicate entry 'alice@example.com' for key 'users.email'"),
			ErrEmailExists,
		},
		{
			"duplicate on unrecognized key",
			errors.New("Error 1062 (23000): Duplicate entry 'x' for key 'users.something'"),
			ErrEmailExists,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newUserRepo(t)

			expectRoleLookup(mock)
			mock.ExpectExec(regexp.QuoteMeta(userInsertSQL)).
				WillReturnError(tc.driverE)

			_, err := repo.Create(context.Background(), "alice", "alice@example.com", "s3cret", bcrypt.MinCost)
			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateOtherInsertErrorPassesThrough(t *testing.T) {
	repo, mock := newUserRepo(t)

	boom := errors.New("Error 1205: Lock wait timeout exceeded")
	expectRoleLookup(mock)
	mock.ExpectExec(regexp.QuoteMeta(userInsertSQL)).WillReturnError(boom)

	_, err := repo.Create(context.Background(), "alice", "alice@example.com", "s3cret", bcrypt.MinCost)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUsernameExists)
}

func TestIsDuplicateKey(t *testing.T) {
	dup := errors.New("Error 1062 (23000): Duplicate entry 'a' for key 'users.username'")
	assert.True(t, isDuplicateKey(dup, "username"))
	assert.False(t, isDuplicateKey(dup, "email"))
	assert.True(t, isDuplicateKey(dup, ""))
	assert.False(t, isDuplicateKey(errors.New("Error 1213: Deadlock found"), ""))
	assert.False(t, isDuplicateKey(nil, "username"))
}
