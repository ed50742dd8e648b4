package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/utils"
)

// UserRepo encapsulates all database queries against the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `u.id, u.username, u.email, u.password_hash, u.role_id, r.name, u.is_active, u.created_at`

// Create hashes the password and inserts a new user carrying the default
// "User" role.  The email is normalized to lower case before insertion so
// the unique index enforces case-insensitive uniqueness.  Duplicate
// username/email are reported as distinct sentinel errors so the caller
// can attach the message to the right field.  If the roles table has not
// been seeded yet, ErrRoleNotSeeded is returned and nothing is inserted.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}

	var roleID uint8
	err = r.DB.QueryRowContext(ctx,
		"SELECT id FROM roles WHERE name=? LIMIT 1", model.RoleUser).Scan(&roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRoleNotSeeded
		}
		return 0, err
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role_id) VALUES (?,?,?,?)",
		username, email, hash, roleID)
	if err != nil {
		switch {
		case isDuplicateKey(err, "username"):
			return 0, ErrUsernameExists
		case isDuplicateKey(err, "email"):
			return 0, ErrEmailExists
		case isDuplicateKey(err, ""):
			// Duplicate on an unrecognized key; email is the likelier hit.
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user (with role name) by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "u.email=?", email)
}

// GetByID fetches a user (with role name) by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "u.id=?", id)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg interface{}) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON r.id=u.role_id WHERE "+where+" LIMIT 1",
		arg).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// List returns all users ordered by id.  Used by the admin surface.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users u JOIN roles r ON r.id=u.role_id ORDER BY u.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.RoleName, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateRole reassigns a user's role by role name.  Unknown role names
// never reach this method; the handler validates against the closed set.
func (r *UserRepo) UpdateRole(ctx context.Context, userID uint64, roleName string) error {
	var roleID uint8
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM roles WHERE name=? LIMIT 1", roleName).Scan(&roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoleNotSeeded
		}
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role_id=? WHERE id=?", roleID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero rows can also mean the role was unchanged, so confirm the
		// user exists before reporting not-found.
		var one int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE id=? LIMIT 1", userID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
	}
	return nil
}

// SetActive flips a user's is_active flag.
func (r *UserRepo) SetActive(ctx context.Context, userID uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE id=? LIMIT 1", userID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
	}
	return nil
}
