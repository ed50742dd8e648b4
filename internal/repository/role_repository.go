package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskhive/taskhive/internal/model"
)

// RoleRepo manages the small closed set of roles.  Roles are seeded once
// at bootstrap and never written on the request path.
type RoleRepo struct{ db *sql.DB }

// NewRoleRepo constructs a RoleRepo with the provided DB handle.
func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// Seed inserts every role from model.SeededRoles that does not exist yet.
// It is idempotent and safe to run on every deploy.
func (r *RoleRepo) Seed(ctx context.Context) error {
	for _, name := range model.SeededRoles() {
		var id uint8
		err := r.db.QueryRowContext(ctx,
			"SELECT id FROM roles WHERE name=? LIMIT 1", name).Scan(&id)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO roles (name) VALUES (?)", name); err != nil {
			return err
		}
	}
	return nil
}

// GetByName fetches a role by its unique name.  sql.ErrNoRows is passed
// through so callers can decide whether a missing role is fatal.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name FROM roles WHERE name=? LIMIT 1", name).
		Scan(&role.ID, &role.Name)
	return role, err
}
