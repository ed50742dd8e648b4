package model

// Role names form a closed set.  The roles table is seeded once at
// bootstrap with exactly these two rows and is never written on the
// request path.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// SeededRoles lists every role the bootstrap step inserts, in seed order.
func SeededRoles() []string { return []string{RoleUser, RoleAdmin} }

// Role represents a row in the `roles` table.  Users reference it via
// their role_id column.
//
// Fields:
//  ID   – numeric identifier of the role.
//  Name – unique role name ("User" or "Admin").
type Role struct {
	ID   uint8  // roles.id
	Name string // roles.name
}
