package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  The json tags are omitted
// here because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique display name.
//  Email        – unique email address, stored lowercased.
//  PasswordHash – bcrypt hashed password.
//  RoleID       – foreign key into the roles table.
//  RoleName     – role name joined from the roles table ("User"/"Admin").
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	RoleID       uint8     // users.role_id (references roles.id)
	RoleName     string    // roles.name, populated by joined queries
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
}

// IsAdmin reports whether the user carries the Admin role.  A user whose
// role was never resolved fails this check.
func (u User) IsAdmin() bool { return u.RoleName == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user; the plain token is not stored, only
// its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
