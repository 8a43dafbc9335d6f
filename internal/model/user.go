package model

import "time"

// Roles a user account can hold.  Customers create and manage their own
// reservations; admins additionally manage tables, other users'
// reservations and the customer list.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column in the
// database.  The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID                  – primary key identifier of the user.
//  Name                – display name shown on reservations.
//  Email               – unique email address (stored lower-cased).
//  PasswordHash        – bcrypt hashed password.
//  Role                – CUSTOMER or ADMIN.
//  ResetTokenHash      – SHA-256 hex digest of a pending password reset
//                        token (null when none is outstanding).
//  ResetTokenExpiresAt – expiry of the pending reset token (nullable).
//  IsActive            – whether the account is active.
//  CreatedAt           – timestamp of creation.
//  UpdatedAt           – timestamp of last update.
type User struct {
	ID                  uint64     // users.id
	Name                string     // users.name
	Email               string     // users.email
	PasswordHash        string     // users.password_hash
	Role                string     // users.role
	ResetTokenHash      *string    // users.reset_token_hash (nullable)
	ResetTokenExpiresAt *time.Time // users.reset_token_expires_at (nullable)
	IsActive            bool       // users.is_active
	CreatedAt           time.Time  // users.created_at
	UpdatedAt           time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
