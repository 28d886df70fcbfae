package model

import "time"

// Role names stored in users.role. The set is flat: no role implies
// another, and privileged endpoints list the roles they accept explicitly.
const (
	RoleCustomer   = "CUSTOMER"
	RoleManager    = "MANAGER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPERADMIN"
)

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column. The json tags are omitted
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate JSON tags.
//
// Accounts are never physically deleted: deactivation flips IsActive.
// FailedAttempts and LockedUntil implement the login lockout policy;
// LockedUntil is nil while the account is not locked.
//
// Fields:
//
//	ID             – primary key identifier of the user.
//	Email          – unique email address.
//	PasswordHash   – bcrypt hashed password. Never the plaintext.
//	Role           – role name (CUSTOMER, MANAGER, ADMIN, SUPERADMIN).
//	IsActive       – whether the account is active.
//	FailedAttempts – consecutive failed login attempts since last success.
//	LockedUntil    – authentication is refused until this passes (nullable).
//	CreatedAt      – timestamp of creation.
//	UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64     // users.id
	Email          string     // users.email
	PasswordHash   string     // users.password_hash
	Role           string     // users.role
	IsActive       bool       // users.is_active
	FailedAttempts int        // users.failed_attempts
	LockedUntil    *time.Time // users.locked_until (nullable)
	CreatedAt      time.Time  // users.created_at
	UpdatedAt      time.Time  // users.updated_at
}

// Locked reports whether the account is inside an active lockout window at
// the given instant.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// RefreshToken models an entry in the `refresh_tokens` table. Each refresh
// token belongs to a user and carries metadata for expiry and revocation.
// The token itself is a signed JWT; the database stores only its SHA-256
// hash plus the jti claim so a stolen table cannot be replayed.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA-256 hex digest of the serialized token.
//	JTI       – unique token id embedded in the JWT claims.
//	ExpiresAt – expiration timestamp of the token.
//	RevokedAt – when the token was revoked (null if still active).
//	CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	JTI       string     // refresh_tokens.jti
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
