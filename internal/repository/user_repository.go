package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ecomstack/ecommerce-api/internal/model"
	"github.com/ecomstack/ecommerce-api/internal/utils"
)

// UserRepo provides access to the `users` table, including the lockout
// bookkeeping columns.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,email,password_hash,role,is_active,failed_attempts,locked_until,created_at,updated_at"

// CheckLockout gates authentication on the lockout window. It returns
// ErrAccountLocked while the window is open; the gate runs before any
// password check so a locked account leaks nothing about the credential.
func CheckLockout(u model.User, now time.Time) error {
	if u.Locked(now) {
		return ErrAccountLocked
	}
	return nil
}

// Create inserts a user and returns its ID. The password is hashed here so
// a plaintext never crosses the repository boundary.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		// 1062 = MySQL duplicate key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
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

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, error) {
	var (
		u           model.User
		lockedUntil sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.FailedAttempts, &lockedUntil, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		u.LockedUntil = &t
	}
	return u, nil
}

// RecordFailedAttempt increments the failed-login counter and, when the
// threshold is crossed, sets the lockout window. A single UPDATE keeps the
// increment atomic under concurrent failed logins; the threshold check runs
// on the value read beforehand, which at worst locks one attempt late.
func (r *UserRepo) RecordFailedAttempt(ctx context.Context, userID uint64, threshold int, window time.Duration) error {
	var failed int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT failed_attempts FROM users WHERE id=? LIMIT 1", userID).Scan(&failed); err != nil {
		return err
	}
	_, until := utils.NextLockout(failed, threshold, window, time.Now().UTC())
	if until != nil {
		_, err := r.DB.ExecContext(ctx,
			"UPDATE users SET failed_attempts=failed_attempts+1, locked_until=? WHERE id=?",
			*until, userID)
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_attempts=failed_attempts+1 WHERE id=?", userID)
	return err
}

// RecordSuccess resets the failed-login counter and clears any lockout.
func (r *UserRepo) RecordSuccess(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_attempts=0, locked_until=NULL WHERE id=?", userID)
	return err
}

// Deactivate soft-deletes a user. Rows stay in place so orders and
// notifications keep valid owners.
func (r *UserRepo) Deactivate(ctx context.Context, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=0 WHERE id=? AND is_active=1", userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored hash after hashing the new password.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, userID)
	return err
}
