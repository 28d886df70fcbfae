// Package repository defines error values that are reused across multiple
// repositories. These sentinels allow handlers to distinguish failure
// scenarios without string matching: ErrForbidden maps to HTTP 403,
// ErrNotFound to 404, ErrConflict to 409, and the authentication sentinels
// to 401/423 respectively.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a referenced row does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as an invalid order status transition.
var ErrConflict = errors.New("conflict")

// ErrTokenRevoked is returned when a refresh token has been rotated or
// explicitly revoked. Presenting a revoked token must never yield new
// tokens.
var ErrTokenRevoked = errors.New("token revoked")

// ErrAccountLocked is returned when authentication is attempted against an
// account inside an active lockout window, regardless of whether the
// supplied password was correct.
var ErrAccountLocked = errors.New("account locked")
