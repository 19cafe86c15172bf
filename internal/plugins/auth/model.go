// Package auth handles accounts, bearer tokens and password resets for the
// back-office API. Users and admin users live in separate tables with their
// own username spaces but share the auth token store.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"time"
)

// OwnerKind says which account table a token owner lives in.
type OwnerKind string

const (
	OwnerUser  OwnerKind = "user"
	OwnerAdmin OwnerKind = "admin"
)

// User is a customer account.
type User struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"` // Never expose in JSON responses.
	FirstConnection bool      `json:"firstConnection"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AdminUser is a back-office operator.
type AdminUser struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	OwnerID string    `json:"ownerId"`
	Kind    OwnerKind `json:"kind"`
}

// IsAdmin reports whether the principal is an admin user.
func (p *Principal) IsAdmin() bool { return p != nil && p.Kind == OwnerAdmin }

// AuthToken is an opaque bearer credential. Its row existing is its validity.
type AuthToken struct {
	Value     string    `json:"value"`
	OwnerID   string    `json:"ownerId"`
	Kind      OwnerKind `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResetToken is the single live password-reset credential of a user.
type ResetToken struct {
	ID         string
	OwnerID    string
	OwnerEmail string
	Token      string
	ExpiresAt  time.Time
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest is the body of POST /auth/register and POST /admin/users.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest is the body of POST /auth/login and POST /admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetRequest is the body of POST /auth/password-reset.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetConfirmRequest is the body of POST /auth/password-reset/confirm.
type ResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// RenameRequest is the body of POST /me/username. Empty names keep the
// current value.
type RenameRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating an account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginInput is the input for authenticating an account.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token           string `json:"token"`
	OwnerID         string `json:"ownerId"`
	Username        string `json:"username"`
	FirstConnection bool   `json:"firstConnection"`
}
