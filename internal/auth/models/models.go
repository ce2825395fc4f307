// Package models defines the auth domain records and request/response types.
package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"rbi-platform/pkg/apperrors"
)

// Role is the coarse authorization level attached to a user.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleComplianceOfficer Role = "compliance_officer"
	RoleAnalyst           Role = "analyst"
	RoleViewer            Role = "viewer"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleComplianceOfficer, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is a platform account. PasswordHash is bcrypt and never serialized.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// Session groups the tokens issued to one login. Revoking the session kills
// every refresh token chained to it.
type Session struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	Device        string        `json:"device"`
	ClientIP      string        `json:"client_ip"`
	Status        SessionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	LastSeenAt    time.Time     `json:"last_seen_at"`
	LastRefreshed *time.Time    `json:"last_refreshed,omitempty"`
}

// RefreshTokenRecord is one link in a session's refresh chain. A record is
// single-use: consuming it sets Used and ReplacedBy. Presenting a used token
// again is treated as theft.
type RefreshTokenRecord struct {
	Token      string
	SessionID  string
	UserID     string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Used       bool
	UsedAt     *time.Time
	ReplacedBy string
}

// TokenPair is what login and refresh return to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// RegisterRequest creates a user account.
type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Normalize trims and lowercases fields before validation.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

// Validate enforces field presence and enum membership.
func (r *RegisterRequest) Validate() error {
	if !govalidator.IsEmail(r.Email) || !govalidator.StringLength(r.Email, "3", "255") {
		return apperrors.New(apperrors.CodeBadRequest, "invalid email")
	}
	if !govalidator.StringLength(r.FullName, "1", "200") {
		return apperrors.New(apperrors.CodeBadRequest, "full_name is required")
	}
	if len(r.Password) < 8 || len(r.Password) > 128 {
		return apperrors.New(apperrors.CodeBadRequest, "password must be 8-128 characters")
	}
	if r.Role == "" {
		r.Role = RoleViewer
	}
	if !ValidRole(r.Role) {
		return apperrors.New(apperrors.CodeBadRequest, "unknown role")
	}
	return nil
}

// LoginRequest authenticates a user.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims and lowercases the email.
func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate enforces field presence.
func (r *LoginRequest) Validate() error {
	if !govalidator.IsEmail(r.Email) {
		return apperrors.New(apperrors.CodeBadRequest, "invalid email")
	}
	if r.Password == "" {
		return apperrors.New(apperrors.CodeBadRequest, "password is required")
	}
	return nil
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate enforces field presence.
func (r *RefreshRequest) Validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return apperrors.New(apperrors.CodeBadRequest, "refresh_token is required")
	}
	return nil
}
