package models

import (
	"time"
)

// Role is the capability level of a user
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// UserStatus marks whether a user may act
type UserStatus string

const (
	UserStatusActive      UserStatus = "ACTIVE"
	UserStatusDeactivated UserStatus = "DEACTIVATED"
)

// User represents a marketplace account
type User struct {
	ID           int64      `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Nickname     string     `json:"nickname" db:"nickname"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Status       UserStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Actor is the authenticated identity performing an operation
type Actor struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the actor holds the admin capability
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Actor returns the acting identity of u
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// LoginRequest represents a password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthToken represents the authentication token response
type AuthToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UpdateProfileRequest changes the caller's own profile
type UpdateProfileRequest struct {
	Nickname string `json:"nickname"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserParams represents the parameters for the admin user listing
type UserParams struct {
	Keyword string
	Page    int
	Size    int
	Sort    string
}

// UserQuery is the validated form of UserParams
type UserQuery struct {
	Keyword string
	PageRequest
	Sort Sort
}
