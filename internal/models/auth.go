package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ViewerRole distinguishes directory members from administrators.
type ViewerRole string

const (
	RoleMember ViewerRole = "MEMBER"
	RoleAdmin  ViewerRole = "ADMIN"
)

// ViewerClaims is the JWT payload accepted by the directory routes.
type ViewerClaims struct {
	UserID string     `json:"user_id"`
	Role   ViewerRole `json:"role"`
	jwt.RegisteredClaims
}

// Account is the login view of a users row.
type Account struct {
	ID           int64  `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password"`
	IsVerified   bool   `db:"is_verified"`
}

// LoginRequest is accepted as JSON or as a browser form post.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// LoginResponse carries the issued token for API clients.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
}
