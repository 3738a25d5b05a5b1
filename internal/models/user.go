package models

import (
	"time"
)

// User is an account in the identity service.
type User struct {
	CreatedAt time.Time `json:"createdAt"`
	// TokensValidAfter invalidates every token issued at or before it; it
	// moves forward on sign-out.
	TokensValidAfter time.Time `json:"-"`
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   string
	Email    string
	IssuedAt time.Time
}
