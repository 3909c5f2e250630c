package auth

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// Identity is the authenticated caller as resolved from a bearer credential.
type Identity struct {
	UserID string
	Email  string
}

type AccessClaims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}
