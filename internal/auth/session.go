package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidEmail       = errors.New("auth: invalid email")
	ErrWeakPassword       = errors.New("auth: password does not meet requirements")
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrExpiredToken       = errors.New("auth: token has expired")
	ErrInvalidCode        = errors.New("auth: invalid or expired code")
	ErrNoSession          = errors.New("auth: no active session")
)

type User struct {
	ID    string
	Email string
}

type Session struct {
	User        User
	AccessToken string
	ExpiresAt   time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Listener receives session changes. session is nil after sign-out.
type Listener func(event Event, session *Session)

// Provider is what the rest of the app needs from authentication.
type Provider interface {
	CurrentSession(ctx context.Context) (*Session, error)
	// OnSessionChange registers l and returns a func that removes it.
	OnSessionChange(l Listener) func()
	SignOut(ctx context.Context) error
}
