package domain

import "time"

// Session is an authenticated identity issued by the identity backend.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Identity returns the user id, falling back to the email.
func (s *Session) Identity() string {
	if s == nil {
		return ""
	}
	if s.UserID != "" {
		return s.UserID
	}
	return s.Email
}

// Expired reports whether the session is past its expiry. A zero expiry never expires.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
