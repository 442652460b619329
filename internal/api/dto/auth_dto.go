package dto

import "time"

// SignInRequest payload for password sign-in.
type SignInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// SignUpRequest payload for registration.
type SignUpRequest struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// SessionView is the session as shown to the UI. Tokens are never echoed.
type SessionView struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
