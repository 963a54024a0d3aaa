package models

import "time"

// UserSession represents a signed-in Google account
type UserSession struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Picture   string `json:"picture,omitempty"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

// GoogleUser is the subset of the OpenID userinfo document the site uses
type GoogleUser struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// SessionResponse is returned by the session endpoint
type SessionResponse struct {
	Success bool         `json:"success"`
	Session *UserSession `json:"session,omitempty"`
}

// LogoutResponse is returned after logout
type LogoutResponse struct {
	Success bool `json:"success"`
}

// User is a member account recorded on first sign-in
type User struct {
	ID            string    `json:"id"`
	GoogleSubject string    `json:"-"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	Name          string    `json:"name"`
	Picture       string    `json:"picture,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
}
