package models

import "time"

// Credentials are submitted in login step one and replayed in step two.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"senha" validate:"required"`
}

// System is a tenant the credentials may sign into.
type System struct {
	ID          string `json:"id" msgpack:"id"`
	Description string `json:"desc_Sistema" msgpack:"desc"`
}

// LoginResponse is the account API reply to a completed login.
type LoginResponse struct {
	Token string `json:"token"`
}

// TokenClaims holds the bearer token claims the console cares about.
type TokenClaims struct {
	SystemID  string
	ClientID  string
	ExpiresAt time.Time
}
