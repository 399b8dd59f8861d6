package models

import "time"

// User is an account row of the local identity provider
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Metadata     map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile holds the display name kept alongside an identity
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for creating an account
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2"`
}

// LoginRequest is the payload for a password sign in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateSelfRequest changes the caller's own identity; nil fields are left unchanged
type UpdateSelfRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Name     *string `json:"name" validate:"omitempty,min=2"`
}

// Empty reports whether the request carries no fields
func (r UpdateSelfRequest) Empty() bool {
	return r.Email == nil && r.Password == nil && r.Name == nil
}
