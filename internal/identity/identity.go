// Package identity talks to the system of record for accounts. A Provider
// verifies bearer tokens, signs users up and in, and updates their details.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
)

// Error is a failure reported by the identity service itself. Message is
// safe to return to the caller.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.Status, e.Message)
}

// Identity is an account as seen by the gateway
type Identity struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitzero"`
}

// Name returns the display name kept in the identity metadata
func (i *Identity) Name() string {
	if i == nil || i.Metadata == nil {
		return ""
	}
	name, _ := i.Metadata["name"].(string)
	return name
}

// Session is issued by a successful sign in
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// SignUpParams describes a new account
type SignUpParams struct {
	Email    string
	Password string
	Metadata map[string]any
}

// UserUpdate changes an account; nil or empty fields are left unchanged
type UserUpdate struct {
	Email    *string
	Password *string
	Metadata map[string]any
}

// Provider is the identity service used by the gateway. Each method makes
// exactly one attempt.
type Provider interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	SignUp(ctx context.Context, params SignUpParams) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, *Identity, error)
	UpdateUser(ctx context.Context, token string, update UserUpdate) (*Identity, error)
}
