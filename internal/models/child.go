package models

import (
	"strings"
	"time"
)

// Gender is the canonical child gender stored by the gateway
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender normalises a client supplied gender, accepting the
// Indonesian labels used by the prediction model
func ParseGender(value string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "male", "laki-laki":
		return GenderMale, true
	case "female", "perempuan":
		return GenderFemale, true
	default:
		return "", false
	}
}

// Child represents a child growth profile owned by one user
type Child struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Gender    Gender    `json:"gender"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChildInput is the payload for creating a child profile
type ChildInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Gender string `json:"gender" validate:"required,gender"`
	Age    *int   `json:"age" validate:"required,min=0"`
}

// ChildPatch is a partial update; nil fields are left unchanged
type ChildPatch struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Gender *string `json:"gender" validate:"omitempty,gender"`
	Age    *int    `json:"age" validate:"omitempty,min=0"`
}

// Empty reports whether the patch carries no fields
func (p ChildPatch) Empty() bool {
	return p.Name == nil && p.Gender == nil && p.Age == nil
}
