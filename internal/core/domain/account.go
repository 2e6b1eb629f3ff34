package domain

import (
	"strings"
	"time"
)

// Role is the fixed set of account kinds.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ParseRole accepts only the two enumerated roles. The value is matched exactly:
// "Doctor" or " doctor" are rejected rather than coerced.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDoctor, RolePatient:
		return Role(s), nil
	}
	return "", &ValidationError{Field: "role", Reason: "must be one of: doctor patient"}
}

// Account models a registered user.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewAccount validates the identity fields and returns an account ready to be stored.
func NewAccount(id, username, email, passwordHash, role string, now time.Time) (*Account, error) {
	r, err := ParseRole(role)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" {
		return nil, &ValidationError{Field: "username", Reason: "is required"}
	}
	if !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "email", Reason: "must be a valid email"}
	}
	return &Account{
		ID:           id,
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Role:         r,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
