package model

import "go-pos-ws/internal/apperr"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole rejects anything outside {user, admin}.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	}
	return "", apperr.Validation("invalid role %q", s)
}

func (r Role) String() string { return string(r) }

// Status is the closed set of account states.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusBanned    Status = "banned"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusSuspended, StatusBanned:
		return st, nil
	}
	return "", apperr.Validation("invalid status %q", s)
}

func (s Status) String() string { return string(s) }

// CanAuthenticate reports whether an account in this state may log in and
// call protected endpoints.
func (s Status) CanAuthenticate() bool {
	switch s {
	case StatusActive:
		return true
	case StatusSuspended, StatusBanned:
		return false
	}
	return false
}
