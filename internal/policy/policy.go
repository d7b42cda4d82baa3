// Package policy decides owner-or-admin access. It is pure: no storage, no I/O.
package policy

import (
	"github.com/google/uuid"

	"go-pos-ws/internal/apperr"
	"go-pos-ws/internal/model"
)

// Owned is any resource that records the user who owns it.
type Owned interface {
	OwnerID() uuid.UUID
}

// IsOwnerOrAdmin is true iff the actor is an admin or owns the resource.
func IsOwnerOrAdmin(actor *model.User, ownerID uuid.UUID) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleUser:
		return actor.ID == ownerID
	}
	return false
}

// RequireOwnershipOrAdmin returns the resource when the actor may access it.
// Existence is checked before ownership, so a non-owner can tell a missing id
// from someone else's.
func RequireOwnershipOrAdmin[T Owned](actor *model.User, resource *T, kind string) (*T, error) {
	if resource == nil {
		return nil, apperr.NotFound("%s not found", kind)
	}
	if !IsOwnerOrAdmin(actor, (*resource).OwnerID()) {
		return nil, apperr.Forbidden("not authorized to access this %s", kind)
	}
	return resource, nil
}

func RequireAdmin(actor *model.User) error {
	if actor == nil || !actor.IsAdmin() {
		return apperr.Forbidden("admin privileges required")
	}
	return nil
}

// OwnerScope returns the owner id a query must be restricted to, or nil when
// the actor may see every tenant's rows.
func OwnerScope(actor *model.User) *uuid.UUID {
	if actor.IsAdmin() {
		return nil
	}
	id := actor.ID
	return &id
}
