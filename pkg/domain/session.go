package domain

import (
	"context"
	"strings"
)

// Roles
const (
	RoleStudent = "student:"
	RoleFaculty = "faculty:"
	RoleAdmin   = "admin:"
)

// AllRoles lists every role prefix a session may carry.
var AllRoles = []string{RoleStudent, RoleFaculty, RoleAdmin}

// Identity is what the session black box supplies about the current user.
// It is only ever used as a key to pick which record sets to show.
type Identity struct {
	UserID      string `json:"user_id" validate:"required"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" validate:"required"`
}

// HasRole reports whether the identity's role starts with prefix.
func (id Identity) HasRole(prefix string) bool {
	return strings.HasPrefix(id.Role, prefix)
}

func (id Identity) IsStudent() bool {
	return id.HasRole(RoleStudent)
}

func (id Identity) IsFaculty() bool {
	return id.HasRole(RoleFaculty)
}

func (id Identity) IsAdmin() bool {
	return id.HasRole(RoleAdmin)
}

// SessionResolver supplies the identity of whoever is using the portal.
type SessionResolver interface {
	Current(ctx context.Context) (Identity, error)
}
