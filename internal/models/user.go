package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the coarse permission tier assigned to a user.
// It is independent from the IsAdmin override flag.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

type User struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	IsAdmin  bool      `json:"is_admin"`
	FullName string    `json:"full_name,omitempty"`
}

// Admin reports whether the user passes admin gates.
// The backend sets is_admin from the role at creation but nothing keeps them
// in sync afterwards, so either signal grants access.
func (u User) Admin() bool {
	return u.IsAdmin || u.Role == RoleAdmin
}
