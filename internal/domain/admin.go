package domain

import "time"

// Legacy admin roles. Newer admin records carry explicit page grants (and
// sometimes a flat permission list) instead; see application/permission for
// the precedence rules.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleViewer     = "viewer"
)

// AdminUser is an admin-panel principal. Exactly how its capability set is
// computed depends on which of Permissions/Pages/Role is populated;
// resolution lives in application/permission, not here.
type AdminUser struct {
	AdminID      string    `json:"id" dynamodbav:"admin_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	Name         string    `json:"name" dynamodbav:"name"`
	Role         string    `json:"role,omitempty" dynamodbav:"role"`
	Pages        []string  `json:"pages,omitempty" dynamodbav:"pages,stringset,omitempty"`
	Permissions  []string  `json:"permissions,omitempty" dynamodbav:"permissions,stringset,omitempty"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	IsActive     bool      `json:"isActive" dynamodbav:"is_active"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}
