package user

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsAdmin reports whether the role grants tenant-wide claim visibility.
func (r Role) IsAdmin() bool { return r == RoleOwner || r == RoleAdmin }

// User is a tenant membership: the same person in two tenants is two rows.
type User struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
