package user

import "context"

type Repo interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]*User, error)
	// ListAdmins returns active members with role owner or admin.
	ListAdmins(ctx context.Context, tenantID int64) ([]*User, error)
}
