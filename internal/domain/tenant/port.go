package tenant

import "context"

type Repo interface {
	GetByID(ctx context.Context, id int64) (*Tenant, error)
	ListActive(ctx context.Context) ([]*Tenant, error)
}
