package notification

import "context"

type Repo interface {
	Create(ctx context.Context, n *InApp) error
	// CreateBatch inserts all rows in one statement; a zero-length batch
	// is a no-op, not an error.
	CreateBatch(ctx context.Context, ns []*InApp) error
	ListByUser(ctx context.Context, tenantID, userID int64, limit int) ([]*InApp, error)
	MarkRead(ctx context.Context, tenantID, userID, id int64) error
}
