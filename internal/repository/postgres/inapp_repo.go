package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
)

var _ notification.Repo = (*InAppRepo)(nil)

type InAppRepo struct{ db *DB }

func NewInAppRepo(db *DB) *InAppRepo { return &InAppRepo{db: db} }

const (
	qInAppInsert = `
INSERT INTO inapp_notifications (tenant_id, user_id, title, description, type, read, created_at)
VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
RETURNING id, created_at;`

	qInAppByUser = `
SELECT id, tenant_id, user_id, title, description, type, read, created_at
FROM inapp_notifications
WHERE tenant_id = $1 AND user_id = $2
ORDER BY created_at DESC
LIMIT $3;`

	qInAppMarkRead = `
UPDATE inapp_notifications
SET read = TRUE
WHERE tenant_id = $1 AND user_id = $2 AND id = $3;`
)

func (r *InAppRepo) Create(ctx context.Context, n *notification.InApp) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if err := r.db.Pool.QueryRow(ctx, qInAppInsert,
		n.TenantID, n.UserID, n.Title, n.Description, string(n.Type),
	).Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert inapp notification: %w", err)
	}
	return nil
}

func (r *InAppRepo) CreateBatch(ctx context.Context, ns []*notification.InApp) error {
	if len(ns) == 0 {
		return nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, n := range ns {
		batch.Queue(qInAppInsert, n.TenantID, n.UserID, n.Title, n.Description, string(n.Type))
	}
	res := r.db.Pool.SendBatch(ctx, batch)
	defer res.Close()

	for _, n := range ns {
		if err := res.QueryRow().Scan(&n.ID, &n.CreatedAt); err != nil {
			return fmt.Errorf("batch insert inapp notification: %w", err)
		}
	}
	return nil
}

func (r *InAppRepo) ListByUser(ctx context.Context, tenantID, userID int64, limit int) ([]*notification.InApp, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qInAppByUser, tenantID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query inapp notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.InApp, 0, limit)
	for rows.Next() {
		var n notification.InApp
		if err := rows.Scan(&n.ID, &n.TenantID, &n.UserID, &n.Title, &n.Description, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inapp notification: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *InAppRepo) MarkRead(ctx context.Context, tenantID, userID, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qInAppMarkRead, tenantID, userID, id)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
