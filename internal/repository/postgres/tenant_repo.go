package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/tenant"
)

var _ tenant.Repo = (*TenantRepo)(nil)

type TenantRepo struct{ db *DB }

func NewTenantRepo(db *DB) *TenantRepo { return &TenantRepo{db: db} }

const (
	qTenantByID = `
SELECT id, name, timezone, active, send_empty_digest, created_at
FROM tenants
WHERE id = $1;`

	qTenantsActive = `
SELECT id, name, timezone, active, send_empty_digest, created_at
FROM tenants
WHERE active = TRUE
ORDER BY id;`
)

func scanTenant(row pgx.Row, t *tenant.Tenant) error {
	if err := row.Scan(&t.ID, &t.Name, &t.Timezone, &t.Active, &t.SendEmptyDigest, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan tenant: %w", err)
	}
	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t tenant.Tenant
	if err := scanTenant(r.db.Pool.QueryRow(ctx, qTenantByID, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepo) ListActive(ctx context.Context) ([]*tenant.Tenant, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qTenantsActive)
	if err != nil {
		return nil, fmt.Errorf("query tenants: %w", err)
	}
	defer rows.Close()

	var out []*tenant.Tenant
	for rows.Next() {
		var t tenant.Tenant
		if err := scanTenant(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
