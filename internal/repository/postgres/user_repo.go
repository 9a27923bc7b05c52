package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
)

var _ user.Repo = (*UserRepo)(nil)

type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const (
	qUserByID = `
SELECT id, tenant_id, email, full_name, role, active, created_at
FROM users
WHERE id = $1;`

	qUsersByTenant = `
SELECT id, tenant_id, email, full_name, role, active, created_at
FROM users
WHERE tenant_id = $1 AND active = TRUE
ORDER BY id;`

	qAdminsByTenant = `
SELECT id, tenant_id, email, full_name, role, active, created_at
FROM users
WHERE tenant_id = $1 AND active = TRUE AND role IN ('owner', 'admin')
ORDER BY id;`
)

func scanUser(row pgx.Row, u *user.User) error {
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.FullName, &u.Role, &u.Active, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var u user.User
	if err := scanUser(r.db.Pool.QueryRow(ctx, qUserByID, id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListByTenant(ctx context.Context, tenantID int64) ([]*user.User, error) {
	return r.list(ctx, qUsersByTenant, tenantID)
}

func (r *UserRepo) ListAdmins(ctx context.Context, tenantID int64) ([]*user.User, error) {
	return r.list(ctx, qAdminsByTenant, tenantID)
}

func (r *UserRepo) list(ctx context.Context, q string, tenantID int64) ([]*user.User, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		var u user.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
