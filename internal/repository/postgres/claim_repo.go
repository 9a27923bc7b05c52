package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
)

var _ claim.Repo = (*ClaimRepo)(nil)

type ClaimRepo struct{ db *DB }

func NewClaimRepo(db *DB) *ClaimRepo { return &ClaimRepo{db: db} }

const (
	qClaimCounts = `
SELECT
  COUNT(*) FILTER (WHERE status = 'open'),
  COUNT(*) FILTER (WHERE status = 'in_progress'),
  COUNT(*) FILTER (WHERE status = 'resolved'),
  COUNT(*) FILTER (WHERE status = 'closed'),
  COUNT(*) FILTER (WHERE sla_due_at IS NOT NULL
                     AND sla_due_at < $4
                     AND resolved_at IS NULL
                     AND status NOT IN ('resolved', 'closed'))
FROM claims
WHERE tenant_id = $1
  AND ($2::bigint IS NULL OR assignee_id = $2)
  AND updated_at >= $3 AND updated_at < $4;`

	qClaimsOverdue = `
SELECT id, tenant_id, customer_name, subject, status, assignee_id,
       sla_due_at, resolved_at, created_at, updated_at
FROM claims
WHERE tenant_id = $1
  AND sla_due_at IS NOT NULL
  AND sla_due_at < $2
  AND resolved_at IS NULL
  AND status NOT IN ('resolved', 'closed')
ORDER BY sla_due_at;`

	qSlaMarkerExists = `
SELECT EXISTS (
  SELECT 1 FROM sla_markers WHERE claim_id = $1 AND breach_at = $2
);`

	qSlaMarkerInsert = `
INSERT INTO sla_markers (claim_id, breach_at, notified_at)
VALUES ($1, $2, NOW());`
)

func (r *ClaimRepo) AggregateCounts(ctx context.Context, tenantID int64, assigneeID *int64, from, to time.Time) (claim.Counts, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var c claim.Counts
	if err := r.db.Pool.QueryRow(ctx, qClaimCounts, tenantID, assigneeID, from, to).
		Scan(&c.Open, &c.InProgress, &c.Resolved, &c.Closed, &c.Overdue); err != nil {
		return claim.Counts{}, fmt.Errorf("aggregate claim counts: %w", err)
	}
	return c, nil
}

func (r *ClaimRepo) ListOverdueUnresolved(ctx context.Context, tenantID int64, asOf time.Time) ([]*claim.Claim, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qClaimsOverdue, tenantID, asOf)
	if err != nil {
		return nil, fmt.Errorf("query overdue claims: %w", err)
	}
	defer rows.Close()

	var out []*claim.Claim
	for rows.Next() {
		var c claim.Claim
		if err := rows.Scan(
			&c.ID, &c.TenantID, &c.CustomerName, &c.Subject, &c.Status,
			&c.AssigneeID, &c.SlaDueAt, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *ClaimRepo) HasSlaMarker(ctx context.Context, claimID int64, breachAt time.Time) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, qSlaMarkerExists, claimID, breachAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("sla marker exists: %w", err)
	}
	return exists, nil
}

func (r *ClaimRepo) MarkSlaNotified(ctx context.Context, claimID int64, breachAt time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qSlaMarkerInsert, claimID, breachAt); err != nil {
		if isUniqueViolation(err) {
			return claim.ErrMarkerExists
		}
		return fmt.Errorf("insert sla marker: %w", err)
	}
	return nil
}
