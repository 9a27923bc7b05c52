package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/preference"
)

var _ preference.Store = (*PreferenceRepo)(nil)

type PreferenceRepo struct{ db *DB }

func NewPreferenceRepo(db *DB) *PreferenceRepo { return &PreferenceRepo{db: db} }

const qCandidateCols = `
SELECT t.id, t.name, t.timezone, t.active, t.send_empty_digest, t.created_at,
       u.id, u.tenant_id, u.email, u.full_name, u.role, u.active, u.created_at,
       p.id, p.tenant_id, p.user_id, p.enabled, p.frequency,
       p.send_hour, p.send_minute, p.weekly_day, p.timezone,
       p.email_enabled, p.inapp_enabled
FROM notification_prefs p
JOIN users u ON u.id = p.user_id
JOIN tenants t ON t.id = p.tenant_id
`

const (
	qCandidatesByFreq = qCandidateCols + `
WHERE p.enabled = TRUE AND p.frequency = $1
  AND u.active = TRUE AND t.active = TRUE
ORDER BY t.id, u.id;`

	qCandidateOne = qCandidateCols + `
WHERE p.tenant_id = $1 AND p.user_id = $2;`

	qSentMarkerExists = `
SELECT EXISTS (
  SELECT 1 FROM sent_markers
  WHERE tenant_id = $1 AND user_id = $2 AND kind = $3 AND period = $4
);`

	qSentMarkerInsert = `
INSERT INTO sent_markers (tenant_id, user_id, kind, period, sent_at)
VALUES ($1, $2, $3, $4, NOW());`
)

func scanCandidate(row pgx.Row, c *preference.Candidate) error {
	var weeklyDay int
	err := row.Scan(
		&c.Tenant.ID, &c.Tenant.Name, &c.Tenant.Timezone, &c.Tenant.Active,
		&c.Tenant.SendEmptyDigest, &c.Tenant.CreatedAt,
		&c.User.ID, &c.User.TenantID, &c.User.Email, &c.User.FullName,
		&c.User.Role, &c.User.Active, &c.User.CreatedAt,
		&c.Pref.ID, &c.Pref.TenantID, &c.Pref.UserID, &c.Pref.Enabled,
		&c.Pref.Frequency, &c.Pref.SendHour, &c.Pref.SendMinute,
		&weeklyDay, &c.Pref.Timezone,
		&c.Pref.EmailEnabled, &c.Pref.InAppEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan candidate: %w", err)
	}
	c.Pref.WeeklyDay = weekdayFromISO(weeklyDay)
	return nil
}

// weekly_day is stored ISO-style, Monday = 0.
func weekdayFromISO(i int) time.Weekday {
	return time.Weekday((i + 1) % 7)
}

func (r *PreferenceRepo) ListCandidates(ctx context.Context, freq preference.Frequency) ([]*preference.Candidate, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qCandidatesByFreq, string(freq))
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []*preference.Candidate
	for rows.Next() {
		var c preference.Candidate
		if err := scanCandidate(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *PreferenceRepo) GetCandidate(ctx context.Context, tenantID, userID int64) (*preference.Candidate, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var c preference.Candidate
	if err := scanCandidate(r.db.Pool.QueryRow(ctx, qCandidateOne, tenantID, userID), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PreferenceRepo) HasSentMarker(ctx context.Context, tenantID, userID int64, kind, period string) (bool, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, qSentMarkerExists, tenantID, userID, kind, period).Scan(&exists); err != nil {
		return false, fmt.Errorf("sent marker exists: %w", err)
	}
	return exists, nil
}

func (r *PreferenceRepo) MarkSent(ctx context.Context, tenantID, userID int64, kind, period string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qSentMarkerInsert, tenantID, userID, kind, period); err != nil {
		if isUniqueViolation(err) {
			return preference.ErrMarkerExists
		}
		return fmt.Errorf("insert sent marker: %w", err)
	}
	return nil
}
