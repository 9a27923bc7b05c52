package lifecycle

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
)

var (
	mFanout = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_lifecycle_rows_total", Help: "In-app rows written per lifecycle event type.",
	}, []string{"event"})
	mFanoutErrs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_lifecycle_errors_total", Help: "Swallowed lifecycle notification failures.",
	}, []string{"event"})
)

// Fanout writes in-app rows for claim lifecycle events. Best effort by
// contract: no method returns an error, because the claim operation that
// triggered the event must succeed regardless of notification health.
// This is deliberately the opposite of the digest/SLA path, which holds
// back its marker and retries.
type Fanout struct {
	log   *zap.Logger
	users user.Repo
	inapp notification.Repo
}

func NewFanout(log *zap.Logger, users user.Repo, inapp notification.Repo) *Fanout {
	return &Fanout{
		log:   log.With(zap.String("component", "lifecycle.fanout")),
		users: users,
		inapp: inapp,
	}
}

// NotifyNewClaim fans a "new claim" row out to every tenant owner and
// admin plus any explicitly preferred users, one row per unique
// recipient in a single bulk write. An empty recipient set is a no-op.
func (f *Fanout) NotifyNewClaim(ctx context.Context, tenantID int64, cl *claim.Claim, customer string, preferredUserIDs []int64) {
	const event = "claim.created"

	admins, err := f.users.ListAdmins(ctx, tenantID)
	if err != nil {
		f.swallow(event, tenantID, fmt.Errorf("list admins: %w", err))
		return
	}

	seen := make(map[int64]struct{}, len(admins)+len(preferredUserIDs))
	ids := make([]int64, 0, len(admins)+len(preferredUserIDs))
	for _, a := range admins {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		ids = append(ids, a.ID)
	}
	for _, id := range preferredUserIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}

	title := "New claim received"
	desc := fmt.Sprintf("Claim #%d (%s) from %s.", cl.ID, cl.Subject, customer)
	rows := make([]*notification.InApp, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, &notification.InApp{
			TenantID:    tenantID,
			UserID:      id,
			Title:       title,
			Description: desc,
			Type:        notification.TypeInfo,
		})
	}
	if err := f.inapp.CreateBatch(ctx, rows); err != nil {
		f.swallow(event, tenantID, fmt.Errorf("bulk insert %d rows: %w", len(rows), err))
		return
	}
	mFanout.WithLabelValues(event).Add(float64(len(rows)))
}

// NotifyClaimAssigned notifies the assignee. No-op when userID is zero.
func (f *Fanout) NotifyClaimAssigned(ctx context.Context, tenantID, userID int64, cl *claim.Claim) {
	f.single(ctx, "claim.assigned", tenantID, userID, &notification.InApp{
		TenantID:    tenantID,
		UserID:      userID,
		Title:       "Claim assigned to you",
		Description: fmt.Sprintf("Claim #%d (%s) is now yours.", cl.ID, cl.Subject),
		Type:        notification.TypeWarning,
	})
}

// NotifyClaimResolved notifies the resolving user. No-op when userID is
// zero.
func (f *Fanout) NotifyClaimResolved(ctx context.Context, tenantID, userID int64, cl *claim.Claim) {
	f.single(ctx, "claim.resolved", tenantID, userID, &notification.InApp{
		TenantID:    tenantID,
		UserID:      userID,
		Title:       "Claim resolved",
		Description: fmt.Sprintf("Claim #%d (%s) was resolved.", cl.ID, cl.Subject),
		Type:        notification.TypeSuccess,
	})
}

func (f *Fanout) single(ctx context.Context, event string, tenantID, userID int64, row *notification.InApp) {
	if userID == 0 {
		return
	}
	if err := f.inapp.Create(ctx, row); err != nil {
		f.swallow(event, tenantID, fmt.Errorf("insert row for user %d: %w", userID, err))
		return
	}
	mFanout.WithLabelValues(event).Inc()
}

func (f *Fanout) swallow(event string, tenantID int64, err error) {
	mFanoutErrs.WithLabelValues(event).Inc()
	f.log.Warn("lifecycle notification dropped",
		zap.String("event", event),
		zap.Int64("tenant_id", tenantID),
		zap.Error(err),
	)
}
