package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
)

// ErrNoData signals an empty digest window; whether that suppresses the
// send is tenant policy, decided by the coordinator.
var ErrNoData = errors.New("no claims in window")

// DigestPayload is the data behind one daily or weekly summary.
type DigestPayload struct {
	TenantName string
	UserName   string
	Kind       notification.Kind
	Window     notification.Window
	Counts     claim.Counts
	// AllClear marks an explicit empty digest for tenants that want one.
	AllClear bool
}

// SLAPayload is the data behind one breach alert.
type SLAPayload struct {
	TenantName string
	Claim      claim.Claim
	BreachAt   time.Time
	Overdue    time.Duration
}

// Generator builds payloads from claim state. Deterministic given the
// same repository contents: no clock reads, no side effects.
type Generator struct {
	Claims claim.Reader
}

func NewGenerator(claims claim.Reader) *Generator { return &Generator{Claims: claims} }

// Digest aggregates the unit's window under its visibility scope: a
// member sees only claims assigned to them, owners and admins see the
// whole tenant.
func (g *Generator) Digest(ctx context.Context, u *notification.Unit) (*DigestPayload, error) {
	var assigneeID *int64
	if !u.User.Role.IsAdmin() {
		id := u.User.ID
		assigneeID = &id
	}

	counts, err := g.Claims.AggregateCounts(ctx, u.Tenant.ID, assigneeID, u.Window.From, u.Window.To)
	if err != nil {
		return nil, fmt.Errorf("aggregate counts: %w", err)
	}
	if counts.Total() == 0 && counts.Overdue == 0 {
		return nil, ErrNoData
	}
	return &DigestPayload{
		TenantName: u.Tenant.Name,
		UserName:   u.User.FullName,
		Kind:       u.Kind,
		Window:     u.Window,
		Counts:     counts,
	}, nil
}

// AllClear is the explicit "nothing happened" digest for tenants whose
// policy requires one.
func AllClear(u *notification.Unit) *DigestPayload {
	return &DigestPayload{
		TenantName: u.Tenant.Name,
		UserName:   u.User.FullName,
		Kind:       u.Kind,
		Window:     u.Window,
		AllClear:   true,
	}
}

// SLA wraps the breaching claim with its overdue duration as of now.
func SLA(u *notification.Unit, now time.Time) *SLAPayload {
	return &SLAPayload{
		TenantName: u.Tenant.Name,
		Claim:      *u.Claim,
		BreachAt:   u.BreachAt,
		Overdue:    now.Sub(u.BreachAt),
	}
}
