package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	kafkax "github.com/martirspe/reclamofacil-notifier/internal/repository/kafka"
)

// Controller bridges the claim lifecycle topic onto the fan-out. The
// handler always returns nil: lifecycle notifications are best effort,
// so a bad or undeliverable event is logged and its offset committed
// rather than poisoning the partition.
type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	Out *Fanout
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.JSONHandler(
		func(ctx context.Context, ev *kafkax.ClaimEvent) error {
			c.handle(ctx, ev)
			return nil
		},
		func(err error, value []byte) {
			c.Log.Warn("claim event: undecodable payload", zap.Error(err), zap.Int("len", len(value)))
		},
	)
	return c.Sub.Consume(ctx, handler)
}

func (c *Controller) handle(ctx context.Context, ev *kafkax.ClaimEvent) {
	if ev.TenantID <= 0 || ev.Claim.ID <= 0 {
		c.Log.Warn("claim event: missing tenant or claim id",
			zap.String("event_id", ev.ID), zap.String("type", ev.Type))
		return
	}

	cl := &claim.Claim{
		ID:           ev.Claim.ID,
		TenantID:     ev.TenantID,
		Subject:      ev.Claim.Subject,
		CustomerName: ev.Claim.CustomerName,
	}

	switch ev.Type {
	case kafkax.EventClaimCreated:
		c.Out.NotifyNewClaim(ctx, ev.TenantID, cl, ev.Claim.CustomerName, ev.PreferredUserIDs)
	case kafkax.EventClaimAssigned:
		c.Out.NotifyClaimAssigned(ctx, ev.TenantID, ev.AssigneeID, cl)
	case kafkax.EventClaimResolved:
		c.Out.NotifyClaimResolved(ctx, ev.TenantID, ev.AssigneeID, cl)
	default:
		c.Log.Debug("claim event: unknown type ignored", zap.String("type", ev.Type))
	}
}
