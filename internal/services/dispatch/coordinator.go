package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/preference"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/tenant"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
	"github.com/martirspe/reclamofacil-notifier/internal/obs"
	"github.com/martirspe/reclamofacil-notifier/internal/obs/retry"
)

// Coordinator turns one unit of work into an outcome: generate, render,
// deliver, record. It never panics or raises past the unit boundary;
// every internal failure becomes a failed outcome so the batch keeps
// draining.
type Coordinator struct {
	Log     *zap.Logger
	Gen     *Generator
	Tenants tenant.Repo
	Prefs   preference.Store
	Markers claim.Markers
	Email   notification.EmailSender
	InApp   notification.Repo
	Clock   notification.Clock
}

func (c *Coordinator) Dispatch(ctx context.Context, u *notification.Unit) (out notification.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = notification.Outcome{
				Unit:   u,
				Status: notification.StatusFailed,
				Err:    fmt.Errorf("dispatch panic: %v", r),
			}
		}
	}()

	tr := otel.Tracer("dispatch")
	ctx, span := tr.Start(ctx, "dispatch.unit", trace.WithAttributes(
		attribute.String("kind", string(u.Kind)),
		attribute.Int64("tenant.id", u.Tenant.ID),
		attribute.Int64("user.id", u.User.ID),
	))
	defer func() {
		if out.Err != nil {
			span.RecordError(out.Err)
		}
		span.SetAttributes(attribute.String("outcome", string(out.Status)))
		span.End()
	}()

	// Re-check the tenant: it may have been deactivated between
	// enumeration and dispatch. Excluded, not failed.
	t, err := c.Tenants.GetByID(ctx, u.Tenant.ID)
	if err != nil {
		return c.failed(ctx, u, fmt.Errorf("get tenant %d: %w", u.Tenant.ID, err))
	}
	if !t.Active {
		return notification.Outcome{Unit: u, Status: notification.StatusExcluded}
	}
	u.Tenant = *t

	if u.Kind == notification.KindSLA {
		return c.dispatchSLA(ctx, u)
	}
	return c.dispatchDigest(ctx, u)
}

func (c *Coordinator) dispatchDigest(ctx context.Context, u *notification.Unit) notification.Outcome {
	if !u.Force {
		sent, err := c.Prefs.HasSentMarker(ctx, u.Tenant.ID, u.User.ID, string(u.Kind), u.Period)
		if err != nil {
			return c.failed(ctx, u, fmt.Errorf("sent marker lookup: %w", err))
		}
		if sent {
			return notification.Outcome{Unit: u, Status: notification.StatusSkipped}
		}
	}

	payload, err := c.Gen.Digest(ctx, u)
	switch {
	case errors.Is(err, ErrNoData):
		if !u.Tenant.SendEmptyDigest {
			return notification.Outcome{Unit: u, Status: notification.StatusSkipped}
		}
		payload = AllClear(u)
	case err != nil:
		return c.failed(ctx, u, fmt.Errorf("generate digest: %w", err))
	}

	if u.Pref.EmailEnabled && u.User.Email != "" {
		subject, body := renderDigestEmail(payload)
		if err := c.sendEmail(ctx, u.User.Email, subject, body); err != nil {
			return c.failed(ctx, u, fmt.Errorf("email digest to user %d: %w", u.User.ID, err))
		}
	}
	if u.Pref.InAppEnabled {
		title, desc := renderDigestInApp(payload)
		row := &notification.InApp{
			TenantID:    u.Tenant.ID,
			UserID:      u.User.ID,
			Title:       title,
			Description: desc,
			Type:        notification.TypeInfo,
		}
		if err := c.InApp.Create(ctx, row); err != nil {
			return c.failed(ctx, u, fmt.Errorf("inapp digest for user %d: %w", u.User.ID, err))
		}
	}

	// The marker moves only after every enabled channel delivered, so a
	// failed unit stays eligible on the next cadence.
	err = c.Prefs.MarkSent(ctx, u.Tenant.ID, u.User.ID, string(u.Kind), u.Period)
	if errors.Is(err, preference.ErrMarkerExists) {
		// Lost a race against a concurrent dispatcher: already handled.
		return notification.Outcome{Unit: u, Status: notification.StatusSent}
	}
	if err != nil {
		return c.failed(ctx, u, fmt.Errorf("mark sent: %w", err))
	}
	return notification.Outcome{Unit: u, Status: notification.StatusSent}
}

func (c *Coordinator) dispatchSLA(ctx context.Context, u *notification.Unit) notification.Outcome {
	seen, err := c.Markers.HasSlaMarker(ctx, u.Claim.ID, u.BreachAt)
	if err != nil {
		return c.failed(ctx, u, fmt.Errorf("sla marker lookup: %w", err))
	}
	if seen {
		return notification.Outcome{Unit: u, Status: notification.StatusSkipped}
	}

	payload := SLA(u, c.Clock.Now())
	subject, body := renderSLAEmail(payload)
	title, desc := renderSLAInApp(payload)

	recipients := u.Recipients
	if len(recipients) == 0 {
		recipients = []user.User{u.User}
	}

	// SLA alerts are mandatory: both channels, no preference gate.
	rows := make([]*notification.InApp, 0, len(recipients))
	for _, rcpt := range recipients {
		if rcpt.Email != "" {
			if err := c.sendEmail(ctx, rcpt.Email, subject, body); err != nil {
				return c.failed(ctx, u, fmt.Errorf("email sla alert to user %d: %w", rcpt.ID, err))
			}
		}
		rows = append(rows, &notification.InApp{
			TenantID:    u.Tenant.ID,
			UserID:      rcpt.ID,
			Title:       title,
			Description: desc,
			Type:        notification.TypeError,
		})
	}
	if err := c.InApp.CreateBatch(ctx, rows); err != nil {
		return c.failed(ctx, u, fmt.Errorf("inapp sla alert: %w", err))
	}

	err = c.Markers.MarkSlaNotified(ctx, u.Claim.ID, u.BreachAt)
	if errors.Is(err, claim.ErrMarkerExists) {
		return notification.Outcome{Unit: u, Status: notification.StatusSent}
	}
	if err != nil {
		// Delivery happened but the marker did not land: surface as a
		// failure so the operator sees it. The next tick may re-alert;
		// at-least-once is the contract here.
		return c.failed(ctx, u, fmt.Errorf("mark sla notified: %w", err))
	}
	return notification.Outcome{Unit: u, Status: notification.StatusSent}
}

func (c *Coordinator) sendEmail(ctx context.Context, to, subject, body string) error {
	return retry.Do(ctx, func() error {
		return c.Email.Send(ctx, to, subject, body)
	}, retry.EmailPolicy(c.Log))
}

func (c *Coordinator) failed(ctx context.Context, u *notification.Unit, err error) notification.Outcome {
	obs.WithTrace(ctx, c.Log).Warn("unit dispatch failed",
		zap.String("kind", string(u.Kind)),
		zap.Int64("tenant_id", u.Tenant.ID),
		zap.Int64("user_id", u.User.ID),
		zap.Error(err),
	)
	return notification.Outcome{Unit: u, Status: notification.StatusFailed, Err: err}
}
