package claim

import (
	"context"
	"errors"
	"time"
)

// ErrMarkerExists is returned by MarkSlaNotified when a concurrent
// dispatcher already recorded the same breach.
var ErrMarkerExists = errors.New("sla marker exists")

// Reader is the read side the content generator depends on.
type Reader interface {
	// AggregateCounts aggregates claims created or updated inside
	// [from, to). A nil assigneeID means tenant-wide visibility;
	// otherwise only claims assigned to that user are counted.
	AggregateCounts(ctx context.Context, tenantID int64, assigneeID *int64, from, to time.Time) (Counts, error)
	ListOverdueUnresolved(ctx context.Context, tenantID int64, asOf time.Time) ([]*Claim, error)
}

// Markers records SLA breach notifications, keyed by (claim, breach
// instant) so a claim that stays overdue across many ticks alerts once.
type Markers interface {
	HasSlaMarker(ctx context.Context, claimID int64, breachAt time.Time) (bool, error)
	// MarkSlaNotified returns ErrMarkerExists when a concurrent
	// dispatcher already recorded the same breach.
	MarkSlaNotified(ctx context.Context, claimID int64, breachAt time.Time) error
}

type Repo interface {
	Reader
	Markers
}
