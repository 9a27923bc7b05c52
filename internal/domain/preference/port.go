package preference

import (
	"context"
	"errors"
)

// ErrMarkerExists is returned by MarkSent when a concurrent dispatcher
// already recorded the same (user, kind, period).
var ErrMarkerExists = errors.New("sent marker exists")

// Store is the engine's view of the preference data owned by the CRUD
// backend. Read-only except for sent markers.
type Store interface {
	// ListCandidates returns every enabled preference of the given
	// frequency joined with its active user and active tenant. Due-ness
	// is computed by the caller: timezone math does not belong in SQL.
	ListCandidates(ctx context.Context, freq Frequency) ([]*Candidate, error)
	// GetCandidate narrows to one (tenant, user) pair for manual
	// triggers; it returns the candidate even when the preference is
	// disabled so "force" can override.
	GetCandidate(ctx context.Context, tenantID, userID int64) (*Candidate, error)

	HasSentMarker(ctx context.Context, tenantID, userID int64, kind, period string) (bool, error)
	// MarkSent records one delivery for (user, kind, period). The storage
	// layer returns ErrMarkerExists when a concurrent dispatcher won the
	// race; callers treat that as already handled.
	MarkSent(ctx context.Context, tenantID, userID int64, kind, period string) error
}
