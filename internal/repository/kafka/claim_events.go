package kafka

import (
	"context"
	"encoding/json"
	"time"
)

// Claim lifecycle event types published by the CRUD backend.
const (
	EventClaimCreated  = "claim.created"
	EventClaimAssigned = "claim.assigned"
	EventClaimResolved = "claim.resolved"
)

// ClaimEvent is the JSON envelope on the claim lifecycle topic.
type ClaimEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	TenantID int64  `json:"tenant_id"`
	Claim    struct {
		ID           int64  `json:"id"`
		Subject      string `json:"subject"`
		CustomerName string `json:"customer_name"`
	} `json:"claim"`
	// AssigneeID carries the target user for assigned/resolved events.
	AssigneeID int64 `json:"assignee_id,omitempty"`
	// PreferredUserIDs widens the claim.created recipient set beyond
	// tenant admins (e.g. a round-robin assignee).
	PreferredUserIDs []int64   `json:"preferred_user_ids,omitempty"`
	At               time.Time `json:"at"`
}

// JSONHandler adapts a typed event callback onto the raw consumer
// Handler. Payloads that do not decode are logged upstream and dropped
// by returning nil, so a poison message never wedges the partition.
func JSONHandler(onEvent func(ctx context.Context, ev *ClaimEvent) error, onDecodeErr func(err error, value []byte)) Handler {
	return func(ctx context.Context, _, value []byte) error {
		var ev ClaimEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			if onDecodeErr != nil {
				onDecodeErr(err, value)
			}
			return nil
		}
		return onEvent(ctx, &ev)
	}
}
