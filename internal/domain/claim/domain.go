package claim

import "time"

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

type Claim struct {
	ID           int64      `json:"id"`
	TenantID     int64      `json:"tenant_id"`
	CustomerName string     `json:"customer_name"`
	Subject      string     `json:"subject"`
	Status       Status     `json:"status"`
	AssigneeID   *int64     `json:"assignee_id"`
	SlaDueAt     *time.Time `json:"sla_due_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Overdue reports whether the claim's SLA deadline has passed without
// resolution as of now. Claims without a deadline never breach.
func (c *Claim) Overdue(now time.Time) bool {
	if c.SlaDueAt == nil || c.ResolvedAt != nil {
		return false
	}
	if c.Status == StatusResolved || c.Status == StatusClosed {
		return false
	}
	return c.SlaDueAt.Before(now)
}

// Counts is the digest aggregate for one visibility scope and window.
type Counts struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
	// Overdue counts unresolved claims in the scope whose SLA deadline
	// has passed, regardless of the window.
	Overdue int `json:"overdue"`
}

func (c Counts) Total() int { return c.Open + c.InProgress + c.Resolved + c.Closed }
