package notification

import (
	"context"
	"time"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/preference"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/tenant"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
)

type Kind string

const (
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
	KindSLA    Kind = "sla"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// InApp is a persisted in-app notification row, polled by the UI.
type InApp struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"tenant_id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        Type      `json:"type"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Clock interface {
	Now() time.Time
}

// Window is the half-open [From, To) interval a digest summarizes.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// DailyWindow spans from local midnight to ref.
func DailyWindow(ref time.Time, loc *time.Location) Window {
	local := ref.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{From: from, To: local}
}

// WeeklyWindow spans from the ISO week's Monday midnight to ref.
func WeeklyWindow(ref time.Time, loc *time.Location) Window {
	local := ref.In(loc)
	back := (int(local.Weekday()) + 6) % 7
	monday := local.AddDate(0, 0, -back)
	from := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc)
	return Window{From: from, To: local}
}

// Unit is one candidate send, built during enumeration and discarded
// after its outcome is recorded. Digest units carry Pref and Period; SLA
// units carry Claim, BreachAt and the mandatory recipient set instead.
type Unit struct {
	Tenant tenant.Tenant
	User   user.User
	Kind   Kind
	Window Window

	Pref   *preference.Preference
	Period string
	// Force skips the sent-marker gate; set only by manual triggers.
	Force bool

	Claim      *claim.Claim
	BreachAt   time.Time
	Recipients []user.User
}
