package preference

import (
	"time"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/tenant"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
)

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	FrequencyNone   Frequency = "none"
)

// Preference holds one user's digest settings inside one tenant.
type Preference struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	UserID    int64     `json:"user_id"`
	Enabled   bool      `json:"enabled"`
	Frequency Frequency `json:"frequency"`
	// Preferred send time, wall clock in the user's timezone (or the
	// tenant's when Timezone is empty).
	SendHour     int          `json:"send_hour"`
	SendMinute   int          `json:"send_minute"`
	WeeklyDay    time.Weekday `json:"weekly_day"`
	Timezone     string       `json:"timezone"`
	EmailEnabled bool         `json:"email_enabled"`
	InAppEnabled bool         `json:"inapp_enabled"`
}

// Location resolves the preference timezone, falling back to the given
// location (normally the tenant's) when unset or unparsable.
func (p *Preference) Location(fallback *time.Location) *time.Location {
	if p.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// Candidate is one enumerated (tenant, user, preference) triple, the raw
// material for a unit of work.
type Candidate struct {
	Tenant tenant.Tenant
	User   user.User
	Pref   Preference
}
