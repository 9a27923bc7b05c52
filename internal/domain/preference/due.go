package preference

import (
	"fmt"
	"time"
)

// DailyPeriod is the idempotency key for one local calendar day.
func DailyPeriod(local time.Time) string {
	return local.Format("2006-01-02")
}

// WeeklyPeriod is the idempotency key for one ISO week.
func WeeklyPeriod(local time.Time) string {
	year, week := local.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// isoIndex maps a weekday onto the ISO week order, Monday = 0.
func isoIndex(d time.Weekday) int { return (int(d) + 6) % 7 }

// sendTimeOn places the preferred wall-clock time onto the given local
// date. A preferred time that falls into a DST gap normalizes forward to
// the nearest valid instant.
func (p *Preference) sendTimeOn(local time.Time, loc *time.Location) time.Time {
	return time.Date(local.Year(), local.Month(), local.Day(), p.SendHour, p.SendMinute, 0, 0, loc)
}

// DueAt reports whether the preferred send time has passed within the
// current period, evaluated in the preference's own timezone. The sent
// marker, not this predicate, prevents double sends: DueAt keeps
// answering true for the rest of the period so a failed unit stays
// eligible on the next cadence.
func (p *Preference) DueAt(ref time.Time, fallback *time.Location) bool {
	if !p.Enabled {
		return false
	}
	loc := p.Location(fallback)
	local := ref.In(loc)

	switch p.Frequency {
	case FrequencyDaily:
		return !local.Before(p.sendTimeOn(local, loc))
	case FrequencyWeekly:
		// Due from the anchor day's send time until the ISO week ends,
		// so an engine that was down on the anchor day still catches up.
		delta := isoIndex(local.Weekday()) - isoIndex(p.WeeklyDay)
		if delta < 0 {
			return false
		}
		anchor := p.sendTimeOn(local.AddDate(0, 0, -delta), loc)
		return !local.Before(anchor)
	default:
		return false
	}
}

// PeriodAt returns the marker period for ref under this preference's
// frequency and timezone.
func (p *Preference) PeriodAt(ref time.Time, fallback *time.Location) string {
	local := ref.In(p.Location(fallback))
	if p.Frequency == FrequencyWeekly {
		return WeeklyPeriod(local)
	}
	return DailyPeriod(local)
}
