package tenant

import "time"

type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	Active    bool      `json:"active"`
	// SendEmptyDigest keeps "all clear" digests flowing even when the
	// window has no claims.
	SendEmptyDigest bool      `json:"send_empty_digest"`
	CreatedAt       time.Time `json:"created_at"`
}

// Location resolves the tenant timezone, falling back to UTC when the
// stored name is empty or unknown.
func (t *Tenant) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
