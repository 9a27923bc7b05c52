package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/preference"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/tenant"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
)

type fakeClaims struct {
	mu       sync.Mutex
	counts   claim.Counts
	countErr error
	overdue  []*claim.Claim

	slaMarkers map[string]bool
	markErr    error

	lastAssignee *int64
	sawNil       bool
}

func newFakeClaims() *fakeClaims {
	return &fakeClaims{slaMarkers: map[string]bool{}}
}

func slaKey(claimID int64, breachAt time.Time) string {
	return fmt.Sprintf("%d|%d", claimID, breachAt.Unix())
}

func (f *fakeClaims) AggregateCounts(_ context.Context, _ int64, assigneeID *int64, _, _ time.Time) (claim.Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAssignee = assigneeID
	f.sawNil = assigneeID == nil
	return f.counts, f.countErr
}

func (f *fakeClaims) ListOverdueUnresolved(_ context.Context, tenantID int64, _ time.Time) ([]*claim.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*claim.Claim
	for _, cl := range f.overdue {
		if cl.TenantID == tenantID {
			out = append(out, cl)
		}
	}
	return out, nil
}

func (f *fakeClaims) HasSlaMarker(_ context.Context, claimID int64, breachAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slaMarkers[slaKey(claimID, breachAt)], nil
}

func (f *fakeClaims) MarkSlaNotified(_ context.Context, claimID int64, breachAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	k := slaKey(claimID, breachAt)
	if f.slaMarkers[k] {
		return claim.ErrMarkerExists
	}
	f.slaMarkers[k] = true
	return nil
}

type fakeTenants struct {
	mu      sync.Mutex
	tenants map[int64]*tenant.Tenant
}

func newFakeTenants(ts ...*tenant.Tenant) *fakeTenants {
	f := &fakeTenants{tenants: map[int64]*tenant.Tenant{}}
	for _, t := range ts {
		f.tenants[t.ID] = t
	}
	return f
}

func (f *fakeTenants) GetByID(_ context.Context, id int64) (*tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, errors.New("tenant not found")
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTenants) ListActive(_ context.Context) ([]*tenant.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*tenant.Tenant
	for _, t := range f.tenants {
		if t.Active {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakePrefs struct {
	mu         sync.Mutex
	candidates []*preference.Candidate
	markers    map[string]bool
	markErr    error
}

func newFakePrefs(cs ...*preference.Candidate) *fakePrefs {
	return &fakePrefs{candidates: cs, markers: map[string]bool{}}
}

func sentKey(tenantID, userID int64, kind, period string) string {
	return fmt.Sprintf("%d|%d|%s|%s", tenantID, userID, kind, period)
}

func (f *fakePrefs) ListCandidates(_ context.Context, freq preference.Frequency) ([]*preference.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*preference.Candidate
	for _, c := range f.candidates {
		if c.Pref.Enabled && c.Pref.Frequency == freq && c.User.Active && c.Tenant.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakePrefs) GetCandidate(_ context.Context, tenantID, userID int64) (*preference.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.candidates {
		if c.Tenant.ID == tenantID && c.User.ID == userID {
			return c, nil
		}
	}
	return nil, errors.New("candidate not found")
}

func (f *fakePrefs) HasSentMarker(_ context.Context, tenantID, userID int64, kind, period string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.markers[sentKey(tenantID, userID, kind, period)], nil
}

func (f *fakePrefs) MarkSent(_ context.Context, tenantID, userID int64, kind, period string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	k := sentKey(tenantID, userID, kind, period)
	if f.markers[k] {
		return preference.ErrMarkerExists
	}
	f.markers[k] = true
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeEmail) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeEmail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeInApp struct {
	mu   sync.Mutex
	rows []*notification.InApp
	err  error
}

func (f *fakeInApp) Create(_ context.Context, n *notification.InApp) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	n.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, n)
	return nil
}

func (f *fakeInApp) CreateBatch(_ context.Context, ns []*notification.InApp) error {
	for _, n := range ns {
		if err := f.Create(nil, n); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeInApp) ListByUser(_ context.Context, tenantID, userID int64, _ int) ([]*notification.InApp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*notification.InApp
	for _, n := range f.rows {
		if n.TenantID == tenantID && n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeInApp) MarkRead(_ context.Context, tenantID, userID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id && n.TenantID == tenantID && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeInApp) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func activeTenant(id int64) *tenant.Tenant {
	return &tenant.Tenant{ID: id, Name: fmt.Sprintf("tenant-%d", id), Timezone: "UTC", Active: true}
}

func memberUser(id, tenantID int64) user.User {
	return user.User{
		ID:       id,
		TenantID: tenantID,
		Email:    fmt.Sprintf("user%d@example.com", id),
		FullName: fmt.Sprintf("User %d", id),
		Role:     user.RoleMember,
		Active:   true,
	}
}

func adminUser(id, tenantID int64) user.User {
	u := memberUser(id, tenantID)
	u.Role = user.RoleAdmin
	return u
}
