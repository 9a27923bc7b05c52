package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
)

func digestUnit(t *testing.T, kind notification.Kind, isAdmin bool) *notification.Unit {
	t.Helper()
	ten := activeTenant(1)
	u := memberUser(10, 1)
	if isAdmin {
		u = adminUser(10, 1)
	}
	ref := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return &notification.Unit{
		Tenant: *ten,
		User:   u,
		Kind:   kind,
		Window: notification.DailyWindow(ref, time.UTC),
	}
}

func TestDigest_AdminSeesWholeTenant(t *testing.T) {
	claims := newFakeClaims()
	claims.counts = claim.Counts{Open: 3, Resolved: 1}
	g := NewGenerator(claims)

	p, err := g.Digest(context.Background(), digestUnit(t, notification.KindDaily, true))
	require.NoError(t, err)

	assert.True(t, claims.sawNil, "admin scope must query tenant-wide")
	assert.Equal(t, 3, p.Counts.Open)
	assert.False(t, p.AllClear)
}

func TestDigest_MemberScopedToOwnAssignments(t *testing.T) {
	claims := newFakeClaims()
	claims.counts = claim.Counts{Open: 1}
	g := NewGenerator(claims)

	_, err := g.Digest(context.Background(), digestUnit(t, notification.KindDaily, false))
	require.NoError(t, err)

	require.NotNil(t, claims.lastAssignee)
	assert.Equal(t, int64(10), *claims.lastAssignee)
}

func TestDigest_EmptyWindowIsErrNoData(t *testing.T) {
	g := NewGenerator(newFakeClaims())

	_, err := g.Digest(context.Background(), digestUnit(t, notification.KindDaily, true))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDigest_OverdueAloneIsData(t *testing.T) {
	// Zero activity in the window but a standing breach still makes a
	// digest worth sending.
	claims := newFakeClaims()
	claims.counts = claim.Counts{Overdue: 2}
	g := NewGenerator(claims)

	p, err := g.Digest(context.Background(), digestUnit(t, notification.KindDaily, true))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Counts.Overdue)
}

func TestDigest_DeterministicForSameState(t *testing.T) {
	claims := newFakeClaims()
	claims.counts = claim.Counts{Open: 2, InProgress: 1, Overdue: 1}
	g := NewGenerator(claims)
	u := digestUnit(t, notification.KindWeekly, true)

	a, err := g.Digest(context.Background(), u)
	require.NoError(t, err)
	b, err := g.Digest(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSLA_OverdueDuration(t *testing.T) {
	breach := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	now := breach.Add(90 * time.Minute)
	u := digestUnit(t, notification.KindSLA, true)
	u.Claim = &claim.Claim{ID: 7, TenantID: 1, Subject: "broken order"}
	u.BreachAt = breach

	p := SLA(u, now)
	assert.Equal(t, 90*time.Minute, p.Overdue)
	assert.Equal(t, int64(7), p.Claim.ID)
}

func TestRenderDigest_AllClearMentionsNoActivity(t *testing.T) {
	u := digestUnit(t, notification.KindDaily, true)
	subject, body := renderDigestEmail(AllClear(u))
	assert.NotEmpty(t, subject)
	assert.Contains(t, body, "No claim activity")
}
