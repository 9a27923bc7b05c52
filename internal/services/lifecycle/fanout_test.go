package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
)

type stubUsers struct {
	admins []*user.User
	err    error
}

func (s stubUsers) GetByID(context.Context, int64) (*user.User, error) {
	return nil, errors.New("unused")
}

func (s stubUsers) ListByTenant(context.Context, int64) ([]*user.User, error) {
	return nil, errors.New("unused")
}

func (s stubUsers) ListAdmins(context.Context, int64) ([]*user.User, error) {
	return s.admins, s.err
}

type stubInApp struct {
	rows []*notification.InApp
	err  error
}

func (s *stubInApp) Create(_ context.Context, n *notification.InApp) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, n)
	return nil
}

func (s *stubInApp) CreateBatch(ctx context.Context, ns []*notification.InApp) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, ns...)
	return nil
}

func (s *stubInApp) ListByUser(context.Context, int64, int64, int) ([]*notification.InApp, error) {
	return nil, errors.New("unused")
}

func (s *stubInApp) MarkRead(context.Context, int64, int64, int64) error {
	return errors.New("unused")
}

func admin(id int64) *user.User {
	return &user.User{ID: id, TenantID: 1, Role: user.RoleAdmin, Active: true}
}

func testClaim() *claim.Claim {
	return &claim.Claim{ID: 42, TenantID: 1, Subject: "damaged package"}
}

func TestNotifyNewClaim_AdminsPlusPreferredDeduped(t *testing.T) {
	inapp := &stubInApp{}
	f := NewFanout(zap.NewNop(), stubUsers{admins: []*user.User{admin(1), admin(2)}}, inapp)

	// User 2 is both an admin and a preferred recipient: one row.
	f.NotifyNewClaim(context.Background(), 1, testClaim(), "Ana", []int64{2, 7})

	require.Len(t, inapp.rows, 3)
	got := map[int64]bool{}
	for _, r := range inapp.rows {
		got[r.UserID] = true
		assert.Equal(t, notification.TypeInfo, r.Type)
	}
	assert.Equal(t, map[int64]bool{1: true, 2: true, 7: true}, got)
}

func TestNotifyNewClaim_NoRecipientsNoWrite(t *testing.T) {
	inapp := &stubInApp{}
	f := NewFanout(zap.NewNop(), stubUsers{}, inapp)

	f.NotifyNewClaim(context.Background(), 1, testClaim(), "Ana", nil)
	assert.Empty(t, inapp.rows)
}

func TestNotifyNewClaim_SwallowsRepoErrors(t *testing.T) {
	f := NewFanout(zap.NewNop(), stubUsers{err: errors.New("db down")}, &stubInApp{})

	require.NotPanics(t, func() {
		f.NotifyNewClaim(context.Background(), 1, testClaim(), "Ana", []int64{7})
	})
}

func TestNotifyNewClaim_SwallowsInsertErrors(t *testing.T) {
	inapp := &stubInApp{err: errors.New("insert failed")}
	f := NewFanout(zap.NewNop(), stubUsers{admins: []*user.User{admin(1)}}, inapp)

	require.NotPanics(t, func() {
		f.NotifyNewClaim(context.Background(), 1, testClaim(), "Ana", nil)
	})
}

func TestNotifyClaimAssigned_WritesOneRow(t *testing.T) {
	inapp := &stubInApp{}
	f := NewFanout(zap.NewNop(), stubUsers{}, inapp)

	f.NotifyClaimAssigned(context.Background(), 1, 7, testClaim())

	require.Len(t, inapp.rows, 1)
	assert.Equal(t, int64(7), inapp.rows[0].UserID)
	assert.Equal(t, notification.TypeWarning, inapp.rows[0].Type)
}

func TestNotifyClaimAssigned_ZeroUserNoOp(t *testing.T) {
	inapp := &stubInApp{}
	f := NewFanout(zap.NewNop(), stubUsers{}, inapp)

	f.NotifyClaimAssigned(context.Background(), 1, 0, testClaim())
	assert.Empty(t, inapp.rows)
}

func TestNotifyClaimResolved_WritesSuccessRow(t *testing.T) {
	inapp := &stubInApp{}
	f := NewFanout(zap.NewNop(), stubUsers{}, inapp)

	f.NotifyClaimResolved(context.Background(), 1, 7, testClaim())

	require.Len(t, inapp.rows, 1)
	assert.Equal(t, notification.TypeSuccess, inapp.rows[0].Type)
}
