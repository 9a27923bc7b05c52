package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
	kafkax "github.com/martirspe/reclamofacil-notifier/internal/repository/kafka"
)

func claimEvent(typ string) *kafkax.ClaimEvent {
	ev := &kafkax.ClaimEvent{ID: "ev-1", Type: typ, TenantID: 1}
	ev.Claim.ID = 42
	ev.Claim.Subject = "damaged package"
	ev.Claim.CustomerName = "Ana"
	return ev
}

func newTestController(inapp *stubInApp) *Controller {
	return &Controller{
		Log: zap.NewNop(),
		Out: NewFanout(zap.NewNop(), stubUsers{admins: []*user.User{admin(1)}}, inapp),
	}
}

func TestHandle_CreatedFansOutToAdmins(t *testing.T) {
	inapp := &stubInApp{}
	c := newTestController(inapp)

	c.handle(context.Background(), claimEvent(kafkax.EventClaimCreated))

	require.Len(t, inapp.rows, 1)
	assert.Equal(t, int64(1), inapp.rows[0].UserID)
	assert.Contains(t, inapp.rows[0].Description, "damaged package")
}

func TestHandle_AssignedTargetsAssignee(t *testing.T) {
	inapp := &stubInApp{}
	c := newTestController(inapp)

	ev := claimEvent(kafkax.EventClaimAssigned)
	ev.AssigneeID = 7
	c.handle(context.Background(), ev)

	require.Len(t, inapp.rows, 1)
	assert.Equal(t, int64(7), inapp.rows[0].UserID)
}

func TestHandle_InvalidIDsDropped(t *testing.T) {
	inapp := &stubInApp{}
	c := newTestController(inapp)

	ev := claimEvent(kafkax.EventClaimCreated)
	ev.TenantID = 0
	c.handle(context.Background(), ev)

	assert.Empty(t, inapp.rows)
}

func TestHandle_UnknownTypeIgnored(t *testing.T) {
	inapp := &stubInApp{}
	c := newTestController(inapp)

	c.handle(context.Background(), claimEvent("claim.archived"))
	assert.Empty(t, inapp.rows)
}
