package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/claim"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/preference"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/tenant"
	"github.com/martirspe/reclamofacil-notifier/internal/domain/user"
)

// Dispatcher is the unit boundary: it converts one unit into an outcome
// and never raises.
type Dispatcher interface {
	Dispatch(ctx context.Context, u *notification.Unit) notification.Outcome
}

type Config struct {
	DailyEvery  time.Duration `mapstructure:"daily_every"`
	WeeklyEvery time.Duration `mapstructure:"weekly_every"`
	SLAEvery    time.Duration `mapstructure:"sla_every"`
	// SLAOffset delays the SLA cadence so it does not fire in lockstep
	// with the daily check.
	SLAOffset   time.Duration `mapstructure:"sla_offset"`
	Concurrency int           `mapstructure:"concurrency"`
}

// Engine owns the three cadences and the tick entry points shared by the
// timer and manual-trigger paths. No state survives a tick except what
// the repositories persist.
type Engine struct {
	log     *zap.Logger
	cfg     Config
	prefs   preference.Store
	tenants tenant.Repo
	users   user.Repo
	claims  claim.Repo
	disp    Dispatcher
	clock   notification.Clock

	// Per-kind locks keep two ticks of the same cadence from running
	// concurrently; different kinds overlap freely.
	tickMu [3]sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	baseCtx context.Context
	wg      sync.WaitGroup
}

func New(
	log *zap.Logger,
	cfg Config,
	prefs preference.Store,
	tenants tenant.Repo,
	users user.Repo,
	claims claim.Repo,
	disp Dispatcher,
	clock notification.Clock,
) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	return &Engine{
		log:     log,
		cfg:     cfg,
		prefs:   prefs,
		tenants: tenants,
		users:   users,
		claims:  claims,
		disp:    disp,
		clock:   clock,
	}
}

func (e *Engine) tickLock(kind notification.Kind) *sync.Mutex {
	switch kind {
	case notification.KindWeekly:
		return &e.tickMu[1]
	case notification.KindSLA:
		return &e.tickMu[2]
	default:
		return &e.tickMu[0]
	}
}

// scope narrows a tick. The zero value is the full scheduled pass.
type scope struct {
	tenantID *int64
	userID   *int64
	// bypassDue treats every candidate as due; set by scoped manual
	// triggers so admin resends do not wait for the preferred time.
	bypassDue bool
	force     bool
}

// Tick runs one evaluation pass for the kind at ref. It serializes
// against other ticks of the same kind, never raises, and returns the
// aggregate summary. Safe to call after Stop.
func (e *Engine) Tick(ctx context.Context, kind notification.Kind, ref time.Time) notification.Summary {
	return e.tick(ctx, kind, ref, scope{})
}

// TriggerDaily re-runs the daily digest path for an administrative
// scope: one (tenant, user) pair, one tenant, or everyone. Scoped
// triggers skip the due-ness gate; force additionally skips the sent
// marker.
func (e *Engine) TriggerDaily(ctx context.Context, tenantID, userID *int64, force bool) notification.Summary {
	sc := scope{tenantID: tenantID, userID: userID, force: force}
	sc.bypassDue = tenantID != nil || userID != nil
	return e.tick(ctx, notification.KindDaily, e.clock.Now(), sc)
}

// TriggerWeekly is TriggerDaily's weekly counterpart, scoped at most to
// one tenant.
func (e *Engine) TriggerWeekly(ctx context.Context, tenantID *int64, force bool) notification.Summary {
	sc := scope{tenantID: tenantID, force: force}
	sc.bypassDue = tenantID != nil
	return e.tick(ctx, notification.KindWeekly, e.clock.Now(), sc)
}

func (e *Engine) tick(ctx context.Context, kind notification.Kind, ref time.Time, sc scope) notification.Summary {
	lock := e.tickLock(kind)
	lock.Lock()
	defer lock.Unlock()
	return e.tickLocked(ctx, kind, ref, sc)
}

// tickLocked runs the pass; the caller must hold the kind's tick lock.
func (e *Engine) tickLocked(ctx context.Context, kind notification.Kind, ref time.Time, sc scope) notification.Summary {
	ref = ref.Truncate(time.Minute)

	tr := otel.Tracer("scheduler")
	ctx, span := tr.Start(ctx, "scheduler.tick", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("ref", ref.UTC().Format(time.RFC3339)),
	))
	defer span.End()

	var (
		units    []*notification.Unit
		enumErrs []string
	)
	if kind == notification.KindSLA {
		units, enumErrs = e.enumerateSLA(ctx, ref)
	} else {
		units, enumErrs = e.enumerateDigest(ctx, kind, ref, sc)
	}

	outcomes := make([]notification.Outcome, len(units))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Concurrency)
	for i, u := range units {
		eg.Go(func() error {
			// Dispatch never returns an error: failures live inside the
			// outcome so one unit cannot abort the batch.
			outcomes[i] = e.disp.Dispatch(egCtx, u)
			return nil
		})
	}
	_ = eg.Wait()

	sum := notification.Fold(outcomes)
	sum.Errors = append(enumErrs, sum.Errors...)

	span.SetAttributes(
		attribute.Int("units", len(units)),
		attribute.Int("sent", sum.Sent),
		attribute.Int("failed", sum.Failed),
	)
	return sum
}

func frequencyFor(kind notification.Kind) preference.Frequency {
	if kind == notification.KindWeekly {
		return preference.FrequencyWeekly
	}
	return preference.FrequencyDaily
}

func windowFor(kind notification.Kind, ref time.Time, loc *time.Location) notification.Window {
	if kind == notification.KindWeekly {
		return notification.WeeklyWindow(ref, loc)
	}
	return notification.DailyWindow(ref, loc)
}

func (e *Engine) enumerateDigest(ctx context.Context, kind notification.Kind, ref time.Time, sc scope) ([]*notification.Unit, []string) {
	var (
		cands []*preference.Candidate
		err   error
	)
	if sc.tenantID != nil && sc.userID != nil {
		var c *preference.Candidate
		c, err = e.prefs.GetCandidate(ctx, *sc.tenantID, *sc.userID)
		if c != nil {
			cands = []*preference.Candidate{c}
		}
	} else {
		cands, err = e.prefs.ListCandidates(ctx, frequencyFor(kind))
	}
	if err != nil {
		return nil, []string{fmt.Sprintf("enumerate candidates: %v", err)}
	}

	units := make([]*notification.Unit, 0, len(cands))
	for _, cand := range cands {
		if sc.tenantID != nil && cand.Tenant.ID != *sc.tenantID {
			continue
		}
		loc := cand.Pref.Location(cand.Tenant.Location())
		if !sc.bypassDue && !cand.Pref.DueAt(ref, cand.Tenant.Location()) {
			continue
		}
		pref := cand.Pref
		units = append(units, &notification.Unit{
			Tenant: cand.Tenant,
			User:   cand.User,
			Kind:   kind,
			Window: windowFor(kind, ref, loc),
			Pref:   &pref,
			Period: pref.PeriodAt(ref, cand.Tenant.Location()),
			Force:  sc.force,
		})
	}
	return units, nil
}

func (e *Engine) enumerateSLA(ctx context.Context, ref time.Time) ([]*notification.Unit, []string) {
	tenants, err := e.tenants.ListActive(ctx)
	if err != nil {
		return nil, []string{fmt.Sprintf("list tenants: %v", err)}
	}

	var (
		units []*notification.Unit
		errs  []string
	)
	for _, t := range tenants {
		overdue, err := e.claims.ListOverdueUnresolved(ctx, t.ID, ref)
		if err != nil {
			errs = append(errs, fmt.Sprintf("tenant %d: list overdue: %v", t.ID, err))
			continue
		}
		if len(overdue) == 0 {
			continue
		}

		var admins []*user.User
		for _, cl := range overdue {
			breachAt := *cl.SlaDueAt
			seen, err := e.claims.HasSlaMarker(ctx, cl.ID, breachAt)
			if err != nil {
				errs = append(errs, fmt.Sprintf("claim %d: sla marker lookup: %v", cl.ID, err))
				continue
			}
			if seen {
				continue
			}

			recipients, rErr := e.slaRecipients(ctx, t.ID, cl, &admins)
			if rErr != nil {
				errs = append(errs, fmt.Sprintf("claim %d: resolve recipients: %v", cl.ID, rErr))
				continue
			}
			if len(recipients) == 0 {
				continue
			}

			units = append(units, &notification.Unit{
				Tenant:     *t,
				User:       recipients[0],
				Kind:       notification.KindSLA,
				Window:     notification.Window{From: breachAt, To: ref},
				Claim:      cl,
				BreachAt:   breachAt,
				Recipients: recipients,
			})
		}
	}
	return units, errs
}

// slaRecipients picks who gets the alert: the assignee when the claim
// has one, otherwise every tenant owner and admin. The admin list is
// fetched lazily once per tenant.
func (e *Engine) slaRecipients(ctx context.Context, tenantID int64, cl *claim.Claim, admins *[]*user.User) ([]user.User, error) {
	if cl.AssigneeID != nil {
		u, err := e.users.GetByID(ctx, *cl.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("get assignee %d: %w", *cl.AssigneeID, err)
		}
		if u.Active {
			return []user.User{*u}, nil
		}
		// Inactive assignee falls through to the admin set.
	}
	if *admins == nil {
		list, err := e.users.ListAdmins(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("list admins: %w", err)
		}
		*admins = list
	}
	out := make([]user.User, 0, len(*admins))
	for _, a := range *admins {
		out = append(out, *a)
	}
	return out, nil
}
