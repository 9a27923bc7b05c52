package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/martirspe/reclamofacil-notifier/internal/domain/notification"
)

var (
	mTickDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "notifier_tick_duration_seconds", Help: "Tick duration per cadence kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	mTickSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_ticks_skipped_total", Help: "Cadence firings skipped because the previous tick was draining.",
	}, []string{"kind"})
	mUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_units_total", Help: "Dispatched units by kind and outcome.",
	}, []string{"kind", "status"})
	mTickErrs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_tick_errors_total", Help: "Errors surfaced in tick summaries.",
	}, []string{"kind"})
)

// Start registers the three cadences. Ticks run on the context given
// here, not on the cadence context, so Stop halts future scheduling
// without interrupting an in-flight tick.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	e.baseCtx = ctx
	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(3)
	go e.loop(loopCtx, notification.KindDaily, e.cfg.DailyEvery, 0)
	go e.loop(loopCtx, notification.KindWeekly, e.cfg.WeeklyEvery, 0)
	go e.loop(loopCtx, notification.KindSLA, e.cfg.SLAEvery, e.cfg.SLAOffset)

	e.log.Info("scheduler started",
		zap.Duration("daily_every", e.cfg.DailyEvery),
		zap.Duration("weekly_every", e.cfg.WeeklyEvery),
		zap.Duration("sla_every", e.cfg.SLAEvery),
		zap.Duration("sla_offset", e.cfg.SLAOffset),
		zap.Int("concurrency", e.cfg.Concurrency),
	)
}

// Stop cancels the cadences and waits for in-flight ticks to drain.
// Tick and the manual triggers stay callable afterwards.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	e.wg.Wait()
	e.log.Info("scheduler stopped")
}

func (e *Engine) loop(loopCtx context.Context, kind notification.Kind, every, offset time.Duration) {
	defer e.wg.Done()

	if offset > 0 {
		t := time.NewTimer(offset)
		select {
		case <-loopCtx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	// First pass immediately: a restart catches up sends that came due
	// while the process was down.
	e.scheduledTick(kind)

	for {
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C:
			e.scheduledTick(kind)
		}
	}
}

func (e *Engine) scheduledTick(kind notification.Kind) {
	lock := e.tickLock(kind)
	if !lock.TryLock() {
		mTickSkipped.WithLabelValues(string(kind)).Inc()
		e.log.Warn("previous tick still draining; skipping firing", zap.String("kind", string(kind)))
		return
	}
	defer lock.Unlock()

	runID := uuid.NewString()
	start := time.Now()
	sum := e.tickLocked(e.baseCtx, kind, e.clock.Now(), scope{})
	e.observe(kind, sum, time.Since(start), runID)
}

func (e *Engine) observe(kind notification.Kind, sum notification.Summary, elapsed time.Duration, runID string) {
	k := string(kind)
	mTickDur.WithLabelValues(k).Observe(elapsed.Seconds())
	mUnits.WithLabelValues(k, string(notification.StatusSent)).Add(float64(sum.Sent))
	mUnits.WithLabelValues(k, string(notification.StatusSkipped)).Add(float64(sum.Skipped))
	mUnits.WithLabelValues(k, string(notification.StatusFailed)).Add(float64(sum.Failed))
	mUnits.WithLabelValues(k, string(notification.StatusExcluded)).Add(float64(sum.Excluded))
	if n := len(sum.Errors); n > 0 {
		mTickErrs.WithLabelValues(k).Add(float64(n))
	}

	log := e.log.With(
		zap.String("kind", k),
		zap.String("run_id", runID),
		zap.Int("processed", sum.Processed),
		zap.Int("sent", sum.Sent),
		zap.Int("failed", sum.Failed),
		zap.Int("excluded", sum.Excluded),
		zap.Duration("elapsed", elapsed),
	)
	if sum.Failed > 0 || len(sum.Errors) > 0 {
		log.Warn("tick finished with failures", zap.Strings("errors", sum.Errors))
		return
	}
	if sum.Processed > 0 {
		log.Info("tick finished")
	} else {
		log.Debug("tick finished: nothing due")
	}
}
