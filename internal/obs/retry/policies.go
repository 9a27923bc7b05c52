package retry

import (
	"time"

	"go.uber.org/zap"
)

// EmailPolicy bounds in-call retries for transient SMTP failures. A unit
// that exhausts this policy stays eligible for the next cadence because
// its sent marker is never advanced.
func EmailPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "email_send",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 500 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("email send retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
