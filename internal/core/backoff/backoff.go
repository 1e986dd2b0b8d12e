// Package backoff computes the exponential retry delays shared by the HTTP
// transport and the realtime reconnection loop.
package backoff

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultJitter is the randomization applied around each delay (+/-10%).
const DefaultJitter = 0.1

// Policy describes an exponential schedule: Base doubled per attempt, capped at Max.
type Policy struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

// New returns a Policy with the default jitter.
func New(base, maxDelay time.Duration) Policy {
	return Policy{Base: base, Max: maxDelay, Jitter: DefaultJitter}
}

// Schedule returns a fresh stateful schedule for one retry sequence.
func (p Policy) Schedule() *backoff.ExponentialBackOff {
	maxDelay := max(p.Max, p.Base)
	return &backoff.ExponentialBackOff{
		InitialInterval:     p.Base,
		RandomizationFactor: p.Jitter,
		Multiplier:          2,
		MaxInterval:         maxDelay,
	}
}

// Delay returns the delay before retry number attempt (zero based).
func (p Policy) Delay(attempt int) time.Duration {
	b := p.Schedule()
	var d time.Duration
	for range max(attempt, 0) + 1 {
		d = b.NextBackOff()
	}
	return d
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
