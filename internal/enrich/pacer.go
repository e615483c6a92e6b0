package enrich

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the pause between consecutive model calls. Gemini free tier
// throttles aggressively; sequential pacing keeps a run under the limit.
const DefaultDelay = 2000 * time.Millisecond

// Pacer spaces out model calls. A nil Pacer is valid and never waits.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing one call per delay. A non-positive delay
// disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next call is allowed or ctx is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
