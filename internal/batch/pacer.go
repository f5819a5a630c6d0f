package batch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// PacingPolicy is the advisory throttle applied between inference calls,
// between records, and between logical sub-batches. It is pacing against a
// rate-limited collaborator, not a concurrency primitive: the processor is
// strictly sequential.
type PacingPolicy struct {
	// MinCallInterval is the minimum spacing between inference calls.
	// Zero disables call pacing.
	MinCallInterval time.Duration
	// RecordDelay is slept after every record.
	RecordDelay time.Duration
	// BatchSize groups records into sub-batches; after each full sub-batch
	// (except the last) BatchDelay is slept instead of RecordDelay.
	// Zero disables sub-batching.
	BatchSize int
	// BatchDelay is the longer sleep between sub-batches.
	BatchDelay time.Duration
}

// Sleeper sleeps for d or returns early with the context error. Tests inject
// a recording fake so pacing is asserted without real delays.
type Sleeper func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pacer enforces a PacingPolicy.
type Pacer struct {
	policy  PacingPolicy
	limiter *rate.Limiter
	sleep   Sleeper
}

// NewPacer builds a pacer; a nil sleeper means real sleeps.
func NewPacer(policy PacingPolicy, sleep Sleeper) *Pacer {
	p := &Pacer{policy: policy, sleep: sleep}
	if p.sleep == nil {
		p.sleep = realSleep
	}
	if policy.MinCallInterval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(policy.MinCallInterval), 1)
	}
	return p
}

// BeforeCall blocks until the next inference call is allowed.
func (p *Pacer) BeforeCall(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// AfterRecord applies the per-record delay, or the longer sub-batch delay
// when record index (0-based) closes a sub-batch that is not the last.
func (p *Pacer) AfterRecord(ctx context.Context, index, total int) error {
	if index+1 >= total {
		return nil
	}
	if p.policy.BatchSize > 0 && (index+1)%p.policy.BatchSize == 0 {
		return p.sleep(ctx, p.policy.BatchDelay)
	}
	return p.sleep(ctx, p.policy.RecordDelay)
}
