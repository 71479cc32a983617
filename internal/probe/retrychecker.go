package probe

import (
	"context"
	"time"

	"github.com/hamed0406/praesto/internal/domain"
)

// Retry repeats a probe that could not run. A definite reachable or
// unreachable answer is returned as is; debouncing those is the state
// machine's job.
type Retry struct {
	Inner    Executor
	Attempts int
	Backoff  time.Duration
}

func (r *Retry) Probe(ctx context.Context, destination string) domain.Outcome {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.Outcome
	for i := 0; i < attempts; i++ {
		last = r.Inner.Probe(ctx, destination)
		if last.Kind != domain.OutcomeProbeError {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	if attempts > 1 {
		last.Detail = last.Detail + " (after retries)"
	}
	return last
}
