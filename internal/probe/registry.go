package probe

import "time"

// Options tunes the executors built by Default.
type Options struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Default returns a registry with every built-in check type. Each executor is
// wrapped in a Retry that only repeats probes which could not run.
func Default(opts Options) *Registry {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	wrap := func(e Executor) Executor {
		if opts.RetryAttempts <= 1 {
			return e
		}
		return &Retry{Inner: e, Attempts: opts.RetryAttempts, Backoff: opts.RetryBackoff}
	}

	r := NewRegistry()
	r.Register("ping", wrap(NewPingChecker(opts.Timeout)))
	r.Register("tcp", wrap(NewTCPChecker(opts.Timeout)))
	r.Register("http", wrap(NewHTTPChecker(opts.Timeout)))
	r.Register("dns", wrap(NewDNSChecker(opts.Timeout)))
	return r
}
