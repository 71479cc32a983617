package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/engine"
	"github.com/hamed0406/praesto/internal/probe"
	"github.com/hamed0406/praesto/internal/repo"
)

// ChangeHandler is told about every result whose state was persisted.
// Implementations decide for themselves which results they care about.
type ChangeHandler interface {
	OnChange(ctx context.Context, r domain.CheckResult)
}

// SweepStats summarizes one sweep.
type SweepStats struct {
	Total       int // checks handed to Sweep, duplicates included
	Probed      int
	Skipped     int // disabled or unsupported type
	Duplicates  int
	Changed     int
	Confirmed   int
	ProbeErrors int
	SaveErrors  int
	Panics      int
}

type PoolDeps struct {
	Log      *zap.Logger
	Store    repo.StateStore
	Probes   *probe.Registry
	Handlers []ChangeHandler
	Now      func() time.Time
	// ProbeTimeout bounds one check's probe, retries included. Zero leaves
	// the executors' own timeouts in charge.
	ProbeTimeout time.Duration
}

type sweep struct {
	ctx   context.Context
	id    string
	wg    sync.WaitGroup
	mu    sync.Mutex
	stats SweepStats
}

func (s *sweep) count(f func(*SweepStats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}

type job struct {
	spec  domain.CheckSpec
	sweep *sweep
}

// Pool runs sweeps on a fixed set of workers started once by NewPool.
type Pool struct {
	deps    PoolDeps
	log     *zap.Logger
	size    int
	jobs    chan job
	workers sync.WaitGroup

	mu     sync.Mutex // serializes sweeps and guards closed
	closed bool
}

func NewPool(workers int, deps PoolDeps) *Pool {
	if workers < 1 {
		workers = 1
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	p := &Pool{
		deps: deps,
		log:  deps.Log,
		size: workers,
		jobs: make(chan job),
	}
	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.size }

// Sweep probes every enabled check with a supported type once and returns
// when all of them have been evaluated, persisted if changed and handed to
// the change handlers. Cancelling ctx does not abort a running sweep.
func (p *Pool) Sweep(ctx context.Context, specs []domain.CheckSpec) (time.Duration, SweepStats) {
	return p.SweepWithID(ctx, "", specs)
}

// SweepWithID is Sweep with a correlation id attached to every log entry.
func (p *Pool) SweepWithID(ctx context.Context, sweepID string, specs []domain.CheckSpec) (time.Duration, SweepStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	sw := &sweep{ctx: context.WithoutCancel(ctx), id: sweepID}
	sw.stats.Total = len(specs)
	if p.closed {
		p.log.Error("sweep_on_closed_pool", zap.String("sweep_id", sweepID))
		return 0, sw.stats
	}

	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.ID] {
			sw.stats.Duplicates++
			p.log.Warn("sweep_duplicate_check",
				zap.String("sweep_id", sweepID),
				zap.String("check_id", spec.ID),
				zap.String("destination", spec.Destination),
			)
			continue
		}
		seen[spec.ID] = true

		if !spec.Enabled || !p.deps.Probes.Supports(spec.Type) {
			sw.stats.Skipped++
			p.log.Debug("check_skipped",
				zap.String("sweep_id", sweepID),
				zap.String("check_id", spec.ID),
				zap.String("type", spec.Type),
				zap.Bool("enabled", spec.Enabled),
			)
			continue
		}
		sw.wg.Add(1)
		p.jobs <- job{spec: spec, sweep: sw}
	}
	sw.wg.Wait()

	elapsed := time.Since(start)
	sw.mu.Lock()
	stats := sw.stats
	sw.mu.Unlock()
	return elapsed, stats
}

// Close stops the workers after any running sweep has finished.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.workers.Wait()
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for j := range p.jobs {
		p.process(j)
	}
}

func (p *Pool) process(j job) {
	sw := j.sweep
	spec := j.spec
	fields := []zap.Field{
		zap.String("sweep_id", sw.id),
		zap.String("check_id", spec.ID),
		zap.String("destination", spec.Destination),
	}
	defer sw.wg.Done()
	defer func() {
		if v := recover(); v != nil {
			sw.count(func(s *SweepStats) { s.Panics++ })
			p.log.Error("check_panic", append(fields, zap.String("panic", fmt.Sprint(v)))...)
		}
	}()

	exec, _ := p.deps.Probes.Lookup(spec.Type)
	prev := p.deps.Store.Load(sw.ctx, spec.ID)

	pctx, cancel := sw.ctx, context.CancelFunc(func() {})
	if p.deps.ProbeTimeout > 0 {
		pctx, cancel = context.WithTimeout(sw.ctx, p.deps.ProbeTimeout)
	}
	out := exec.Probe(pctx, spec.Destination)
	cancel()

	res := engine.Evaluate(spec, prev, out, p.deps.Now())
	sw.count(func(s *SweepStats) { s.Probed++ })

	if out.Kind == domain.OutcomeProbeError {
		sw.count(func(s *SweepStats) { s.ProbeErrors++ })
		p.log.Warn("probe_error", append(fields, zap.String("detail", out.Detail), zap.Error(out.Err))...)
		return
	}
	p.log.Debug("check_done", append(fields,
		zap.Stringer("outcome", out.Kind),
		zap.Duration("latency", out.Latency),
		zap.String("label", string(res.State.Label)),
		zap.Int("iterator", res.State.Iterator),
	)...)
	if !res.Changed {
		return
	}

	if err := p.deps.Store.Save(sw.ctx, res.State); err != nil {
		sw.count(func(s *SweepStats) { s.SaveErrors++ })
		p.log.Error("state_save_failed", append(fields, zap.Error(err))...)
		return
	}
	sw.count(func(s *SweepStats) {
		s.Changed++
		if res.Confirmed {
			s.Confirmed++
		}
	})
	p.log.Info("state_changed", append(fields,
		zap.String("from", string(prev.Label)),
		zap.String("to", string(res.State.Label)),
		zap.Int("iterator", res.State.Iterator),
		zap.Bool("confirmed", res.Confirmed),
	)...)

	for _, h := range p.deps.Handlers {
		h.OnChange(sw.ctx, res)
	}
}
