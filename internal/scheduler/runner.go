package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/praesto/internal/config"
	"github.com/hamed0406/praesto/internal/domain"
)

// Reporter sends the periodic digests.
type Reporter interface {
	SendReports(ctx context.Context, specs []domain.CheckSpec, reports []domain.ReportSpec, window time.Duration, now time.Time) int
}

// Runner is the process loop: reload config, sweep, send digests when a
// report boundary has passed, sleep, repeat.
type Runner struct {
	log      *zap.Logger
	pool     *Pool
	reporter Reporter
	reload   func() (config.Config, error)
	onReload []func(config.Config)
	now      func() time.Time

	mu         sync.RWMutex // guards cfg for readers outside the loop
	cfg        config.Config
	lastReport time.Time
}

// NewRunner starts from an already validated cfg. reload may be nil, in which
// case cfg is used for every sweep.
func NewRunner(log *zap.Logger, pool *Pool, reporter Reporter, cfg config.Config, reload func() (config.Config, error)) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		log:        log,
		pool:       pool,
		reporter:   reporter,
		reload:     reload,
		now:        time.Now,
		cfg:        cfg,
		lastReport: time.Now(),
	}
}

// OnReload registers f to be called with every successfully reloaded config.
func (r *Runner) OnReload(f func(config.Config)) {
	r.onReload = append(r.onReload, f)
}

// Config returns the config the last sweep ran with. Safe to call from
// other goroutines.
func (r *Runner) Config() config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Run loops until ctx is cancelled. A running sweep is always finished first.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("runner_started",
		zap.Int("workers", r.pool.Workers()),
		zap.Duration("check_interval", r.cfg.CheckInterval()),
		zap.Duration("reporting_interval", r.cfg.ReportingInterval()),
	)
	for {
		r.Tick(ctx)

		t := time.NewTimer(r.cfg.CheckInterval())
		select {
		case <-ctx.Done():
			t.Stop()
			r.log.Info("runner_stopped")
			return nil
		case <-t.C:
		}
	}
}

// Tick performs one iteration of the loop without the sleep.
func (r *Runner) Tick(ctx context.Context) SweepStats {
	r.reloadConfig()

	sweepID := uuid.NewString()
	elapsed, stats := r.pool.SweepWithID(ctx, sweepID, r.cfg.Checks)
	r.log.Info("sweep_finished",
		zap.String("sweep_id", sweepID),
		zap.Duration("elapsed", elapsed),
		zap.Int("total", stats.Total),
		zap.Int("probed", stats.Probed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("changed", stats.Changed),
		zap.Int("confirmed", stats.Confirmed),
		zap.Int("probe_errors", stats.ProbeErrors),
		zap.Int("save_errors", stats.SaveErrors),
	)

	now := r.now()
	if r.reportDue(now) {
		n := r.reporter.SendReports(context.WithoutCancel(ctx), r.cfg.Checks, r.cfg.Reports, r.cfg.ReportingInterval(), now)
		r.log.Info("reports_sent", zap.Int("digests", n), zap.Duration("since_last", now.Sub(r.lastReport)))
		r.lastReport = now
	}
	return stats
}

func (r *Runner) reportDue(now time.Time) bool {
	if r.reporter == nil || len(r.cfg.Reports) == 0 {
		return false
	}
	sched, err := r.cfg.ReportBoundary()
	if err != nil {
		r.log.Error("report_schedule_invalid", zap.Error(err))
		return false
	}
	return !now.Before(sched.Next(r.lastReport))
}

func (r *Runner) reloadConfig() {
	if r.reload == nil {
		return
	}
	cfg, err := r.reload()
	if err != nil {
		r.log.Error("config_reload_failed", zap.Error(err))
		return
	}
	if cfg.Threads != r.cfg.Threads {
		r.log.Warn("config_threads_changed",
			zap.Int("running", r.pool.Workers()),
			zap.Int("configured", cfg.Threads),
		)
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	for _, f := range r.onReload {
		f(cfg)
	}
}
