package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/praesto/internal/config"
	"github.com/hamed0406/praesto/internal/logging"
	"github.com/hamed0406/praesto/internal/notify"
	"github.com/hamed0406/praesto/internal/probe"
	"github.com/hamed0406/praesto/internal/repo"
	"github.com/hamed0406/praesto/internal/repo/file"
	"github.com/hamed0406/praesto/internal/repo/memory"
	"github.com/hamed0406/praesto/internal/repo/postgres"
	"github.com/hamed0406/praesto/internal/scheduler"
)

// app is everything a command needs, built from one config file.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	store   repo.StateStore
	probes  *probe.Registry
	router  *notify.Router
	out     io.Writer
	closers []func()
}

func newApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.NewLogger(logging.Options{Dir: cfg.LogDir, Identity: cfg.LogIdentity, Debug: cfg.DebugLog})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, out: out}

	a.store, err = a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	targets, err := a.targets(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.probes = probe.Default(probe.Options{
		Timeout:       cfg.ProbeTimeout(),
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff(),
	})
	a.router = notify.NewRouter(log, a.store, targets)

	log.Info("app_ready",
		zap.String("config", configPath),
		zap.Int("checks", len(cfg.Checks)),
		zap.Strings("probe_types", a.probes.Kinds()),
		zap.Bool("dry_run", dryRun),
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (repo.StateStore, error) {
	switch {
	case dryRun:
		return memory.New(), nil
	case a.cfg.StateDSN != "":
		s, err := postgres.New(ctx, a.cfg.StateDSN, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return file.New(a.cfg.StateDir, a.log)
	}
}

// targets builds the notifiers for cfg. Under --dry-run every target prints
// to the command's output instead.
func (a *app) targets(cfg config.Config) (map[string]notify.Notifier, error) {
	if dryRun {
		out := make(map[string]notify.Notifier, len(cfg.Notifications))
		for name := range cfg.Notifications {
			out[name] = &printNotifier{name: name, w: a.out}
		}
		return out, nil
	}
	return notify.BuildTargets(cfg.Notifications)
}

// probeBudget bounds one check's probe including retries.
func (a *app) probeBudget() time.Duration {
	n := time.Duration(max(1, a.cfg.RetryAttempts))
	return n*(a.cfg.ProbeTimeout()+time.Second) + (n-1)*a.cfg.RetryBackoff()
}

func (a *app) newPool(extra ...scheduler.ChangeHandler) *scheduler.Pool {
	handlers := append([]scheduler.ChangeHandler{a.router}, extra...)
	return scheduler.NewPool(a.cfg.Threads, scheduler.PoolDeps{
		Log:          a.log,
		Store:        a.store,
		Probes:       a.probes,
		Handlers:     handlers,
		ProbeTimeout: a.probeBudget(),
	})
}

// onReload swaps the notification targets after a config reload.
func (a *app) onReload(cfg config.Config) {
	targets, err := a.targets(cfg)
	if err != nil {
		a.log.Error("notify_targets_reload_failed", zap.Error(err))
		return
	}
	a.router.SetTargets(targets)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

var printMu sync.Mutex

type printNotifier struct {
	name string
	w    io.Writer
}

func (p *printNotifier) Send(_ context.Context, text string) error {
	printMu.Lock()
	defer printMu.Unlock()
	_, err := fmt.Fprintf(p.w, "--- notify %s ---\n%s\n", p.name, text)
	return err
}
