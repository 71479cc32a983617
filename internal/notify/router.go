package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/repo"
)

// ReportSection is one check's part of a digest.
type ReportSection struct {
	Spec    domain.CheckSpec
	Entries []domain.HistoryEntry
}

// Report is the digest for one ReportSpec.
type Report struct {
	Group    string
	Since    time.Time
	Sections []ReportSection
	Text     string
}

// Router turns confirmed transitions and report boundaries into messages and
// hands them to the configured targets. It is safe for concurrent use.
type Router struct {
	log     *zap.Logger
	states  repo.StateStore
	timeout time.Duration

	mu      sync.RWMutex
	targets map[string]Notifier
}

func NewRouter(log *zap.Logger, states repo.StateStore, targets map[string]Notifier) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		log:     log,
		states:  states,
		targets: targets,
		timeout: 15 * time.Second,
	}
}

// SetTargets replaces the named targets, e.g. after a config reload.
func (rt *Router) SetTargets(targets map[string]Notifier) {
	rt.mu.Lock()
	rt.targets = targets
	rt.mu.Unlock()
}

// OnChange notifies every target of the check when r confirmed a transition.
// Pending transitions are ignored.
func (rt *Router) OnChange(ctx context.Context, r domain.CheckResult) {
	if !r.Notifiable() || len(r.Spec.Notify) == 0 {
		return
	}
	text, err := RenderChange(r)
	if err != nil {
		rt.log.Error("notify_render_failed", zap.String("check_id", r.Spec.ID), zap.Error(err))
		return
	}
	for _, name := range r.Spec.Notify {
		rt.send(ctx, name, text, zap.String("check_id", r.Spec.ID), zap.String("destination", r.Spec.Destination))
	}
}

// BuildReport collects, for every check selected by rs, the history entries
// newer than now-window. ok is false when nothing qualified.
func (rt *Router) BuildReport(ctx context.Context, specs []domain.CheckSpec, rs domain.ReportSpec, window time.Duration, now time.Time) (Report, bool) {
	rep := Report{Group: rs.Group, Since: now.Add(-window)}
	var parts []string
	for _, spec := range specs {
		if !rs.Matches(spec) {
			continue
		}
		st := rt.states.Load(ctx, spec.ID)
		sec := ReportSection{Spec: spec, Entries: st.HistorySince(rep.Since)}
		if len(sec.Entries) == 0 && !rs.IncludeQuiet {
			continue
		}
		text, err := RenderSection(sec)
		if err != nil {
			rt.log.Error("report_render_failed", zap.String("check_id", spec.ID), zap.Error(err))
			continue
		}
		rep.Sections = append(rep.Sections, sec)
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return rep, false
	}
	rep.Text = strings.Join(parts, "---\n")
	return rep, true
}

// SendReports builds every digest and delivers the non-empty ones. It returns
// the number of digests that were built and handed to their targets.
func (rt *Router) SendReports(ctx context.Context, specs []domain.CheckSpec, reports []domain.ReportSpec, window time.Duration, now time.Time) int {
	sent := 0
	for _, rs := range reports {
		rep, ok := rt.BuildReport(ctx, specs, rs, window, now)
		if !ok {
			rt.log.Debug("report_empty", zap.String("group", rs.Group))
			continue
		}
		targets := rt.resolve(rs.Notify, zap.String("group", rs.Group))
		sctx, cancel := context.WithTimeout(ctx, time.Duration(max(1, len(targets)))*rt.timeout)
		err := targets.Send(sctx, rep.Text)
		cancel()
		for _, e := range multierr.Errors(err) {
			rt.log.Error("report_notify_failed", zap.String("group", rs.Group), zap.Error(e))
		}
		rt.log.Info("report_sent",
			zap.String("group", rs.Group),
			zap.Int("sections", len(rep.Sections)),
			zap.Int("targets", len(targets)),
			zap.Int("failed", len(multierr.Errors(err))),
		)
		sent++
	}
	return sent
}

// resolve looks up the named targets, logging the unknown ones.
func (rt *Router) resolve(names []string, fields ...zap.Field) Multi {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make(Multi, 0, len(names))
	for _, name := range names {
		n, ok := rt.targets[name]
		if !ok || n == nil {
			rt.log.Error("notify_unknown_target", append(fields, zap.String("target", name))...)
			continue
		}
		out = append(out, n)
	}
	return out
}

func (rt *Router) send(ctx context.Context, name, text string, fields ...zap.Field) {
	rt.mu.RLock()
	n, ok := rt.targets[name]
	rt.mu.RUnlock()
	if !ok || n == nil {
		rt.log.Error("notify_unknown_target", append(fields, zap.String("target", name))...)
		return
	}
	sctx, cancel := context.WithTimeout(ctx, rt.timeout)
	defer cancel()
	if err := n.Send(sctx, text); err != nil {
		rt.log.Error("notify_failed", append(fields, zap.String("target", name), zap.Error(err))...)
		return
	}
	rt.log.Info("notify_sent", append(fields, zap.String("target", name))...)
}
