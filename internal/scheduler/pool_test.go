package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/probe"
	"github.com/hamed0406/praesto/internal/repo/memory"
)

// --- fakes ---

type countingProbe struct {
	mu       sync.Mutex
	calls    map[string]int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	outcome  func(dest string) domain.Outcome
}

func newCountingProbe(delay time.Duration, outcome func(string) domain.Outcome) *countingProbe {
	return &countingProbe{calls: make(map[string]int), delay: delay, outcome: outcome}
}

func (c *countingProbe) Probe(ctx context.Context, dest string) domain.Outcome {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		m := c.maxSeen.Load()
		if n <= m || c.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	c.mu.Lock()
	c.calls[dest]++
	c.mu.Unlock()
	time.Sleep(c.delay)
	if c.outcome != nil {
		return c.outcome(dest)
	}
	return domain.Outcome{Kind: domain.OutcomeUnreachable}
}

type failingStore struct {
	*memory.Store
	failID string
}

func (f *failingStore) Save(ctx context.Context, st domain.CheckState) error {
	if st.ID == f.failID {
		return fmt.Errorf("%w: disk full", domain.ErrPersistence)
	}
	return f.Store.Save(ctx, st)
}

type recordingHandler struct {
	mu      sync.Mutex
	results []domain.CheckResult
}

func (h *recordingHandler) OnChange(ctx context.Context, r domain.CheckResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, r)
}

func registryWith(e probe.Executor) *probe.Registry {
	r := probe.NewRegistry()
	r.Register("ping", e)
	return r
}

func checks(n int) []domain.CheckSpec {
	out := make([]domain.CheckSpec, n)
	for i := range out {
		out[i] = domain.CheckSpec{
			ID:          fmt.Sprintf("c%02d", i),
			Destination: fmt.Sprintf("10.0.0.%d", i),
			Type:        "ping",
			Enabled:     true,
		}
	}
	return out
}

// --- tests ---

func TestPool_SweepProcessesEveryCheckOnce(t *testing.T) {
	store := memory.New()
	cp := newCountingProbe(5*time.Millisecond, nil)
	h := &recordingHandler{}
	p := NewPool(5, PoolDeps{Log: zap.NewNop(), Store: store, Probes: registryWith(cp), Handlers: []ChangeHandler{h}})
	defer p.Close()

	specs := checks(50)
	elapsed, stats := p.Sweep(context.Background(), specs)

	if stats.Total != 50 || stats.Probed != 50 || stats.Changed != 50 || stats.Confirmed != 50 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	for _, s := range specs {
		if cp.calls[s.Destination] != 1 {
			t.Fatalf("%s probed %d times", s.ID, cp.calls[s.Destination])
		}
		if st := store.Load(context.Background(), s.ID); st.Label != domain.LabelUnreachable {
			t.Fatalf("%s not persisted before Sweep returned: %+v", s.ID, st)
		}
	}
	if store.Saves() != 50 || len(h.results) != 50 {
		t.Fatalf("saves=%d handled=%d", store.Saves(), len(h.results))
	}
	if n := cp.maxSeen.Load(); n > 5 {
		t.Fatalf("more than 5 probes in flight: %d", n)
	}
	if elapsed <= 0 {
		t.Fatalf("elapsed should be positive, got %v", elapsed)
	}
}

func TestPool_SkipsDisabledUnsupportedAndDuplicates(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := memory.New()
	cp := newCountingProbe(0, nil)
	p := NewPool(2, PoolDeps{Log: zap.New(core), Store: store, Probes: registryWith(cp)})
	defer p.Close()

	specs := []domain.CheckSpec{
		{ID: "a", Destination: "10.0.0.1", Type: "ping", Enabled: true},
		{ID: "a", Destination: "10.0.0.99", Type: "ping", Enabled: true},
		{ID: "off", Destination: "10.0.0.2", Type: "ping", Enabled: false},
		{ID: "mail", Destination: "mx.example.com", Type: "smtp", Enabled: true},
	}
	_, stats := p.Sweep(context.Background(), specs)

	if stats.Total != 4 || stats.Probed != 1 || stats.Skipped != 2 || stats.Duplicates != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if cp.calls["10.0.0.99"] != 0 {
		t.Fatal("duplicate id must not be probed")
	}
	for _, id := range []string{"off", "mail"} {
		if st := store.Load(context.Background(), id); st.Label != domain.LabelUnknown || len(st.History) != 0 {
			t.Fatalf("skipped check %s was touched: %+v", id, st)
		}
	}
	if logs.FilterMessage("sweep_duplicate_check").Len() != 1 {
		t.Fatalf("duplicate should be logged, got %v", logs.All())
	}
}

func TestPool_SaveFailureIsIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := &failingStore{Store: memory.New(), failID: "c01"}
	h := &recordingHandler{}
	p := NewPool(3, PoolDeps{Log: zap.New(core), Store: store, Probes: registryWith(newCountingProbe(0, nil)), Handlers: []ChangeHandler{h}})
	defer p.Close()

	_, stats := p.Sweep(context.Background(), checks(4))
	if stats.SaveErrors != 1 || stats.Changed != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	for _, r := range h.results {
		if r.Spec.ID == "c01" {
			t.Fatal("a result that was not persisted must not be handed on")
		}
	}
	failed := logs.FilterMessage("state_save_failed").All()
	if len(failed) != 1 || failed[0].ContextMap()["check_id"] != "c01" {
		t.Fatalf("expected one save failure log for c01, got %v", logs.All())
	}
}

func TestPool_ProbeErrorLeavesStateAlone(t *testing.T) {
	store := memory.New()
	prev := domain.NewCheckState("c00")
	prev.LastState = domain.Reachable
	prev.Label = domain.LabelPendingUnreachable
	prev.Iterator = 1
	if err := store.Save(context.Background(), prev); err != nil {
		t.Fatal(err)
	}
	errProbe := newCountingProbe(0, func(string) domain.Outcome {
		return domain.Outcome{Kind: domain.OutcomeProbeError, Err: fmt.Errorf("%w: no ping binary", domain.ErrProbe)}
	})
	p := NewPool(1, PoolDeps{Log: zap.NewNop(), Store: store, Probes: registryWith(errProbe)})
	defer p.Close()

	_, stats := p.Sweep(context.Background(), checks(1))
	if stats.ProbeErrors != 1 || stats.Changed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if store.Saves() != 1 {
		t.Fatalf("probe error must not save, saves=%d", store.Saves())
	}
	if got := store.Load(context.Background(), "c00"); got.Iterator != 1 || got.Label != domain.LabelPendingUnreachable {
		t.Fatalf("state moved on probe error: %+v", got)
	}
}

func TestPool_PanicIsRecovered(t *testing.T) {
	store := memory.New()
	boom := newCountingProbe(0, func(dest string) domain.Outcome {
		if dest == "10.0.0.2" {
			panic("probe exploded")
		}
		return domain.Outcome{Kind: domain.OutcomeReachable}
	})
	p := NewPool(2, PoolDeps{Log: zap.NewNop(), Store: store, Probes: registryWith(boom)})
	defer p.Close()

	_, stats := p.Sweep(context.Background(), checks(5))
	if stats.Panics != 1 || stats.Changed != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPool_ProbeTimeoutReachesExecutor(t *testing.T) {
	var deadline atomic.Bool
	e := probe.ExecutorFunc(func(ctx context.Context, dest string) domain.Outcome {
		_, ok := ctx.Deadline()
		deadline.Store(ok)
		return domain.Outcome{Kind: domain.OutcomeReachable}
	})
	p := NewPool(1, PoolDeps{Store: memory.New(), Probes: registryWith(e), ProbeTimeout: time.Second})
	defer p.Close()

	p.Sweep(context.Background(), checks(1))
	if !deadline.Load() {
		t.Fatal("probe context should carry the pool's timeout")
	}
}

func TestPool_SweepIgnoresCancellation(t *testing.T) {
	store := memory.New()
	e := probe.ExecutorFunc(func(ctx context.Context, dest string) domain.Outcome {
		if errors.Is(ctx.Err(), context.Canceled) {
			return domain.Outcome{Kind: domain.OutcomeProbeError}
		}
		return domain.Outcome{Kind: domain.OutcomeReachable}
	})
	p := NewPool(2, PoolDeps{Store: store, Probes: registryWith(e)})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, stats := p.Sweep(ctx, checks(3))
	if stats.Changed != 3 {
		t.Fatalf("a cancelled caller must not abort the sweep: %+v", stats)
	}
}

func TestPool_CloseThenSweep(t *testing.T) {
	p := NewPool(2, PoolDeps{Store: memory.New(), Probes: registryWith(newCountingProbe(0, nil))})
	p.Close()
	p.Close()

	_, stats := p.Sweep(context.Background(), checks(3))
	if stats.Probed != 0 {
		t.Fatalf("closed pool must not probe: %+v", stats)
	}
}
