package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/repo/memory"
)

func confirmed(spec domain.CheckSpec, label domain.Label) domain.CheckResult {
	return domain.CheckResult{
		Spec:      spec,
		State:     domain.CheckState{ID: spec.ID, Label: label},
		Changed:   true,
		Confirmed: true,
	}
}

func TestRouter_OnChange_SendsConfirmedToEveryTarget(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	failing := &recordingNotifier{err: errors.New("boom")}
	ok := &recordingNotifier{}
	rt := NewRouter(zap.New(core), memory.New(), map[string]Notifier{"first": failing, "second": ok})

	spec := domain.CheckSpec{ID: "gw", Destination: "10.0.0.1", Type: "ping", Description: "gateway",
		Notify: []string{"first", "missing", "second"}}
	rt.OnChange(context.Background(), confirmed(spec, domain.LabelUnreachable))

	if len(failing.msgs) != 1 || len(ok.msgs) != 1 {
		t.Fatalf("a failing or unknown target must not stop the others: first=%d second=%d", len(failing.msgs), len(ok.msgs))
	}
	want := "Host: 10.0.0.1\nDescription: gateway\nType: ping\nState: UNREACHABLE"
	if ok.msgs[0] != want {
		t.Fatalf("unexpected message:\n%s", ok.msgs[0])
	}
	if logs.FilterMessage("notify_failed").Len() != 1 || logs.FilterMessage("notify_unknown_target").Len() != 1 {
		t.Fatalf("expected failure logs, got %v", logs.All())
	}
}

func TestRouter_OnChange_IgnoresPendingAndUnchanged(t *testing.T) {
	n := &recordingNotifier{}
	rt := NewRouter(zap.NewNop(), memory.New(), map[string]Notifier{"n": n})
	spec := domain.CheckSpec{ID: "gw", Notify: []string{"n"}}

	pending := domain.CheckResult{Spec: spec, State: domain.CheckState{Label: domain.LabelPendingUnreachable, Iterator: 1}, Changed: true}
	rt.OnChange(context.Background(), pending)
	rt.OnChange(context.Background(), domain.CheckResult{Spec: spec})

	if len(n.msgs) != 0 {
		t.Fatalf("pending or unchanged results must not notify, got %v", n.msgs)
	}
}

func TestRouter_BuildReport_WindowAndGroups(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	save := func(id string, entries ...domain.HistoryEntry) {
		st := domain.NewCheckState(id)
		st.History = entries
		if err := store.Save(ctx, st); err != nil {
			t.Fatal(err)
		}
	}
	old := domain.HistoryEntry{Timestamp: now.Add(-48 * time.Hour), Label: domain.LabelUnreachable}
	recentA := domain.HistoryEntry{Timestamp: now.Add(-2 * time.Hour), Label: domain.LabelReachable}
	recentB := domain.HistoryEntry{Timestamp: now.Add(-time.Hour), Label: domain.LabelPendingUnreachable}
	save("a", old, recentA)
	save("b", recentB)
	save("c", recentA)
	save("quiet", old)

	specs := []domain.CheckSpec{
		{ID: "a", Destination: "10.0.0.1", Type: "ping", Groups: []string{"core"}},
		{ID: "b", Destination: "10.0.0.2", Type: "ping", Groups: []string{"core", "dc1"}},
		{ID: "c", Destination: "10.0.0.3", Type: "ping", Groups: []string{"edge"}},
		{ID: "quiet", Destination: "10.0.0.4", Type: "ping", Groups: []string{"core"}},
	}
	rt := NewRouter(zap.NewNop(), store, nil)

	rep, ok := rt.BuildReport(ctx, specs, domain.ReportSpec{Group: "core"}, window, now)
	if !ok {
		t.Fatal("expected a report")
	}
	if len(rep.Sections) != 2 || rep.Sections[0].Spec.ID != "a" || rep.Sections[1].Spec.ID != "b" {
		t.Fatalf("unexpected sections: %+v", rep.Sections)
	}
	if len(rep.Sections[0].Entries) != 1 || rep.Sections[0].Entries[0].Label != domain.LabelReachable {
		t.Fatalf("old entry leaked into window: %+v", rep.Sections[0].Entries)
	}
	if strings.Count(rep.Text, "---\n") != 1 || !strings.Contains(rep.Text, "Host: 10.0.0.2") {
		t.Fatalf("unexpected digest:\n%s", rep.Text)
	}
	if strings.Contains(rep.Text, "10.0.0.3") || strings.Contains(rep.Text, "10.0.0.4") {
		t.Fatalf("digest contains checks outside the group or window:\n%s", rep.Text)
	}

	all, _ := rt.BuildReport(ctx, specs, domain.ReportSpec{Group: domain.AllGroups}, window, now)
	if len(all.Sections) != 3 {
		t.Fatalf("_ALL should select every check with recent history, got %d", len(all.Sections))
	}

	withQuiet, _ := rt.BuildReport(ctx, specs, domain.ReportSpec{Group: "core", IncludeQuiet: true}, window, now)
	if len(withQuiet.Sections) != 3 {
		t.Fatalf("include_quiet should list quiet checks, got %d", len(withQuiet.Sections))
	}

	if _, ok := rt.BuildReport(ctx, specs, domain.ReportSpec{Group: "nobody"}, window, now); ok {
		t.Fatal("empty group must not produce a report")
	}
}

func TestRouter_SendReports(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Now()
	st := domain.NewCheckState("a")
	st.History = []domain.HistoryEntry{{Timestamp: now.Add(-time.Minute), Label: domain.LabelUnreachable}}
	if err := store.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	n := &recordingNotifier{}
	rt := NewRouter(zap.NewNop(), store, map[string]Notifier{"ops": n})
	specs := []domain.CheckSpec{{ID: "a", Destination: "10.0.0.1", Groups: []string{"core"}}}
	reports := []domain.ReportSpec{
		{Group: "core", Notify: []string{"ops"}},
		{Group: "edge", Notify: []string{"ops"}},
	}

	if sent := rt.SendReports(ctx, specs, reports, time.Hour, now); sent != 1 {
		t.Fatalf("want 1 digest, got %d", sent)
	}
	if len(n.msgs) != 1 || !strings.Contains(n.msgs[0], "History:\n- ") {
		t.Fatalf("unexpected digest messages: %q", n.msgs)
	}
}

func TestRouter_SetTargets(t *testing.T) {
	before, after := &recordingNotifier{}, &recordingNotifier{}
	rt := NewRouter(zap.NewNop(), memory.New(), map[string]Notifier{"ops": before})
	rt.SetTargets(map[string]Notifier{"ops": after})

	spec := domain.CheckSpec{ID: "gw", Destination: "10.0.0.1", Notify: []string{"ops"}}
	rt.OnChange(context.Background(), confirmed(spec, domain.LabelReachable))
	if len(before.msgs) != 0 || len(after.msgs) != 1 {
		t.Fatalf("reloaded targets not used: before=%d after=%d", len(before.msgs), len(after.msgs))
	}
}

func TestRouter_SendReports_FailingTargetDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Now()
	st := domain.NewCheckState("a")
	st.History = []domain.HistoryEntry{{Timestamp: now.Add(-time.Minute), Label: domain.LabelReachable}}
	if err := store.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	bad, good := &recordingNotifier{err: errors.New("gateway down")}, &recordingNotifier{}
	rt := NewRouter(zap.New(core), store, map[string]Notifier{"bad": bad, "good": good})
	specs := []domain.CheckSpec{{ID: "a", Destination: "10.0.0.1"}}
	reports := []domain.ReportSpec{{Group: domain.AllGroups, Notify: []string{"bad", "ghost", "good"}}}

	if sent := rt.SendReports(ctx, specs, reports, time.Hour, now); sent != 1 {
		t.Fatalf("want 1 digest, got %d", sent)
	}
	if len(good.msgs) != 1 {
		t.Fatal("healthy target should still receive the digest")
	}
	if logs.FilterMessage("report_notify_failed").Len() != 1 || logs.FilterMessage("notify_unknown_target").Len() != 1 {
		t.Fatalf("expected failure logs, got %v", logs.All())
	}
}
