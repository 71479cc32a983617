package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/praesto/internal/domain"
)

func newStore(t *testing.T) (*Store, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := New(t.TempDir(), zap.New(core))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, logs
}

func TestFileStore_LoadMissingReturnsDefault(t *testing.T) {
	s, logs := newStore(t)
	st := s.Load(context.Background(), "gw")
	if st.ID != "gw" || st.LastState != domain.Unknown || st.Label != domain.LabelUnknown || st.Iterator != 0 || len(st.History) != 0 {
		t.Fatalf("unexpected default: %+v", st)
	}
	if logs.Len() != 0 {
		t.Fatalf("a missing file is not an error, got logs %v", logs.All())
	}
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	ts := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	want := domain.CheckState{
		ID:        "gw",
		LastState: domain.Unreachable,
		Label:     domain.LabelUnreachable,
		Iterator:  0,
		History: []domain.HistoryEntry{
			{Timestamp: ts, Label: domain.LabelPendingUnreachable},
			{Timestamp: ts.Add(time.Minute), Label: domain.LabelUnreachable},
		},
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load(ctx, "gw")
	if got.LastState != want.LastState || got.Label != want.Label || len(got.History) != 2 {
		t.Fatalf("mismatch:\nwant=%+v\ngot =%+v", want, got)
	}
	if !got.History[1].Timestamp.Equal(want.History[1].Timestamp) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.History[1].Timestamp, want.History[1].Timestamp)
	}
}

func TestFileStore_WritesReadableYAML(t *testing.T) {
	s, _ := newStore(t)
	st := domain.NewCheckState("gw")
	st.Label = domain.LabelPendingReachable
	st.Iterator = 1
	if err := s.Save(context.Background(), st); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), "gw.state"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, field := range []string{"id: gw", "last_state: unknown", "current_label: PENDING REACHABLE", "iterator: 1", "history:"} {
		if !strings.Contains(string(data), field) {
			t.Fatalf("state file missing %q:\n%s", field, data)
		}
	}

	// no temp files left behind
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 1 {
		t.Fatalf("want exactly one file, got %d", len(entries))
	}
}

func TestFileStore_CorruptFileDegradesToDefault(t *testing.T) {
	s, logs := newStore(t)
	if err := os.WriteFile(filepath.Join(s.Dir(), "gw.state"), []byte("iterator: [not an int"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := s.Load(context.Background(), "gw")
	if st.Label != domain.LabelUnknown || st.Iterator != 0 {
		t.Fatalf("want default state, got %+v", st)
	}
	if logs.FilterMessage("state_corrupt").Len() != 1 {
		t.Fatalf("expected a state_corrupt log entry, got %v", logs.All())
	}
}

func TestFileStore_SaveFailureIsSurfaced(t *testing.T) {
	s, _ := newStore(t)
	// a directory where the file should go makes the rename fail
	if err := os.Mkdir(filepath.Join(s.Dir(), "gw.state"), 0o755); err != nil {
		t.Fatal(err)
	}
	err := s.Save(context.Background(), domain.NewCheckState("gw"))
	if err == nil || !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want persistence error, got %v", err)
	}
}

func TestFileStore_RejectsPathLikeID(t *testing.T) {
	s, _ := newStore(t)
	err := s.Save(context.Background(), domain.NewCheckState("../escape"))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("want persistence error, got %v", err)
	}
}
