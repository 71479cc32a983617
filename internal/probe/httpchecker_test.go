package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hamed0406/praesto/internal/domain"
)

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	out := chk.Probe(context.Background(), s.URL)
	if out.Kind != domain.OutcomeReachable {
		t.Fatalf("want reachable, got %+v", out)
	}
	if !strings.HasPrefix(out.Detail, "200") {
		t.Fatalf("want detail to start with 200, got %q", out.Detail)
	}
	if out.Latency < 0 {
		t.Fatalf("latency should be >= 0, got %v", out.Latency)
	}
}

func TestHTTPChecker_Status500(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	out := chk.Probe(context.Background(), s.URL)
	if out.Kind != domain.OutcomeUnreachable {
		t.Fatalf("want unreachable, got %+v", out)
	}
	if !strings.HasPrefix(out.Detail, "500") {
		t.Fatalf("want detail to start with 500, got %q", out.Detail)
	}
}

func TestHTTPChecker_TimeoutIsUnreachable(t *testing.T) {
	// Server sleeps longer than client timeout
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPChecker(50 * time.Millisecond)
	out := chk.Probe(context.Background(), s.URL)
	if out.Kind != domain.OutcomeUnreachable {
		t.Fatalf("want unreachable due to timeout, got %+v", out)
	}
	if out.Detail == "" {
		t.Fatalf("want non-empty detail")
	}
}

func TestHTTPChecker_BadURLIsProbeError(t *testing.T) {
	out := NewHTTPChecker(time.Second).Probe(context.Background(), "ftp://bad")
	if out.Kind != domain.OutcomeProbeError || !errors.Is(out.Err, domain.ErrProbe) {
		t.Fatalf("want probe error, got %+v", out)
	}
}
