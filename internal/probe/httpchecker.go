package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hamed0406/praesto/internal/domain"
)

// HTTPChecker treats any 2xx/3xx answer to a GET as reachable.
type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPChecker) Probe(ctx context.Context, target string) domain.Outcome {
	u, err := url.ParseRequestURI(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return probeError(fmt.Errorf("invalid http destination %q", target))
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return probeError(err)
	}

	resp, err := h.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return domain.Outcome{Kind: domain.OutcomeUnreachable, Detail: err.Error(), Latency: latency}
	}
	defer resp.Body.Close()

	kind := domain.OutcomeUnreachable
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		kind = domain.OutcomeReachable
	}
	return domain.Outcome{Kind: kind, Detail: resp.Status, Latency: latency}
}
