package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hamed0406/praesto/internal/domain"
)

// TCPChecker treats a completed TCP handshake to host:port as reachable.
type TCPChecker struct {
	Timeout time.Duration
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	return &TCPChecker{Timeout: timeout}
}

func (t *TCPChecker) Probe(ctx context.Context, destination string) domain.Outcome {
	host, port, err := net.SplitHostPort(destination)
	if err != nil || host == "" || port == "" {
		return probeError(fmt.Errorf("tcp destination %q must be host:port", destination))
	}

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	var d net.Dialer
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", destination)
	latency := time.Since(start)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return probeError(fmt.Errorf("resolve %s: %w", host, err))
		}
		return domain.Outcome{Kind: domain.OutcomeUnreachable, Detail: err.Error(), Latency: latency}
	}
	_ = conn.Close()
	return domain.Outcome{Kind: domain.OutcomeReachable, Detail: "tcp ok", Latency: latency}
}
