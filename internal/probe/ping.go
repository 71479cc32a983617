package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/praesto/internal/domain"
)

// PingChecker sends a single ICMP echo through the system ping binary, which
// is setuid or capability-enabled on most hosts so we need no raw socket.
//
// iputils ping exits 0 when a reply arrived, 1 when none did, and 2 (or
// anything else) when it could not send at all.
type PingChecker struct {
	Binary  string
	Timeout time.Duration
}

func NewPingChecker(timeout time.Duration) *PingChecker {
	return &PingChecker{Binary: "ping", Timeout: timeout}
}

func (p *PingChecker) Probe(ctx context.Context, destination string) domain.Outcome {
	dest := strings.TrimSpace(destination)
	if dest == "" || strings.HasPrefix(dest, "-") {
		return probeError(fmt.Errorf("invalid ping destination %q", destination))
	}

	wait := int(math.Ceil(p.Timeout.Seconds()))
	if wait < 1 {
		wait = 1
	}
	// leave the binary room to report a lost reply before we kill it
	ctx, cancel := context.WithTimeout(ctx, time.Duration(wait+1)*time.Second)
	defer cancel()

	start := time.Now()
	err := exec.CommandContext(ctx, p.Binary, "-c", "1", "-W", strconv.Itoa(wait), dest).Run()
	latency := time.Since(start)

	if err == nil {
		return domain.Outcome{Kind: domain.OutcomeReachable, Detail: "echo reply", Latency: latency}
	}
	if ctx.Err() != nil {
		return probeError(fmt.Errorf("ping %s: %w", dest, ctx.Err()))
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return domain.Outcome{Kind: domain.OutcomeUnreachable, Detail: "no reply", Latency: latency}
	}
	return probeError(fmt.Errorf("ping %s: %w", dest, err))
}

func probeError(err error) domain.Outcome {
	return domain.Outcome{
		Kind:   domain.OutcomeProbeError,
		Detail: err.Error(),
		Err:    fmt.Errorf("%w: %w", domain.ErrProbe, err),
	}
}
