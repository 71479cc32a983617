package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/hamed0406/praesto/internal/domain"
)

// DNSChecker reports a name as reachable when it resolves to an address.
type DNSChecker struct {
	Resolver *net.Resolver
	Timeout  time.Duration
}

func NewDNSChecker(timeout time.Duration) *DNSChecker {
	return &DNSChecker{Resolver: net.DefaultResolver, Timeout: timeout}
}

func (d *DNSChecker) Probe(ctx context.Context, target string) domain.Outcome {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	start := time.Now()
	st := LookupDNS(ctx, d.Resolver, extractHost(target))
	return classifyDNS(st, time.Since(start))
}

func classifyDNS(st DNSStatus, latency time.Duration) domain.Outcome {
	switch st.Class {
	case DNSResolves:
		return domain.Outcome{Kind: domain.OutcomeReachable, Detail: st.Class, Latency: latency}
	case DNSNXDomain, DNSNoARecord:
		return domain.Outcome{Kind: domain.OutcomeUnreachable, Detail: st.Class, Latency: latency}
	default:
		out := probeError(fmt.Errorf("dns %s: %s %s", st.Domain, st.Class, st.ResolverError))
		out.Latency = latency
		return out
	}
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
