package probe

import (
	"context"
	"errors"
	"net"
	"strings"
)

// DNS classes reported by LookupDNS.
const (
	DNSResolves         = "RESOLVES"
	DNSNXDomain         = "NXDOMAIN"
	DNSNoARecord        = "NO_A_RECORD"
	DNSServfailOrTimeout = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName      = "INVALID_NAME"
)

type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	IPs           []net.IP
	HasNS         bool
	Nameservers   []string
	Class         string
	ResolverError string
}

// LookupDNS classifies how a name resolves. The caller bounds it with ctx.
func LookupDNS(ctx context.Context, r *net.Resolver, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") || strings.ContainsAny(s.Domain, " /") {
		s.Class = DNSInvalidName
		return s
	}

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.IPs = ips
		s.Class = DNSResolves
		return s
	}
	if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServfailOrTimeout
			}
		}
	}

	// a name with NS records but no addresses exists, it just has nothing to reach
	if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		s.HasNS = true
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if s.Class == DNSNXDomain || s.Class == "" {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		if s.ResolverError != "" {
			s.Class = DNSServfailOrTimeout
		} else {
			s.Class = DNSNXDomain
		}
	}
	return s
}
