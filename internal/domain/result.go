package domain

import (
	"fmt"
	"time"
)

// OutcomeKind is the raw result class of a single probe.
type OutcomeKind int

const (
	OutcomeReachable OutcomeKind = iota
	OutcomeUnreachable
	// OutcomeProbeError means the probe could not be attempted, which says
	// nothing about the destination.
	OutcomeProbeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeReachable:
		return "reachable"
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeProbeError:
		return "probe_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is what a probe returns for one destination.
type Outcome struct {
	Kind    OutcomeKind
	Detail  string
	Latency time.Duration
	Err     error
}

// Reachability maps a determinate outcome onto the tri-state. ProbeError
// maps to Unknown and must not be fed into a transition.
func (o Outcome) Reachability() Reachability {
	switch o.Kind {
	case OutcomeReachable:
		return Reachable
	case OutcomeUnreachable:
		return Unreachable
	default:
		return Unknown
	}
}

// CheckResult is assembled once per check per sweep.
type CheckResult struct {
	Spec    CheckSpec
	State   CheckState
	Outcome Outcome
	// Changed is set when State differs from what was loaded and must be saved.
	Changed bool
	// Confirmed is set when this sweep confirmed a transition (iterator reset
	// to zero). Only confirmed changes are notified.
	Confirmed bool
	CheckedAt time.Time
}

// Notifiable reports whether the result should trigger change notifications.
func (r CheckResult) Notifiable() bool {
	return r.Changed && r.Confirmed
}
