package domain

// Reachability is the confirmed tri-state of a destination.
type Reachability string

const (
	Unknown     Reachability = "unknown"
	Reachable   Reachability = "reachable"
	Unreachable Reachability = "unreachable"
)

// Normalize maps empty or unrecognised values (older state files) to Unknown.
func (r Reachability) Normalize() Reachability {
	switch r {
	case Reachable, Unreachable:
		return r
	default:
		return Unknown
	}
}

// Label is the display state shown to operators and in reports.
type Label string

const (
	LabelUnknown            Label = "UNKNOWN"
	LabelPendingReachable   Label = "PENDING REACHABLE"
	LabelPendingUnreachable Label = "PENDING UNREACHABLE"
	LabelReachable          Label = "REACHABLE"
	LabelUnreachable        Label = "UNREACHABLE"
)

// Pending reports whether the label marks a transition that is not yet confirmed.
func (l Label) Pending() bool {
	return l == LabelPendingReachable || l == LabelPendingUnreachable
}

// ConfirmedLabel is the label for a confirmed reachability.
func ConfirmedLabel(r Reachability) Label {
	switch r {
	case Reachable:
		return LabelReachable
	case Unreachable:
		return LabelUnreachable
	default:
		return LabelUnknown
	}
}

// PendingLabel is the label for a candidate transition towards r.
func PendingLabel(r Reachability) Label {
	if r == Unreachable {
		return LabelPendingUnreachable
	}
	return LabelPendingReachable
}
