// Package engine holds the debounced reachability state machine. It does no
// I/O: persistence and notification belong to the caller.
package engine

import (
	"time"

	"github.com/hamed0406/praesto/internal/domain"
)

// Evaluate computes the next state of a check from its previous state and the
// outcome of this sweep's probe.
//
// A destination has to report the opposite of its confirmed state on
// threshold+1 consecutive sweeps before the transition is confirmed. While
// the count is building up the label is PENDING_*. An outcome that agrees with
// the confirmed state while the counter is non-zero resets the counter and
// restores the confirmed label.
//
// A ProbeError leaves the state untouched.
func Evaluate(spec domain.CheckSpec, prev domain.CheckState, out domain.Outcome, at time.Time) domain.CheckResult {
	res := domain.CheckResult{
		Spec:      spec,
		Outcome:   out,
		CheckedAt: at,
	}
	if out.Kind == domain.OutcomeProbeError {
		res.State = prev.Clone()
		return res
	}

	st := prev.Clone()
	st.ID = spec.ID
	st.LastState = st.LastState.Normalize()
	if st.Label == "" {
		st.Label = domain.ConfirmedLabel(st.LastState)
	}

	threshold := spec.Threshold
	if threshold < 0 {
		threshold = 0
	}
	// A lowered threshold must not leave the counter out of range.
	if st.Iterator > threshold {
		st.Iterator = threshold
	}
	if st.Iterator < 0 {
		st.Iterator = 0
	}

	observed := out.Reachability()
	differs := observed != st.LastState

	switch {
	case differs && st.Iterator < threshold:
		st.Iterator++
		st.Label = domain.PendingLabel(observed)
		res.Changed = true
	case differs || st.Iterator != 0:
		st.LastState = observed
		st.Iterator = 0
		st.Label = domain.ConfirmedLabel(observed)
		res.Changed = true
		res.Confirmed = true
	}

	if res.Changed {
		st.History = append(st.History, domain.HistoryEntry{
			Timestamp: historyTime(st.History, at),
			Label:     st.Label,
		})
	}
	res.State = st
	return res
}

// historyTime keeps history non-decreasing when the wall clock steps back.
func historyTime(h []domain.HistoryEntry, at time.Time) time.Time {
	if n := len(h); n > 0 && at.Before(h[n-1].Timestamp) {
		return h[n-1].Timestamp
	}
	return at
}
