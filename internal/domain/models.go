package domain

import (
	"time"

	"gopkg.in/yaml.v3"
)

// CheckSpec is one configured destination. It is read-only to the engine.
type CheckSpec struct {
	ID          string   `yaml:"id" json:"id"`
	Destination string   `yaml:"destination" json:"destination"`
	Type        string   `yaml:"type" json:"type"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	Threshold   int      `yaml:"threshold" json:"threshold"`
	Groups      []string `yaml:"groups,omitempty" json:"groups,omitempty"`
	Notify      []string `yaml:"notify,omitempty" json:"notify,omitempty"`
}

// UnmarshalYAML makes a check enabled unless it says otherwise.
func (c *CheckSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain CheckSpec
	p := plain{Enabled: true}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = CheckSpec(p)
	return nil
}

// InGroup reports whether the check belongs to group.
func (c CheckSpec) InGroup(group string) bool {
	for _, g := range c.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// HistoryEntry records the label a check moved to and when.
type HistoryEntry struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Label     Label     `yaml:"state_label" json:"state_label"`
}

// CheckState is the persisted per-check record.
type CheckState struct {
	ID        string         `yaml:"id" json:"id"`
	LastState Reachability   `yaml:"last_state" json:"last_state"`
	Label     Label          `yaml:"current_label" json:"current_label"`
	Iterator  int            `yaml:"iterator" json:"iterator"`
	History   []HistoryEntry `yaml:"history" json:"history"`
}

// NewCheckState returns the state of a check that has never been probed.
func NewCheckState(id string) CheckState {
	return CheckState{
		ID:        id,
		LastState: Unknown,
		Label:     LabelUnknown,
		Iterator:  0,
		History:   []HistoryEntry{},
	}
}

// HistorySince returns the entries strictly newer than cutoff.
func (s CheckState) HistorySince(cutoff time.Time) []HistoryEntry {
	var out []HistoryEntry
	for _, h := range s.History {
		if h.Timestamp.After(cutoff) {
			out = append(out, h)
		}
	}
	return out
}

// Clone returns a copy that shares no slices with s.
func (s CheckState) Clone() CheckState {
	cp := s
	cp.History = make([]HistoryEntry, len(s.History))
	copy(cp.History, s.History)
	return cp
}
