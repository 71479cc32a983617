package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/hamed0406/praesto/internal/domain"
)

// StateStore persists one CheckState record per check id. Records for
// different ids are independent, so concurrent saves of distinct ids need no
// coordination.
type StateStore interface {
	// Load never fails: a missing record yields domain.NewCheckState, and an
	// unreadable one is logged by the adapter and treated as missing.
	Load(ctx context.Context, id string) domain.CheckState
	// Save writes the full record. Failures wrap domain.ErrPersistence.
	Save(ctx context.Context, st domain.CheckState) error
}

// ValidateID rejects ids that cannot be used as a record key or file name.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("empty check id")
	case id == "." || id == "..":
		return fmt.Errorf("check id %q is reserved", id)
	case strings.ContainsAny(id, "/\\\x00"):
		return fmt.Errorf("check id %q contains a path separator", id)
	}
	return nil
}

// Normalize repairs records written by older versions or by hand.
func Normalize(id string, st domain.CheckState) domain.CheckState {
	st.ID = id
	st.LastState = st.LastState.Normalize()
	if st.Label == "" {
		st.Label = domain.ConfirmedLabel(st.LastState)
	}
	if st.Iterator < 0 {
		st.Iterator = 0
	}
	if st.History == nil {
		st.History = []domain.HistoryEntry{}
	}
	return st
}
