// Package file stores each check's state as a YAML document named
// <id>.state under a state directory.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/repo"
)

const suffix = ".state"

type Store struct {
	dir string
	log *zap.Logger
}

// New creates dir if needed.
func New(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: ensure state dir: %w", domain.ErrPersistence, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the directory holding the state files.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+suffix)
}

func (s *Store) Load(ctx context.Context, id string) domain.CheckState {
	if err := repo.ValidateID(id); err != nil {
		s.log.Error("state_read_failed", zap.String("check_id", id), zap.Error(err))
		return domain.NewCheckState(id)
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Error("state_read_failed",
				zap.String("check_id", id),
				zap.String("path", s.path(id)),
				zap.Error(err),
			)
		}
		return domain.NewCheckState(id)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.NewCheckState(id)
	}

	var st domain.CheckState
	if err := yaml.Unmarshal(data, &st); err != nil {
		s.log.Error("state_corrupt",
			zap.String("check_id", id),
			zap.String("path", s.path(id)),
			zap.Error(err),
		)
		return domain.NewCheckState(id)
	}
	return repo.Normalize(id, st)
}

// Save replaces the state file atomically: a reader sees either the old or
// the new document, never a partial one.
func (s *Store) Save(ctx context.Context, st domain.CheckState) error {
	if err := repo.ValidateID(st.ID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(4)
	if err := enc.Encode(repo.Normalize(st.ID, st)); err != nil {
		return fmt.Errorf("%w: encode state %s: %w", domain.ErrPersistence, st.ID, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: encode state %s: %w", domain.ErrPersistence, st.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, st.ID+suffix+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp state %s: %w", domain.ErrPersistence, st.ID, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write temp state %s: %w", domain.ErrPersistence, st.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: sync temp state %s: %w", domain.ErrPersistence, st.ID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp state %s: %w", domain.ErrPersistence, st.ID, err)
	}
	if err := os.Rename(tmpPath, s.path(st.ID)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: replace state file %s: %w", domain.ErrPersistence, st.ID, err)
	}
	return nil
}
