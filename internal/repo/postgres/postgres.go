package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/repo"
)

var _ repo.StateStore = (*Store)(nil)

// Schema holds one row per check id; history is the JSON-encoded entry list.
const Schema = `
CREATE TABLE IF NOT EXISTS check_states (
  id         TEXT PRIMARY KEY,
  last_state TEXT NOT NULL,
  label      TEXT NOT NULL,
  iterator   INTEGER NOT NULL DEFAULT 0,
  history    JSONB NOT NULL DEFAULT '[]'::jsonb,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) domain.CheckState {
	const q = `SELECT last_state, label, iterator, history FROM check_states WHERE id=$1`
	var (
		lastState string
		label     string
		iterator  int
		history   []byte
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(&lastState, &label, &iterator, &history)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.log.Error("state_read_failed", zap.String("check_id", id), zap.Error(err))
		}
		return domain.NewCheckState(id)
	}

	st := domain.CheckState{
		ID:        id,
		LastState: domain.Reachability(lastState),
		Label:     domain.Label(label),
		Iterator:  iterator,
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &st.History); err != nil {
			s.log.Error("state_corrupt", zap.String("check_id", id), zap.Error(err))
			return domain.NewCheckState(id)
		}
	}
	return repo.Normalize(id, st)
}

func (s *Store) Save(ctx context.Context, st domain.CheckState) error {
	if err := repo.ValidateID(st.ID); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	st = repo.Normalize(st.ID, st)
	history, err := json.Marshal(st.History)
	if err != nil {
		return fmt.Errorf("%w: encode history %s: %w", domain.ErrPersistence, st.ID, err)
	}

	const q = `
		INSERT INTO check_states (id, last_state, label, iterator, history, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id)
		DO UPDATE SET last_state=EXCLUDED.last_state, label=EXCLUDED.label,
		              iterator=EXCLUDED.iterator, history=EXCLUDED.history,
		              updated_at=EXCLUDED.updated_at
	`
	if _, err := s.pool.Exec(ctx, q, st.ID, string(st.LastState), string(st.Label), st.Iterator, history); err != nil {
		return fmt.Errorf("%w: upsert state %s: %w", domain.ErrPersistence, st.ID, err)
	}
	return nil
}
