package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/nocturne-labs/dreamscape/pkg/memory"
)

// SaveSnapshot appends a knowledge snapshot row. Older snapshots are kept;
// LoadLatestSnapshot only ever reads the newest one.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot memory.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO knowledge_snapshots (payload) VALUES (?)`, string(payload))
	return err
}

// LoadLatestSnapshot returns the most recent snapshot, or an empty one if
// nothing was ever saved.
func (s *Store) LoadLatestSnapshot(ctx context.Context) (memory.Snapshot, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM knowledge_snapshots ORDER BY id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	var snapshot memory.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// PruneSnapshots keeps only the newest keep rows.
func (s *Store) PruneSnapshots(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM knowledge_snapshots
		WHERE id NOT IN (SELECT id FROM knowledge_snapshots ORDER BY id DESC LIMIT ?)
	`, keep)
	return err
}
