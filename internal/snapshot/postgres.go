package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"scanattend/internal/attendance"
)

// PostgresStore keeps the snapshot as a single JSONB row, rewritten in full
// on every save like the file store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates the snapshot table if needed.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS registry_snapshot (
			id         smallint PRIMARY KEY CHECK (id = 1),
			data       jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Load reads the snapshot row. No row yet means an empty registry.
func (s *PostgresStore) Load(ctx context.Context) (map[string]attendance.Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM registry_snapshot WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]attendance.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var records map[string]attendance.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if records == nil {
		records = map[string]attendance.Record{}
	}
	return records, nil
}

// Save upserts the full snapshot.
func (s *PostgresStore) Save(ctx context.Context, records map[string]attendance.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO registry_snapshot (id, data)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, data)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
