package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    key TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    data JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresStore implements SnapshotStore using PostgreSQL. Snapshots are
// stored as JSON documents.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Load decodes the stored snapshot over snap.
func (s *PostgresStore) Load(ctx context.Context, key string, snap *game.Snapshot) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM snapshots WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, snap); err != nil {
		return false, fmt.Errorf("store: decode snapshot %s: %w", key, err)
	}
	return true, nil
}

// Save upserts the snapshot.
func (s *PostgresStore) Save(ctx context.Context, key string, snap *game.Snapshot) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot %s: %w", key, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (key, version, data, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE
		 SET version = EXCLUDED.version, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		key, snap.Version, data)
	return err
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
