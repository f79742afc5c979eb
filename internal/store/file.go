package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
)

const fileExt = ".msgpack"

// FileStore keeps one msgpack file per save key in a directory. Writes go
// to a temporary file that is renamed into place.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Load decodes the stored snapshot over snap.
func (s *FileStore) Load(_ context.Context, key string, snap *game.Snapshot) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := msgpack.Unmarshal(data, snap); err != nil {
		return false, fmt.Errorf("store: decode snapshot %s: %w", key, err)
	}
	return true, nil
}

// Save writes the snapshot atomically.
func (s *FileStore) Save(_ context.Context, key string, snap *game.Snapshot) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: encode snapshot %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
