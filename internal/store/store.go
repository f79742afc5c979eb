// Package store persists session snapshots under a save key.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/phills76/Dragon-Ball-Radar-2/internal/game"
)

// ErrInvalidKey is returned for save keys that cannot name a snapshot.
var ErrInvalidKey = errors.New("store: invalid save key")

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// SnapshotStore defines the interface for persistent snapshot storage.
type SnapshotStore interface {
	// Load decodes the snapshot stored under key over snap, so fields the
	// stored form lacks keep whatever snap already held. It reports false
	// when nothing is stored.
	Load(ctx context.Context, key string, snap *game.Snapshot) (bool, error)
	// Save replaces the snapshot stored under key.
	Save(ctx context.Context, key string, snap *game.Snapshot) error
	// Close releases storage resources.
	Close() error
}

// ValidateKey checks that key is a usable save key.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
