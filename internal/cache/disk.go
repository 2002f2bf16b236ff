package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const snapshotVersion = 1

// DiskCache persists score snapshots to a single JSON file
type DiskCache struct {
	path string
}

// NewDiskCache creates a disk cache backed by path
func NewDiskCache(path string) *DiskCache {
	return &DiskCache{path: path}
}

type snapshotEntry struct {
	Score     int       `json:"score"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

type snapshot struct {
	Version int                      `json:"version"`
	Entries map[string]snapshotEntry `json:"entries"`
}

// Path returns the snapshot file location
func (c *DiskCache) Path() string {
	return c.path
}

// Load returns the unexpired entries. A missing file is an empty snapshot;
// a snapshot from another format version is ignored.
func (c *DiskCache) Load() (map[string]Entry, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return map[string]Entry{}, nil
	}

	now := time.Now()
	entries := make(map[string]Entry, len(snap.Entries))
	for key, e := range snap.Entries {
		// Check expiration
		if !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt) {
			continue
		}
		entries[key] = Entry(e)
	}
	return entries, nil
}

// Save replaces the snapshot with entries. The file is written to a temporary
// name first so that a crash never leaves a truncated snapshot.
func (c *DiskCache) Save(entries map[string]Entry) error {
	snap := snapshot{
		Version: snapshotVersion,
		Entries: make(map[string]snapshotEntry, len(entries)),
	}
	for key, e := range entries {
		snap.Entries[key] = snapshotEntry(e)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Clear removes the snapshot file
func (c *DiskCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
